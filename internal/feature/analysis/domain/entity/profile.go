// Package entity はanalysisフィーチャーのドメインモデルを定義します。
package entity

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// プロファイルの必須フィールド名です。
const (
	FieldCompanyName = "companyName"
	FieldIndustry    = "industry"
)

// CompanyProfile は呼び出し元が入力した企業情報です。
// キーはフォームのフィールド名（companyName, industry, stage, products など）で、値は任意のJSON値です。
type CompanyProfile map[string]any

// Clone はプロファイルのコピーを返します。ネストしたオブジェクトと配列も複製します。
func (p CompanyProfile) Clone() CompanyProfile {
	if p == nil {
		return CompanyProfile{}
	}
	out := make(CompanyProfile, len(p))
	for k, v := range p {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = cloneValue(e)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

// Text は指定キーの値を表示用の文字列として返します。
// 未設定・null・空文字の場合は空文字を返します。配列はカンマ区切りで連結します。
func (p CompanyProfile) Text(key string) string {
	v, ok := p[key]
	if !ok {
		return ""
	}
	return strings.TrimSpace(textOf(v))
}

// CompanyName は企業名を返します。
func (p CompanyProfile) CompanyName() string {
	return p.Text(FieldCompanyName)
}

// Industry は業種を返します。
func (p CompanyProfile) Industry() string {
	return p.Text(FieldIndustry)
}

// MissingRequired は未入力の必須フィールド名を返します。
func (p CompanyProfile) MissingRequired() []string {
	var missing []string
	if p.CompanyName() == "" {
		missing = append(missing, FieldCompanyName)
	}
	if p.Industry() == "" {
		missing = append(missing, FieldIndustry)
	}
	return missing
}

func textOf(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case json.Number:
		return x.String()
	case []any:
		parts := make([]string, 0, len(x))
		for _, e := range x {
			if s := strings.TrimSpace(textOf(e)); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	case []string:
		return strings.Join(x, ", ")
	case map[string]any:
		b, err := json.Marshal(x)
		if err != nil {
			return ""
		}
		return string(b)
	default:
		return fmt.Sprint(x)
	}
}
