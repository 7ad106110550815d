package usecase

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"company_analyzer/internal/feature/analysis/domain/entity"
)

// 分析結果のプレーンテキスト項目が使えない場合の置き換え文です。
const (
	MarketAnalysisPlaceholder      = "Market analysis is available. Please see other sections for detailed insights."
	CompetitivePositionPlaceholder = "Competitive position analysis is available. Please see other sections for detailed insights."

	// minProseLength は置き換えずに残すプレーンテキストの最小文字数（rune数）です。
	minProseLength = 10
	// previewLength はログに出すモデル出力の最大文字数です。
	previewLength = 500
)

var (
	// leadingFencePattern は先頭の ```json / ``` フェンスにマッチします。
	leadingFencePattern = regexp.MustCompile("(?i)^```(?:json)?\\s*")
	// trailingFencePattern は末尾の ``` フェンスにマッチします。
	trailingFencePattern = regexp.MustCompile("\\s*```$")
	// trailingCommaPattern は ] や } の直前の余分なカンマにマッチします。
	trailingCommaPattern = regexp.MustCompile(`,\s*([}\]])`)
	// braceFragmentPattern はテキスト中に埋め込まれた {...} 断片にマッチします。
	braceFragmentPattern = regexp.MustCompile(`\{[^{}]*\}`)
	// fencedBlockPattern はテキスト中のコードブロックにマッチします。
	fencedBlockPattern = regexp.MustCompile("```[^`]*```")
	// numberPattern は文字列中の最初の数値にマッチします。
	numberPattern = regexp.MustCompile(`-?\d+(?:\.\d+)?`)
)

// errNoJSONObject はモデル出力からJSONオブジェクトを取り出せなかったことを表します。
var errNoJSONObject = errors.New("no JSON object found in model output")

// FallbackAnalysis はモデル出力を解析できなかった場合に返す固定の分析内容です。
func FallbackAnalysis() entity.AnalysisFields {
	return entity.AnalysisFields{
		Strengths:           []string{"Analysis in progress"},
		Weaknesses:          []string{"Unable to parse structured data"},
		Opportunities:       []string{"Please try again"},
		Threats:             []string{"Data parsing error"},
		MarketAnalysis:      "Unable to parse market analysis. Please try regenerating the analysis.",
		CompetitivePosition: "Unable to parse competitive position. Please try regenerating the analysis.",
		RiskAssessment:      []entity.RiskItem{},
		GrowthScore:         5,
		Recommendations:     []string{"Please regenerate analysis"},
	}
}

// NormalizeAnalysis はモデルの生出力をSWOT分析に変換します。
// 解析に失敗してもエラーにはせず、固定のフォールバック内容と true を返します。
func NormalizeAnalysis(raw string) (entity.AnalysisFields, bool) {
	obj, err := recoverJSONObject(raw)
	if err != nil {
		slog.Warn("failed to parse analysis response; returning fallback",
			"error", err, "preview", preview(raw))
		return FallbackAnalysis(), true
	}

	return entity.AnalysisFields{
		Strengths:           stringList(obj["strengths"]),
		Weaknesses:          stringList(obj["weaknesses"]),
		Opportunities:       stringList(obj["opportunities"]),
		Threats:             stringList(obj["threats"]),
		MarketAnalysis:      cleanProse(obj["marketAnalysis"], MarketAnalysisPlaceholder),
		CompetitivePosition: cleanProse(obj["competitivePosition"], CompetitivePositionPlaceholder),
		RiskAssessment:      riskItems(obj["riskAssessment"]),
		GrowthScore:         growthScore(obj["growthScore"]),
		Recommendations:     stringList(obj["recommendations"]),
	}, false
}

// planSectionKeys は事業計画書として認識するトップレベルのキーです。
var planSectionKeys = []string{
	"executiveSummary", "companyDescription", "marketAnalysis", "organizationStructure",
	"productsServices", "marketingStrategy", "financialProjections", "fundingRequirements",
	"actionPlan", "risks",
}

// NormalizePlan はモデルの生出力を事業計画書のセクションに変換します。
// 分析と異なりフォールバックは持たず、解析できない場合は ErrStructuredGeneration を返します。
func NormalizePlan(raw string) (entity.PlanSections, error) {
	obj, err := recoverJSONObject(raw)
	if err != nil {
		slog.Error("failed to parse business plan response",
			"error", err, "preview", preview(raw))
		return entity.PlanSections{}, fmt.Errorf("%w: %v", ErrStructuredGeneration, err)
	}
	if !hasAnyKey(obj, planSectionKeys) {
		slog.Error("business plan response has no known sections", "preview", preview(raw))
		return entity.PlanSections{}, fmt.Errorf("%w: response contains none of the plan sections", ErrStructuredGeneration)
	}

	market := sectionObject(obj["marketAnalysis"], "industryOverview")
	marketing := sectionObject(obj["marketingStrategy"], "positioning")
	financial := sectionObject(obj["financialProjections"], "assumptions")
	funding := sectionObject(obj["fundingRequirements"], "amount")

	return entity.PlanSections{
		ExecutiveSummary:   flattenText(obj["executiveSummary"]),
		CompanyDescription: flattenText(obj["companyDescription"]),
		MarketAnalysis: entity.MarketAnalysis{
			IndustryOverview:    flattenText(market["industryOverview"]),
			TargetMarket:        flattenText(market["targetMarket"]),
			MarketSize:          flattenText(market["marketSize"]),
			CompetitiveAnalysis: flattenText(market["competitiveAnalysis"]),
		},
		OrganizationStructure: flattenText(obj["organizationStructure"]),
		ProductsServices:      flattenText(obj["productsServices"]),
		MarketingStrategy: entity.MarketingStrategy{
			Positioning: flattenText(marketing["positioning"]),
			Channels:    stringList(marketing["channels"]),
			Tactics:     stringList(marketing["tactics"]),
		},
		FinancialProjections: entity.FinancialProjections{
			Year1:       yearProjection(financial["year1"]),
			Year2:       yearProjection(financial["year2"]),
			Year3:       yearProjection(financial["year3"]),
			Assumptions: stringList(financial["assumptions"]),
		},
		FundingRequirements: entity.FundingRequirements{
			Amount:   flattenText(funding["amount"]),
			Use:      stringList(funding["use"]),
			Timeline: flattenText(funding["timeline"]),
		},
		ActionPlan: milestones(obj["actionPlan"]),
		Risks:      planRisks(obj["risks"]),
	}, nil
}

// recoverJSONObject はモデル出力から最もそれらしいJSONオブジェクトを取り出します。
// 前後の空白とコードフェンスを除去し、解析できなければ最初の { から最後の } までを切り出し、
// それでも失敗する場合はコメントと末尾カンマを取り除いて再試行します。
func recoverJSONObject(raw string) (map[string]any, error) {
	text := strings.TrimSpace(raw)
	text = leadingFencePattern.ReplaceAllString(text, "")
	text = trailingFencePattern.ReplaceAllString(text, "")

	obj, err := decodeObject(text)
	if err == nil {
		return obj, nil
	}

	candidate := text
	start, end := strings.Index(text, "{"), strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		candidate = text[start : end+1]
		if obj, err = decodeObject(candidate); err == nil {
			return obj, nil
		}
	}

	if obj, err = decodeObject(cleanJSON(candidate)); err == nil {
		return obj, nil
	}
	return nil, fmt.Errorf("%w: %v", errNoJSONObject, err)
}

func decodeObject(text string) (map[string]any, error) {
	if text == "" {
		return nil, errors.New("empty input")
	}
	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return nil, err
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("top-level JSON value is %T, not an object", v)
	}
	return obj, nil
}

// cleanJSON はJSONとして不正な // コメントと末尾カンマを取り除きます。
func cleanJSON(raw string) string {
	lines := strings.Split(raw, "\n")
	for i, line := range lines {
		lines[i] = stripLineComment(line)
	}
	return trailingCommaPattern.ReplaceAllString(strings.Join(lines, "\n"), "$1")
}

// stripLineComment は文字列リテラルの外側にある // 以降を削除します。
func stripLineComment(line string) string {
	if !strings.Contains(line, "//") {
		return line
	}
	inString, escaped := false, false
	for i := 0; i < len(line); i++ {
		ch := line[i]
		switch {
		case escaped:
			escaped = false
		case ch == '\\' && inString:
			escaped = true
		case ch == '"':
			inString = !inString
		case !inString && ch == '/' && i+1 < len(line) && line[i+1] == '/':
			return strings.TrimRight(line[:i], " \t")
		}
	}
	return line
}

// cleanProse はプレーンテキストであるべき項目を修復します。
// オブジェクト等の文字列以外、または修復後に短すぎる・JSONに見えるテキストは placeholder に置き換えます。
func cleanProse(v any, placeholder string) string {
	s, ok := v.(string)
	if !ok {
		return placeholder
	}
	text := strings.TrimSpace(s)
	for {
		stripped := strings.TrimSpace(braceFragmentPattern.ReplaceAllString(text, ""))
		if stripped == text {
			break
		}
		text = stripped
	}
	text = strings.TrimSpace(fencedBlockPattern.ReplaceAllString(text, ""))
	text = strings.TrimSpace(strings.ReplaceAll(text, "```", ""))

	if text == "" || strings.HasPrefix(text, "{") || utf8.RuneCountInString(text) < minProseLength {
		return placeholder
	}
	return text
}

// flattenText は任意のJSON値を1つの文字列にします。オブジェクトは "key: value" をキー順に連結します。
func flattenText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case []any:
		parts := make([]string, 0, len(x))
		for _, e := range x {
			if s := flattenText(e); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "; ")
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			if s := flattenText(x[k]); s != "" {
				parts = append(parts, k+": "+s)
			}
		}
		return strings.Join(parts, "; ")
	default:
		return fmt.Sprint(x)
	}
}

// stringList は配列または単一の値を空要素を除いた文字列スライスにします。結果は nil になりません。
func stringList(v any) []string {
	out := make([]string, 0)
	switch x := v.(type) {
	case []any:
		for _, e := range x {
			if s := flattenText(e); s != "" {
				out = append(out, s)
			}
		}
	default:
		if s := flattenText(x); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func riskItems(v any) []entity.RiskItem {
	out := make([]entity.RiskItem, 0)
	for _, e := range asList(v) {
		var item entity.RiskItem
		if m, ok := e.(map[string]any); ok {
			item = entity.RiskItem{
				Risk:       flattenText(m["risk"]),
				Severity:   severity(m["severity"]),
				Mitigation: flattenText(m["mitigation"]),
			}
		} else {
			item = entity.RiskItem{Risk: flattenText(e), Severity: entity.SeverityMedium}
		}
		if item.Risk != "" {
			out = append(out, item)
		}
	}
	return out
}

// severity は深刻度を high / medium / low のいずれかに揃えます。不明な値は medium です。
func severity(v any) entity.Severity {
	switch strings.ToLower(flattenText(v)) {
	case "high", "critical", "severe":
		return entity.SeverityHigh
	case "low", "minor":
		return entity.SeverityLow
	default:
		return entity.SeverityMedium
	}
}

// growthScore は成長スコアを1〜10の整数にします。読み取れない場合は0（未評価）です。
func growthScore(v any) int {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case string:
		m := numberPattern.FindString(x)
		if m == "" {
			return 0
		}
		parsed, err := strconv.ParseFloat(m, 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if f <= 0 || math.IsNaN(f) {
		return 0
	}
	// intへの変換で桁あふれしないよう、丸める前に範囲内へ収める
	f = math.Min(f, 10)
	return max(1, int(math.Round(f)))
}

// sectionObject はネストされたセクションをマップとして返します。
// モデルがセクションを文字列で返した場合は primary キーに格納します。
func sectionObject(v any, primary string) map[string]any {
	switch x := v.(type) {
	case map[string]any:
		return x
	case nil:
		return map[string]any{}
	default:
		return map[string]any{primary: x}
	}
}

func yearProjection(v any) entity.YearProjection {
	m := sectionObject(v, "revenue")
	return entity.YearProjection{
		Revenue:  flattenText(m["revenue"]),
		Expenses: flattenText(m["expenses"]),
		Profit:   flattenText(m["profit"]),
	}
}

func milestones(v any) []entity.Milestone {
	out := make([]entity.Milestone, 0)
	for _, e := range asList(v) {
		m := sectionObject(e, "milestone")
		item := entity.Milestone{
			Milestone: flattenText(m["milestone"]),
			Timeline:  flattenText(m["timeline"]),
			Priority:  strings.ToLower(flattenText(m["priority"])),
		}
		if item.Milestone != "" {
			out = append(out, item)
		}
	}
	return out
}

func planRisks(v any) []entity.PlanRisk {
	out := make([]entity.PlanRisk, 0)
	for _, e := range asList(v) {
		m := sectionObject(e, "risk")
		item := entity.PlanRisk{
			Risk:       flattenText(m["risk"]),
			Mitigation: flattenText(m["mitigation"]),
		}
		if item.Risk != "" {
			out = append(out, item)
		}
	}
	return out
}

// asList は配列以外の単一の値を1要素の配列として扱います。
func asList(v any) []any {
	switch x := v.(type) {
	case nil:
		return nil
	case []any:
		return x
	default:
		return []any{x}
	}
}

func hasAnyKey(obj map[string]any, keys []string) bool {
	for _, k := range keys {
		if _, ok := obj[k]; ok {
			return true
		}
	}
	return false
}

func preview(raw string) string {
	if utf8.RuneCountInString(raw) <= previewLength {
		return raw
	}
	return string([]rune(raw)[:previewLength])
}
