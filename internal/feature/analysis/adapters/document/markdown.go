// Package document は事業計画書をダウンロード用のドキュメントに変換します。
package document

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"text/template"
	"time"

	"company_analyzer/internal/feature/analysis/domain/entity"
	"company_analyzer/internal/feature/analysis/usecase"
)

// ContentType はMarkdownドキュメントのMIMEタイプです。
const ContentType = "text/markdown; charset=utf-8"

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9]+`)

var funcs = template.FuncMap{
	"orNA": func(s string) string {
		if strings.TrimSpace(s) == "" {
			return "N/A"
		}
		return s
	},
	"date": func(t time.Time) string {
		return t.Format("January 2, 2006")
	},
	"title": func(s string) string {
		r := []rune(s)
		if len(r) == 0 {
			return ""
		}
		return strings.ToUpper(string(r[0])) + string(r[1:])
	},
	"inc": func(i int) int {
		return i + 1
	},
}

var planTemplate = template.Must(template.New("plan").Funcs(funcs).Parse(`# {{.Plan.CompanyName}} Business Plan

{{.Plan.Industry}} | Generated {{date .Plan.GeneratedAt}} | Plan ID: {{.Plan.PlanID}}

## Table of Contents
{{range $i, $e := .TOC}}
{{inc $i}}. {{$e.Section}} (p. {{$e.Page}}){{end}}

{{with .Plan.Sections}}## Executive Summary

{{orNA .ExecutiveSummary}}

## Company Description

{{orNA .CompanyDescription}}

## Market Analysis

### Industry Overview

{{orNA .MarketAnalysis.IndustryOverview}}

### Target Market

{{orNA .MarketAnalysis.TargetMarket}}

### Market Size

{{orNA .MarketAnalysis.MarketSize}}

### Competitive Analysis

{{orNA .MarketAnalysis.CompetitiveAnalysis}}

## Organization & Management

{{orNA .OrganizationStructure}}

## Products & Services

{{orNA .ProductsServices}}

## Marketing Strategy

### Positioning

{{orNA .MarketingStrategy.Positioning}}

### Channels
{{range .MarketingStrategy.Channels}}
- {{.}}{{else}}
- N/A{{end}}

### Tactics
{{range .MarketingStrategy.Tactics}}
- {{.}}{{else}}
- N/A{{end}}

## Financial Projections

| | Revenue | Expenses | Profit |
|---|---|---|---|
| Year 1 | {{orNA .FinancialProjections.Year1.Revenue}} | {{orNA .FinancialProjections.Year1.Expenses}} | {{orNA .FinancialProjections.Year1.Profit}} |
| Year 2 | {{orNA .FinancialProjections.Year2.Revenue}} | {{orNA .FinancialProjections.Year2.Expenses}} | {{orNA .FinancialProjections.Year2.Profit}} |
| Year 3 | {{orNA .FinancialProjections.Year3.Revenue}} | {{orNA .FinancialProjections.Year3.Expenses}} | {{orNA .FinancialProjections.Year3.Profit}} |

### Key Assumptions
{{range .FinancialProjections.Assumptions}}
- {{.}}{{else}}
- N/A{{end}}

## Funding Requirements

**Amount:** {{orNA .FundingRequirements.Amount}}

**Timeline:** {{orNA .FundingRequirements.Timeline}}

### Use of Funds
{{range .FundingRequirements.Use}}
- {{.}}{{else}}
- N/A{{end}}

## Action Plan & Milestones
{{range .ActionPlan}}
- **{{.Milestone}}**{{if .Timeline}} ({{.Timeline}}){{end}}{{if .Priority}} [{{title .Priority}} priority]{{end}}{{else}}
- N/A{{end}}

## Risk Assessment
{{range .Risks}}
- **{{.Risk}}**{{if .Mitigation}}: {{.Mitigation}}{{end}}{{else}}
- N/A{{end}}
{{end}}`))

// MarkdownRenderer は事業計画書をMarkdown形式で出力します。
type MarkdownRenderer struct{}

var _ usecase.DocumentRenderer = MarkdownRenderer{}

// NewMarkdownRenderer はMarkdownRendererを生成します。
func NewMarkdownRenderer() MarkdownRenderer {
	return MarkdownRenderer{}
}

// Render は表紙・目次・10セクションを含むMarkdownドキュメントを生成します。
func (MarkdownRenderer) Render(plan *entity.BusinessPlan) (*entity.Document, error) {
	if plan == nil {
		return nil, fmt.Errorf("plan is nil")
	}
	var buf bytes.Buffer
	err := planTemplate.Execute(&buf, struct {
		Plan *entity.BusinessPlan
		TOC  []entity.TOCEntry
	}{Plan: plan, TOC: entity.TableOfContents()})
	if err != nil {
		return nil, fmt.Errorf("execute plan template: %w", err)
	}
	return &entity.Document{
		FileName:    FileName(plan),
		ContentType: ContentType,
		Body:        buf.Bytes(),
	}, nil
}

// FileName はダウンロード時のファイル名（例: Acme_Corp_Business_Plan.md）を返します。
func FileName(plan *entity.BusinessPlan) string {
	name := strings.Trim(unsafeFileChars.ReplaceAllString(plan.CompanyName(), "_"), "_")
	if name == "" {
		name = "Company"
	}
	return name + "_Business_Plan.md"
}
