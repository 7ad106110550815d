package entity

import (
	"slices"
	"time"
)

// MarketAnalysis は事業計画書の市場分析セクションです。
type MarketAnalysis struct {
	IndustryOverview    string `json:"industryOverview"`
	TargetMarket        string `json:"targetMarket"`
	MarketSize          string `json:"marketSize"`
	CompetitiveAnalysis string `json:"competitiveAnalysis"`
}

// MarketingStrategy はマーケティング戦略セクションです。
type MarketingStrategy struct {
	Positioning string   `json:"positioning"`
	Channels    []string `json:"channels"`
	Tactics     []string `json:"tactics"`
}

// YearProjection は1年分の財務予測です。
type YearProjection struct {
	Revenue  string `json:"revenue"`
	Expenses string `json:"expenses"`
	Profit   string `json:"profit"`
}

// FinancialProjections は3年分の財務予測と前提条件です。
type FinancialProjections struct {
	Year1       YearProjection `json:"year1"`
	Year2       YearProjection `json:"year2"`
	Year3       YearProjection `json:"year3"`
	Assumptions []string       `json:"assumptions"`
}

// FundingRequirements は資金調達要件です。
type FundingRequirements struct {
	Amount   string   `json:"amount"`
	Use      []string `json:"use"`
	Timeline string   `json:"timeline"`
}

// Milestone はアクションプランの1項目です。
type Milestone struct {
	Milestone string `json:"milestone"`
	Timeline  string `json:"timeline"`
	Priority  string `json:"priority"`
}

// PlanRisk は事業計画書のリスクと対策です。
type PlanRisk struct {
	Risk       string `json:"risk"`
	Mitigation string `json:"mitigation"`
}

// PlanSections は事業計画書の10セクションです。
type PlanSections struct {
	ExecutiveSummary      string               `json:"executiveSummary"`
	CompanyDescription    string               `json:"companyDescription"`
	MarketAnalysis        MarketAnalysis       `json:"marketAnalysis"`
	OrganizationStructure string               `json:"organizationStructure"`
	ProductsServices      string               `json:"productsServices"`
	MarketingStrategy     MarketingStrategy    `json:"marketingStrategy"`
	FinancialProjections  FinancialProjections `json:"financialProjections"`
	FundingRequirements   FundingRequirements  `json:"fundingRequirements"`
	ActionPlan            []Milestone          `json:"actionPlan"`
	Risks                 []PlanRisk           `json:"risks"`
}

// BusinessPlan は生成・保存された事業計画書です。作成後は変更されません。
type BusinessPlan struct {
	PlanID      string         `json:"planId"`
	CompanyData CompanyProfile `json:"companyData"`
	GeneratedAt time.Time      `json:"generatedAt"`
	Sections    PlanSections   `json:"sections"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// Clone は計画書のコピーを返します。スライスとプロファイルも複製するため、
// 返り値を変更しても元の計画書には影響しません。
func (p BusinessPlan) Clone() BusinessPlan {
	p.CompanyData = p.CompanyData.Clone()
	p.Sections = p.Sections.Clone()
	return p
}

// Clone はセクションのコピーを返します。nil と空スライスの区別は保たれます。
func (s PlanSections) Clone() PlanSections {
	s.MarketingStrategy.Channels = slices.Clone(s.MarketingStrategy.Channels)
	s.MarketingStrategy.Tactics = slices.Clone(s.MarketingStrategy.Tactics)
	s.FinancialProjections.Assumptions = slices.Clone(s.FinancialProjections.Assumptions)
	s.FundingRequirements.Use = slices.Clone(s.FundingRequirements.Use)
	s.ActionPlan = slices.Clone(s.ActionPlan)
	s.Risks = slices.Clone(s.Risks)
	return s
}

// CompanyName は計画書の対象企業名を返します。
func (p *BusinessPlan) CompanyName() string {
	return p.CompanyData.CompanyName()
}

// Industry は計画書の対象業種を返します。
func (p *BusinessPlan) Industry() string {
	return p.CompanyData.Industry()
}

// TOCEntry は目次の1項目です。
type TOCEntry struct {
	Section string `json:"section"`
	Page    int    `json:"page"`
}

// TableOfContents は事業計画書の固定目次を返します。
func TableOfContents() []TOCEntry {
	return []TOCEntry{
		{Section: "Executive Summary", Page: 1},
		{Section: "Company Description", Page: 2},
		{Section: "Market Analysis", Page: 3},
		{Section: "Organization & Management", Page: 5},
		{Section: "Products & Services", Page: 6},
		{Section: "Marketing Strategy", Page: 7},
		{Section: "Financial Projections", Page: 9},
		{Section: "Funding Requirements", Page: 11},
		{Section: "Action Plan & Milestones", Page: 12},
		{Section: "Risk Assessment", Page: 13},
	}
}
