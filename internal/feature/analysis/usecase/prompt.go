package usecase

import (
	"strings"
	"text/template"

	"company_analyzer/internal/feature/analysis/domain/entity"
)

// NotSpecified はプロンプト内で未入力フィールドを表す文字列です。
const NotSpecified = "Not specified"

// 事業計画プロンプト固有のデフォルト値です。
const (
	DefaultPlanStage   = "Startup"
	DefaultPlanRevenue = "Pre-revenue"
	DefaultPlanGoals   = "Growth and profitability"
)

// SystemPrompt はモデルに与えるコンサルタントとしての役割定義です。
const SystemPrompt = `You are an expert business consultant with 20+ years of experience helping companies succeed. You have deep expertise in:
- Business strategy and planning
- Market analysis and competitive intelligence
- Financial planning and projections
- Organizational development
- Marketing and growth strategies
- Risk assessment and mitigation

Analyze the provided company data and generate comprehensive, actionable insights. Be specific, practical, and data-driven in your recommendations. Format your responses in clear, structured sections.`

// promptField はプロンプトに埋め込む1行分のラベルと値です。
type promptField struct {
	Label string
	Value string
}

var analysisTemplate = template.Must(template.New("analysis").Parse(`Analyze the following company and provide a structured assessment:

{{range .}}{{.Label}}: {{.Value}}
{{end}}
Provide your analysis in the following JSON format:
{
  "strengths": ["strength1", "strength2", ...],
  "weaknesses": ["weakness1", "weakness2", ...],
  "opportunities": ["opportunity1", "opportunity2", ...],
  "threats": ["threat1", "threat2", ...],
  "marketAnalysis": "detailed market analysis as plain text only - NO JSON, NO code blocks, just readable text",
  "competitivePosition": "competitive positioning analysis as plain text only - NO JSON, NO code blocks, just readable text",
  "riskAssessment": [{"risk": "risk description", "severity": "high/medium/low", "mitigation": "suggested mitigation"}],
  "growthScore": 1-10,
  "recommendations": ["recommendation1", "recommendation2", ...]
}

CRITICAL REQUIREMENTS:
- Respond ONLY with valid JSON
- Do NOT wrap the response in markdown code blocks (no triple backticks with json or plain triple backticks)
- The "marketAnalysis" field must be plain text only - readable sentences, NO JSON objects, NO code blocks
- The "competitivePosition" field must be plain text only - readable sentences, NO JSON objects, NO code blocks
- Return pure JSON only, no additional text before or after`))

var planTemplate = template.Must(template.New("plan").Parse(`Create a comprehensive business plan for the following company:

{{range .}}{{.Label}}: {{.Value}}
{{end}}
Generate a complete business plan with the following sections in JSON format:
{
  "executiveSummary": "comprehensive executive summary (2-3 paragraphs)",
  "companyDescription": "detailed company description including mission, vision, and values",
  "marketAnalysis": {
    "industryOverview": "industry analysis",
    "targetMarket": "target market analysis",
    "marketSize": "estimated market size and growth",
    "competitiveAnalysis": "analysis of key competitors"
  },
  "organizationStructure": "recommended organizational structure and key roles",
  "productsServices": "detailed description of products/services and value proposition",
  "marketingStrategy": {
    "positioning": "market positioning strategy",
    "channels": ["marketing channel 1", "channel 2"],
    "tactics": ["specific tactic 1", "tactic 2"]
  },
  "financialProjections": {
    "year1": {"revenue": "projected", "expenses": "projected", "profit": "projected"},
    "year2": {"revenue": "projected", "expenses": "projected", "profit": "projected"},
    "year3": {"revenue": "projected", "expenses": "projected", "profit": "projected"},
    "assumptions": ["key assumption 1", "assumption 2"]
  },
  "fundingRequirements": {
    "amount": "funding needed",
    "use": ["use of funds 1", "use 2"],
    "timeline": "funding timeline"
  },
  "actionPlan": [
    {"milestone": "milestone description", "timeline": "timeframe", "priority": "high/medium/low"}
  ],
  "risks": [
    {"risk": "risk description", "mitigation": "mitigation strategy"}
  ]
}

IMPORTANT: Respond ONLY with valid JSON.
- Do NOT wrap the response in markdown code blocks (no triple backticks with json or plain triple backticks)
- Every text field must be a plain string, not a nested object
- Return pure JSON only, no additional text before or after`))

// BuildAnalysisPrompt はSWOT分析用のユーザープロンプトを生成します。
// 同じプロファイルからは常に同じ文字列が生成されます。
func BuildAnalysisPrompt(profile entity.CompanyProfile) string {
	fields := []promptField{
		{"Company Name", orDefault(profile.CompanyName(), NotSpecified)},
		{"Industry", orDefault(profile.Industry(), NotSpecified)},
		{"Stage", orDefault(profile.Text("stage"), NotSpecified)},
		{"Products/Services", orDefault(profile.Text("products"), NotSpecified)},
		{"Target Market", orDefault(profile.Text("targetMarket"), NotSpecified)},
		{"Competitors", orDefault(profile.Text("competitors"), NotSpecified)},
		{"Business Model", orDefault(profile.Text("businessModel"), NotSpecified)},
		{"Unique Value", orDefault(profile.Text("uniqueValue"), NotSpecified)},
		{"Market Size", orDefault(profile.Text("marketSize"), NotSpecified)},
		{"Location", orDefault(profile.Text("location"), NotSpecified)},
		{"Founded", orDefault(profile.Text("foundedYear"), NotSpecified)},
		{"Revenue", orDefault(profile.Text("revenue"), NotSpecified)},
		{"Team Size", orDefault(profile.Text("teamSize"), NotSpecified)},
		{"Challenges", orDefault(profile.Text("challenges"), NotSpecified)},
		{"Goals", orDefault(profile.Text("goals"), NotSpecified)},
	}
	return render(analysisTemplate, fields)
}

// BuildPlanPrompt は事業計画書用のユーザープロンプトを生成します。
func BuildPlanPrompt(profile entity.CompanyProfile) string {
	fields := []promptField{
		{"Company Name", orDefault(profile.CompanyName(), NotSpecified)},
		{"Industry", orDefault(profile.Industry(), NotSpecified)},
		{"Stage", orDefault(profile.Text("stage"), DefaultPlanStage)},
		{"Products/Services", orDefault(profile.Text("products"), NotSpecified)},
		{"Target Market", orDefault(profile.Text("targetMarket"), NotSpecified)},
		{"Competitors", orDefault(profile.Text("competitors"), NotSpecified)},
		{"Business Model", orDefault(profile.Text("businessModel"), NotSpecified)},
		{"Unique Value", orDefault(profile.Text("uniqueValue"), NotSpecified)},
		{"Market Size", orDefault(profile.Text("marketSize"), NotSpecified)},
		{"Location", orDefault(profile.Text("location"), NotSpecified)},
		{"Founded", orDefault(profile.Text("foundedYear"), NotSpecified)},
		{"Current Revenue", orDefault(profile.Text("revenue"), DefaultPlanRevenue)},
		{"Team Size", orDefault(profile.Text("teamSize"), NotSpecified)},
		{"Current Challenges", orDefault(profile.Text("challenges"), NotSpecified)},
		{"Business Goals", orDefault(profile.Text("goals"), DefaultPlanGoals)},
		{"Funding Status", orDefault(profile.Text("funding"), NotSpecified)},
	}
	return render(planTemplate, fields)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func render(t *template.Template, fields []promptField) string {
	var sb strings.Builder
	// テンプレートは固定でデータも文字列のみのため、実行時エラーは発生しません。
	_ = t.Execute(&sb, fields)
	return sb.String()
}
