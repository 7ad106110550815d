package entity

import "time"

// Severity はリスクの深刻度です。
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// RiskItem は分析結果に含まれるリスク評価の1項目です。
type RiskItem struct {
	Risk       string   `json:"risk"`
	Severity   Severity `json:"severity"`
	Mitigation string   `json:"mitigation"`
}

// AnalysisFields はモデル出力から正規化されたSWOT分析の本体です。
type AnalysisFields struct {
	Strengths           []string   `json:"strengths"`
	Weaknesses          []string   `json:"weaknesses"`
	Opportunities       []string   `json:"opportunities"`
	Threats             []string   `json:"threats"`
	MarketAnalysis      string     `json:"marketAnalysis"`
	CompetitivePosition string     `json:"competitivePosition"`
	RiskAssessment      []RiskItem `json:"riskAssessment"`
	// GrowthScore は1〜10の成長スコアです。0はモデルがスコアを返さなかったことを表します。
	GrowthScore     int      `json:"growthScore"`
	Recommendations []string `json:"recommendations"`
}

// AnalysisResult は呼び出し元に返す構造化分析です。永続化はされません。
type AnalysisResult struct {
	CompanyName string    `json:"companyName"`
	Industry    string    `json:"industry"`
	AnalyzedAt  time.Time `json:"analyzedAt"`
	AnalysisFields
	Summary string `json:"summary"`
	// IsFallback はモデル出力を解析できず固定のフォールバック内容を返した場合にtrueになります。
	IsFallback bool `json:"isFallback"`
}
