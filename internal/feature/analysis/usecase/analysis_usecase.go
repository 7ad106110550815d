package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"company_analyzer/internal/feature/analysis/domain/entity"
)

const (
	// DefaultMaxTokens はモデル呼び出しのデフォルト最大出力トークン数です。
	DefaultMaxTokens = 4000
	// DefaultTemperature はモデル呼び出しのデフォルトのサンプリング温度です。
	DefaultTemperature = 0.7

	// AnalysisTemperature はSWOT分析で使用する温度です。
	AnalysisTemperature = 0.5
	// PlanTemperature は事業計画書生成で使用する温度です。
	PlanTemperature = 0.6
	// PlanMaxTokens は事業計画書生成で使用する最大出力トークン数です。
	PlanMaxTokens = 4000
)

// 生成処理の種類と結果です。メトリクスのラベルとして使われます。
const (
	KindAnalysis = "analysis"
	KindPlan     = "plan"

	OutcomeSuccess  = "success"
	OutcomeFallback = "fallback"
	OutcomeError    = "error"
)

// CompletionOptions はモデル呼び出しのパラメータです。
type CompletionOptions struct {
	MaxTokens   int
	Temperature float64
}

// WithDefaults は未設定の項目にデフォルト値を入れたコピーを返します。
func (o CompletionOptions) WithDefaults() CompletionOptions {
	if o.MaxTokens <= 0 {
		o.MaxTokens = DefaultMaxTokens
	}
	if o.Temperature <= 0 {
		o.Temperature = DefaultTemperature
	}
	return o
}

// ModelClient は言語モデルプロバイダへの1回の呼び出しを抽象化します。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type ModelClient interface {
	// Complete はシステムプロンプトとユーザープロンプトを送信し、モデルの生テキストを返します。
	// 失敗時は *ModelError を返します。リトライは行いません。
	Complete(ctx context.Context, systemPrompt, userPrompt string, opts CompletionOptions) (string, error)
}

// PlanRepository は事業計画書の永続化を抽象化します。
type PlanRepository interface {
	// Create は計画書を保存し、タイムスタンプが設定された計画書を返します。
	Create(ctx context.Context, plan *entity.BusinessPlan) (*entity.BusinessPlan, error)
	// FindByID は planId で計画書を取得します。存在しない場合は ErrPlanNotFound を返します。
	FindByID(ctx context.Context, planID string) (*entity.BusinessPlan, error)
	// FindAll は全ての計画書を作成日時の降順で返します。
	FindAll(ctx context.Context) ([]entity.BusinessPlan, error)
	// Delete は計画書を削除します。存在しない場合は ErrPlanNotFound を返します。
	Delete(ctx context.Context, planID string) error
}

// DocumentRenderer は正規化済みの計画書をダウンロード用ドキュメントに変換します。
type DocumentRenderer interface {
	Render(plan *entity.BusinessPlan) (*entity.Document, error)
}

// Recorder は生成処理の結果を記録します（メトリクス用）。
type Recorder interface {
	ObserveGeneration(kind, outcome string, elapsed time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) ObserveGeneration(string, string, time.Duration) {}

// Option は analysisUsecase の設定を変更します。
type Option func(*analysisUsecase)

// WithClock は現在時刻の取得関数を差し替えます。
func WithClock(now func() time.Time) Option {
	return func(u *analysisUsecase) { u.now = now }
}

// WithIDGenerator は planId の採番関数を差し替えます。
func WithIDGenerator(newID func() string) Option {
	return func(u *analysisUsecase) { u.newID = newID }
}

// WithRecorder は生成結果の記録先を設定します。
func WithRecorder(r Recorder) Option {
	return func(u *analysisUsecase) {
		if r != nil {
			u.recorder = r
		}
	}
}

// analysisUsecase は企業分析と事業計画書生成のパイプラインを提供します。
type analysisUsecase struct {
	model    ModelClient
	plans    PlanRepository
	renderer DocumentRenderer
	recorder Recorder
	now      func() time.Time
	newID    func() string
}

// NewAnalysisUsecase はanalysisUsecaseの新しいインスタンスを生成します。
func NewAnalysisUsecase(model ModelClient, plans PlanRepository, renderer DocumentRenderer, opts ...Option) *analysisUsecase {
	u := &analysisUsecase{
		model:    model,
		plans:    plans,
		renderer: renderer,
		recorder: nopRecorder{},
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// RunAnalysis はプロファイルを検証し、モデルにSWOT分析を依頼して正規化した結果を返します。
// モデル出力が解析できない場合もエラーにはならず、IsFallback が true の結果を返します。
func (u *analysisUsecase) RunAnalysis(ctx context.Context, profile entity.CompanyProfile) (*entity.AnalysisResult, error) {
	profile = profile.Clone()
	if missing := profile.MissingRequired(); len(missing) > 0 {
		return nil, &ValidationError{MissingFields: missing}
	}

	start := time.Now()
	raw, err := u.model.Complete(ctx, SystemPrompt, BuildAnalysisPrompt(profile), CompletionOptions{
		Temperature: AnalysisTemperature,
	}.WithDefaults())
	if err != nil {
		u.recorder.ObserveGeneration(KindAnalysis, OutcomeError, time.Since(start))
		return nil, withStage(StageModel, fmt.Errorf("analysis for %q: %w", profile.CompanyName(), err))
	}

	fields, fallback := NormalizeAnalysis(raw)
	outcome := OutcomeSuccess
	if fallback {
		outcome = OutcomeFallback
	}
	u.recorder.ObserveGeneration(KindAnalysis, outcome, time.Since(start))

	return &entity.AnalysisResult{
		CompanyName:    profile.CompanyName(),
		Industry:       profile.Industry(),
		AnalyzedAt:     u.now(),
		AnalysisFields: fields,
		Summary:        BuildSummary(fields),
		IsFallback:     fallback,
	}, nil
}

// RunPlan はプロファイルから事業計画書を生成し、新しい planId で保存します。
// 分析と異なり、モデル出力を解析できない場合は ErrStructuredGeneration を返し、何も保存しません。
func (u *analysisUsecase) RunPlan(ctx context.Context, profile entity.CompanyProfile) (*entity.BusinessPlan, error) {
	profile = profile.Clone()
	if missing := profile.MissingRequired(); len(missing) > 0 {
		return nil, &ValidationError{MissingFields: missing}
	}

	start := time.Now()
	raw, err := u.model.Complete(ctx, SystemPrompt, BuildPlanPrompt(profile), CompletionOptions{
		MaxTokens:   PlanMaxTokens,
		Temperature: PlanTemperature,
	})
	if err != nil {
		u.recorder.ObserveGeneration(KindPlan, OutcomeError, time.Since(start))
		return nil, withStage(StageModel, fmt.Errorf("business plan for %q: %w", profile.CompanyName(), err))
	}

	sections, err := NormalizePlan(raw)
	if err != nil {
		u.recorder.ObserveGeneration(KindPlan, OutcomeError, time.Since(start))
		return nil, withStage(StageNormalization, err)
	}

	now := u.now()
	plan := &entity.BusinessPlan{
		PlanID:      u.newID(),
		CompanyData: profile,
		GeneratedAt: now,
		Sections:    sections,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	saved, err := u.plans.Create(ctx, plan)
	if err != nil {
		u.recorder.ObserveGeneration(KindPlan, OutcomeError, time.Since(start))
		return nil, withStage(StageStorage, fmt.Errorf("save plan %s: %w", plan.PlanID, err))
	}
	u.recorder.ObserveGeneration(KindPlan, OutcomeSuccess, time.Since(start))
	slog.Info("business plan generated", "plan_id", saved.PlanID, "company", saved.CompanyName())
	return saved, nil
}

// GetPlan は planId で保存済みの計画書を取得します。
func (u *analysisUsecase) GetPlan(ctx context.Context, planID string) (*entity.BusinessPlan, error) {
	if planID == "" {
		return nil, ErrPlanNotFound
	}
	plan, err := u.plans.FindByID(ctx, planID)
	if err != nil {
		return nil, withStage(StageStorage, err)
	}
	return plan, nil
}

// ListPlans は保存済みの計画書を新しい順に返します。
func (u *analysisUsecase) ListPlans(ctx context.Context) ([]entity.BusinessPlan, error) {
	plans, err := u.plans.FindAll(ctx)
	if err != nil {
		return nil, withStage(StageStorage, err)
	}
	return plans, nil
}

// DeletePlan は計画書を削除します。
func (u *analysisUsecase) DeletePlan(ctx context.Context, planID string) error {
	if planID == "" {
		return ErrPlanNotFound
	}
	return withStage(StageStorage, u.plans.Delete(ctx, planID))
}

// RenderPlanDocument は保存済みの計画書をダウンロード用ドキュメントに変換します。
func (u *analysisUsecase) RenderPlanDocument(ctx context.Context, planID string) (*entity.Document, error) {
	plan, err := u.GetPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	doc, err := u.renderer.Render(plan)
	if err != nil {
		return nil, withStage(StageRender, fmt.Errorf("render plan %s: %w", planID, err))
	}
	return doc, nil
}

// BuildSummary は分析結果から1段落のサマリー文を組み立てます。
func BuildSummary(f entity.AnalysisFields) string {
	score := "N/A"
	if f.GrowthScore > 0 {
		score = strconv.Itoa(f.GrowthScore)
	}
	return fmt.Sprintf(
		"Analysis identified %d key strengths and %d areas for improvement. "+
			"Found %d market opportunities and %d potential threats. "+
			"Overall growth potential score: %s/10.",
		len(f.Strengths), len(f.Weaknesses), len(f.Opportunities), len(f.Threats), score,
	)
}
