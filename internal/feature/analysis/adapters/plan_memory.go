package adapters

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"company_analyzer/internal/feature/analysis/domain/entity"
	"company_analyzer/internal/feature/analysis/usecase"
)

// planMemory はプロセス内のマップに計画書を保持するリポジトリです。再起動で内容は失われます。
// 保存時と取得時に計画書を複製するため、呼び出し元の変更は保存内容に影響しません。
type planMemory struct {
	mu    sync.RWMutex
	plans map[string]entity.BusinessPlan
	seq   map[string]int
	next  int
}

var _ usecase.PlanRepository = (*planMemory)(nil)

// NewMemoryPlanRepository はインメモリの事業計画書リポジトリを生成します。
func NewMemoryPlanRepository() *planMemory {
	return &planMemory{
		plans: make(map[string]entity.BusinessPlan),
		seq:   make(map[string]int),
	}
}

func (r *planMemory) Create(_ context.Context, plan *entity.BusinessPlan) (*entity.BusinessPlan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.plans[plan.PlanID]; ok {
		return nil, fmt.Errorf("business plan %s already exists", plan.PlanID)
	}
	stored := plan.Clone()
	r.plans[plan.PlanID] = stored
	r.next++
	r.seq[plan.PlanID] = r.next

	out := stored.Clone()
	return &out, nil
}

func (r *planMemory) FindByID(_ context.Context, planID string) (*entity.BusinessPlan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.plans[planID]
	if !ok {
		return nil, usecase.ErrPlanNotFound
	}
	out := p.Clone()
	return &out, nil
}

func (r *planMemory) FindAll(_ context.Context) ([]entity.BusinessPlan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]entity.BusinessPlan, 0, len(r.plans))
	for _, p := range r.plans {
		out = append(out, p.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return r.seq[out[i].PlanID] > r.seq[out[j].PlanID]
	})
	return out, nil
}

func (r *planMemory) Delete(_ context.Context, planID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.plans[planID]; !ok {
		return usecase.ErrPlanNotFound
	}
	delete(r.plans, planID)
	delete(r.seq, planID)
	return nil
}
