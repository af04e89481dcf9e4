package usecase

import (
	"sitepilot/internal/domain"
	"sitepilot/internal/domain/model"
)

// PlanCatalog is the in-memory plan lookup loaded from config at startup.
type PlanCatalog struct {
	byID map[string]*model.Plan
}

func NewPlanCatalog(plans []*model.Plan) *PlanCatalog {
	byID := make(map[string]*model.Plan, len(plans))
	for _, p := range plans {
		byID[p.ID] = p
	}
	return &PlanCatalog{byID: byID}
}

func (c *PlanCatalog) FindByID(id string) (*model.Plan, error) {
	p, ok := c.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

// Tier returns the display tier for a plan id, empty for unknown plans.
func (c *PlanCatalog) Tier(id string) string {
	if p, ok := c.byID[id]; ok {
		return p.Tier
	}
	return ""
}
