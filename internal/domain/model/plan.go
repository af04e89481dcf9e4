package model

import "sitepilot/internal/domain"

// Plan is a sellable tier. The catalog is small and loaded from config at
// startup; there is no plans table.
type Plan struct {
	ID                   string
	Name                 string
	Tier                 string
	PriceMonthly         int64 // minor units
	PriceYearly          int64
	PriceOnetime         int64
	GatewayPlanIDMonthly string
	GatewayPlanIDYearly  string
}

// Price returns the charge amount for the given cycle.
func (p *Plan) Price(cycle BillingCycle) (int64, error) {
	switch cycle {
	case BillingCycleMonthly:
		return p.PriceMonthly, nil
	case BillingCycleYearly:
		return p.PriceYearly, nil
	case BillingCycleOnetime:
		return p.PriceOnetime, nil
	default:
		return 0, domain.ErrInvalidArgument
	}
}
