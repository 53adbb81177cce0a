package report

import (
	"sort"

	"github.com/pickrace/olist-streamlit-bi/internal/facts"
)

// PaymentTypeStats describes one payment type's contribution.
type PaymentTypeStats struct {
	Type            string  `json:"payment_type"`
	Orders          int     `json:"orders"`
	Revenue         float64 `json:"revenue"`
	AOV             float64 `json:"aov"`
	AvgInstallments float64 `json:"avg_installments"`
	MaxInstallments int     `json:"max_installments"`
	OrderShare      float64 `json:"order_share"`
}

// PaymentMix groups the table by payment type, sorted by revenue descending
// (type ascending on ties, for stable output). The "unknown" sentinel shows
// up as its own type so no order is dropped.
func PaymentMix(t facts.Table) []PaymentTypeStats {
	type payAgg struct {
		orders          int
		revenue         float64
		installmentsSum int
		installmentsMax int
	}
	byType := make(map[string]payAgg)
	for _, f := range t {
		a := byType[f.PaymentType]
		a.orders++
		a.revenue += f.GrossRevenue
		a.installmentsSum += f.Installments
		if f.Installments > a.installmentsMax {
			a.installmentsMax = f.Installments
		}
		byType[f.PaymentType] = a
	}

	mix := make([]PaymentTypeStats, 0, len(byType))
	for typ, a := range byType {
		s := PaymentTypeStats{
			Type:            typ,
			Orders:          a.orders,
			Revenue:         a.revenue,
			MaxInstallments: a.installmentsMax,
		}
		if a.orders > 0 {
			s.AOV = a.revenue / float64(a.orders)
			s.AvgInstallments = float64(a.installmentsSum) / float64(a.orders)
		}
		if len(t) > 0 {
			s.OrderShare = float64(a.orders) / float64(len(t))
		}
		mix = append(mix, s)
	}

	sort.Slice(mix, func(i, j int) bool {
		if mix[i].Revenue != mix[j].Revenue {
			return mix[i].Revenue > mix[j].Revenue
		}
		return mix[i].Type < mix[j].Type
	})
	return mix
}
