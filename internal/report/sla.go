package report

import (
	"math"

	"github.com/pickrace/olist-streamlit-bi/internal/facts"
)

// SLAStats summarizes delivery performance. Delivery-time and delay means
// cover delivered orders only; pending orders are counted but excluded from
// the averages.
type SLAStats struct {
	OnTimeRate       *float64 `json:"on_time_rate"`
	AvgDeliveryHours *float64 `json:"avg_delivery_time_h"`
	AvgDelayHours    *float64 `json:"avg_delay_h"`
	LateOrders       int      `json:"late_orders"`
	PendingOrders    int      `json:"pending_orders"`
}

// SLA computes the delivery service-level figures for a facts slice.
func SLA(t facts.Table) SLAStats {
	var stats SLAStats
	onTime := 0
	delivered := 0
	deliveryN := 0
	deliverySum := 0.0
	delaySum := 0.0

	for _, f := range t {
		if f.OnTime {
			onTime++
		}
		switch f.Delivery {
		case facts.DeliveryPending:
			stats.PendingOrders++
			continue
		case facts.DeliveredLate:
			stats.LateOrders++
		}
		delivered++
		delaySum += f.DelayHours
		if !math.IsNaN(f.DeliveryHours) {
			deliveryN++
			deliverySum += f.DeliveryHours
		}
	}

	stats.OnTimeRate = ratio(onTime, len(t))
	if deliveryN > 0 {
		stats.AvgDeliveryHours = fptr(deliverySum / float64(deliveryN))
	}
	if delivered > 0 {
		stats.AvgDelayHours = fptr(delaySum / float64(delivered))
	}
	return stats
}

// Recapture estimates the revenue regained if the given share of late
// deliveries, in percentage points, had arrived on time instead. It sums the
// gross revenue of late orders and scales by reductionPP/100.
func Recapture(t facts.Table, reductionPP float64) float64 {
	lateRevenue := 0.0
	for _, f := range t {
		if f.Delivery == facts.DeliveredLate {
			lateRevenue += f.GrossRevenue
		}
	}
	return lateRevenue * reductionPP / 100
}
