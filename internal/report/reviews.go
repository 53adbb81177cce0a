package report

import (
	"math"
	"sort"

	"github.com/pickrace/olist-streamlit-bi/internal/facts"
)

// ReviewStats summarizes the review scores of a facts slice.
type ReviewStats struct {
	AvgScore *float64      `json:"avg_score"`
	Scored   int           `json:"scored_orders"`
	Unscored int           `json:"unscored_orders"`
	Buckets  []ScoreBucket `json:"distribution"`
}

// ScoreBucket is one score's share of the scored orders.
type ScoreBucket struct {
	Score  float64 `json:"score"`
	Orders int     `json:"orders"`
	Share  float64 `json:"share"`
}

// ScoreDistribution counts orders per review score, ascending. Orders
// without a review are reported separately, not silently dropped.
func ScoreDistribution(t facts.Table) ReviewStats {
	var stats ReviewStats
	counts := make(map[float64]int)
	sum := 0.0

	for _, f := range t {
		if !f.HasReview() {
			stats.Unscored++
			continue
		}
		counts[f.ReviewScore]++
		sum += f.ReviewScore
		stats.Scored++
	}

	if stats.Scored > 0 {
		stats.AvgScore = fptr(sum / float64(stats.Scored))
	}
	for score, n := range counts {
		stats.Buckets = append(stats.Buckets, ScoreBucket{
			Score:  score,
			Orders: n,
			Share:  float64(n) / float64(stats.Scored),
		})
	}
	sort.Slice(stats.Buckets, func(i, j int) bool {
		return stats.Buckets[i].Score < stats.Buckets[j].Score
	})
	return stats
}

// ScoreDelivery relates a review score to delivery performance.
type ScoreDelivery struct {
	Score            float64  `json:"score"`
	Orders           int      `json:"orders"`
	OnTimeRate       *float64 `json:"on_time_rate"`
	AvgDeliveryHours *float64 `json:"avg_delivery_time_h"`
	AvgDelayHours    *float64 `json:"avg_delay_h"`
}

// DeliveryByScore groups delivered-order metrics per review score,
// ascending. Delivery-time and delay means cover delivered orders only.
func DeliveryByScore(t facts.Table) []ScoreDelivery {
	type scoreAgg struct {
		orders      int
		onTime      int
		delivered   int
		deliveryN   int
		deliverySum float64
		delaySum    float64
	}
	byScore := make(map[float64]scoreAgg)
	for _, f := range t {
		if !f.HasReview() {
			continue
		}
		a := byScore[f.ReviewScore]
		a.orders++
		if f.OnTime {
			a.onTime++
		}
		if f.Delivery != facts.DeliveryPending {
			a.delivered++
			a.delaySum += f.DelayHours
			if !math.IsNaN(f.DeliveryHours) {
				a.deliveryN++
				a.deliverySum += f.DeliveryHours
			}
		}
		byScore[f.ReviewScore] = a
	}

	out := make([]ScoreDelivery, 0, len(byScore))
	for score, a := range byScore {
		d := ScoreDelivery{
			Score:      score,
			Orders:     a.orders,
			OnTimeRate: ratio(a.onTime, a.orders),
		}
		if a.deliveryN > 0 {
			d.AvgDeliveryHours = fptr(a.deliverySum / float64(a.deliveryN))
		}
		if a.delivered > 0 {
			d.AvgDelayHours = fptr(a.delaySum / float64(a.delivered))
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Score < out[j].Score })
	return out
}
