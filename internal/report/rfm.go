package report

import (
	"sort"
	"time"

	"github.com/pickrace/olist-streamlit-bi/internal/facts"
)

// RFMRow is one customer's recency/frequency/monetary profile and segment.
type RFMRow struct {
	CustomerID  string  `json:"customer_id"`
	RecencyDays float64 `json:"recency_days"`
	Frequency   int     `json:"frequency"`
	Monetary    float64 `json:"monetary"`
	R           int     `json:"r"`
	F           int     `json:"f"`
	M           int     `json:"m"`
	Segment     string  `json:"segment"`
}

// SegmentStats rolls one RFM segment up across its customers.
type SegmentStats struct {
	Segment     string  `json:"segment"`
	Customers   int     `json:"customers"`
	Revenue     float64 `json:"revenue"`
	AvgRecency  float64 `json:"avg_recency_days"`
	AvgMonetary float64 `json:"avg_monetary"`
}

// RFM scores every customer 1-5 on recency, frequency and monetary value
// using rank quintiles, then assigns a named segment. Recency is measured in
// days against a snapshot one day after the latest purchase in the table, so
// the freshest customers score 5. Orders without a purchase timestamp are
// excluded. When fewer than five customers exist the quintiles are
// meaningless, so every score flattens to 3.
func RFM(t facts.Table) []RFMRow {
	type custAgg struct {
		last     time.Time
		orders   int
		monetary float64
	}
	byCustomer := make(map[string]custAgg)
	var snapshot time.Time
	for _, f := range t {
		if f.PurchasedAt.IsZero() {
			continue
		}
		a := byCustomer[f.CustomerID]
		if f.PurchasedAt.After(a.last) {
			a.last = f.PurchasedAt
		}
		a.orders++
		a.monetary += f.GrossRevenue
		byCustomer[f.CustomerID] = a
		if f.PurchasedAt.After(snapshot) {
			snapshot = f.PurchasedAt
		}
	}
	if len(byCustomer) == 0 {
		return nil
	}
	snapshot = snapshot.Add(24 * time.Hour)

	rows := make([]RFMRow, 0, len(byCustomer))
	for id, a := range byCustomer {
		rows = append(rows, RFMRow{
			CustomerID:  id,
			RecencyDays: snapshot.Sub(a.last).Hours() / 24,
			Frequency:   a.orders,
			Monetary:    a.monetary,
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].CustomerID < rows[j].CustomerID })

	// Recency scores inverted: fewer days since last purchase is better.
	quintileScores(rows, func(r RFMRow) float64 { return -r.RecencyDays }, func(r *RFMRow, s int) { r.R = s })
	quintileScores(rows, func(r RFMRow) float64 { return float64(r.Frequency) }, func(r *RFMRow, s int) { r.F = s })
	quintileScores(rows, func(r RFMRow) float64 { return r.Monetary }, func(r *RFMRow, s int) { r.M = s })

	for i := range rows {
		rows[i].Segment = segmentOf(rows[i])
	}
	return rows
}

// quintileScores assigns 1-5 by ascending rank of key. Ties break by slice
// position, which is deterministic because callers sort by customer id first.
// Fewer than five rows gets a flat 3 for everyone.
func quintileScores(rows []RFMRow, key func(RFMRow) float64, set func(*RFMRow, int)) {
	n := len(rows)
	if n < 5 {
		for i := range rows {
			set(&rows[i], 3)
		}
		return
	}

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return key(rows[idx[a]]) < key(rows[idx[b]])
	})
	for rank, i := range idx {
		set(&rows[i], rank*5/n+1)
	}
}

func segmentOf(r RFMRow) string {
	switch {
	case r.R >= 4 && r.F >= 4 && r.M >= 4:
		return "Champions"
	case r.R >= 4 && r.F >= 3:
		return "Loyal"
	case r.R >= 4 && r.F <= 2:
		return "New"
	case r.R <= 2 && r.F >= 3:
		return "At Risk"
	case r.R <= 2 && r.F <= 2 && r.M <= 2:
		return "Hibernating"
	default:
		return "Others"
	}
}

// RFMSegments rolls the per-customer scores up by segment, sorted by customer
// count descending (segment name ascending on ties).
func RFMSegments(t facts.Table) []SegmentStats {
	type segAgg struct {
		customers int
		revenue   float64
		recency   float64
	}
	bySegment := make(map[string]segAgg)
	for _, r := range RFM(t) {
		a := bySegment[r.Segment]
		a.customers++
		a.revenue += r.Monetary
		a.recency += r.RecencyDays
		bySegment[r.Segment] = a
	}

	out := make([]SegmentStats, 0, len(bySegment))
	for seg, a := range bySegment {
		out = append(out, SegmentStats{
			Segment:     seg,
			Customers:   a.customers,
			Revenue:     a.revenue,
			AvgRecency:  a.recency / float64(a.customers),
			AvgMonetary: a.revenue / float64(a.customers),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Customers != out[j].Customers {
			return out[i].Customers > out[j].Customers
		}
		return out[i].Segment < out[j].Segment
	})
	return out
}
