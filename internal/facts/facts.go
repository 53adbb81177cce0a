// Package facts builds the canonical order-grained facts table every report
// consumes.
package facts

import (
	"math"
	"time"
)

// DeliveryStatus distinguishes the three delivery outcomes. The boolean
// OnTime column collapses "pending" into false for consumers that only care
// about the on-time rate.
type DeliveryStatus string

const (
	DeliveredOnTime DeliveryStatus = "on_time"
	DeliveredLate   DeliveryStatus = "late"
	DeliveryPending DeliveryStatus = "pending"
)

// Fact is one row of the facts table: the order's own attributes joined with
// per-order aggregates of items, payments and reviews, the customer state,
// and the derived delivery metrics.
//
// Consumers may rely on: OrderID unique; GrossRevenue, Freight and
// DelayHours never negative; PaymentType, CustomerState and Status never
// empty. ReviewScore and DeliveryHours are NaN when undefined.
type Fact struct {
	OrderID    string `parquet:"order_id"`
	CustomerID string `parquet:"customer_id"`
	Status     string `parquet:"order_status"`

	PurchasedAt time.Time `parquet:"order_purchase_timestamp,timestamp(millisecond)"`
	ApprovedAt  time.Time `parquet:"order_approved_at,timestamp(millisecond)"`
	CarrierAt   time.Time `parquet:"order_delivered_carrier_date,timestamp(millisecond)"`
	DeliveredAt time.Time `parquet:"order_delivered_customer_date,timestamp(millisecond)"`
	EstimatedAt time.Time `parquet:"order_estimated_delivery_date,timestamp(millisecond)"`

	// PurchaseDate and YearMonth are ISO-formatted ("2006-01-02",
	// "2006-01") and empty when the purchase timestamp is missing.
	PurchaseDate string `parquet:"purchase_date"`
	YearMonth    string `parquet:"ym"`

	ItemsCount   int     `parquet:"items_cnt"`
	GrossRevenue float64 `parquet:"gross_revenue"`
	Freight      float64 `parquet:"freight"`

	PaymentType  string  `parquet:"payment_type"`
	Installments int     `parquet:"installments"`
	PaidValue    float64 `parquet:"paid_value"`

	ReviewScore float64 `parquet:"review_score"`

	CustomerState string `parquet:"customer_state"`

	OnTime        bool           `parquet:"on_time"`
	Delivery      DeliveryStatus `parquet:"delivery_status"`
	DeliveryHours float64        `parquet:"delivery_time_h"`
	DelayHours    float64        `parquet:"delay_h"`
}

// HasReview reports whether the order carries a review score.
func (f Fact) HasReview() bool {
	return !math.IsNaN(f.ReviewScore)
}

// Table is the facts relation, one row per order. It is immutable once
// built; filters return new slices over the same backing rows.
type Table []Fact

// Empty reports whether the table has no rows — the documented "no data"
// signal consumers must check for.
func (t Table) Empty() bool {
	return len(t) == 0
}

// Between keeps rows whose purchase date falls within [from, to]. Bounds are
// ISO dates; an empty bound is open. Rows without a purchase date are
// dropped once any bound is set.
func (t Table) Between(from, to string) Table {
	if from == "" && to == "" {
		return t
	}
	out := make(Table, 0, len(t))
	for _, f := range t {
		if f.PurchaseDate == "" {
			continue
		}
		if from != "" && f.PurchaseDate < from {
			continue
		}
		if to != "" && f.PurchaseDate > to {
			continue
		}
		out = append(out, f)
	}
	return out
}

// DateRange returns the minimum and maximum purchase dates present, ignoring
// rows without one. Both are empty for an empty table.
func (t Table) DateRange() (min, max string) {
	for _, f := range t {
		if f.PurchaseDate == "" {
			continue
		}
		if min == "" || f.PurchaseDate < min {
			min = f.PurchaseDate
		}
		if f.PurchaseDate > max {
			max = f.PurchaseDate
		}
	}
	return min, max
}
