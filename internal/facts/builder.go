package facts

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/pickrace/olist-streamlit-bi/internal/dataset"
)

// Sentinels used when a source value is absent, so no downstream groupby
// silently drops rows.
const (
	UnknownCategory = "unknown"
	UnknownState    = "NA"
)

// Options control one facts build.
type Options struct {
	// MaxOrders caps the table to the most recent N orders by purchase
	// timestamp. Zero (or negative) means no cap — every consumer depends
	// on "no cap when unset", so the zero value must stay a no-op.
	MaxOrders int

	// Year keeps only orders purchased in that calendar year. Zero means
	// no filter.
	Year int
}

// Build assembles the facts table: orders anchored, left-joined with the
// per-order item, payment and review aggregates and the customer dimension,
// then derived delivery metrics. Missing dimension files degrade to default
// values; a missing or empty orders source yields an empty table and a nil
// error.
func Build(ctx context.Context, r *dataset.Reader, opts Options) (Table, error) {
	orders, err := r.Orders(ctx)
	if err != nil {
		return nil, fmt.Errorf("read orders: %w", err)
	}

	orders = dedupeOrders(orders)
	if opts.Year > 0 {
		orders = filterYear(orders, opts.Year)
	}
	if opts.MaxOrders > 0 && len(orders) > opts.MaxOrders {
		orders = capMostRecent(orders, opts.MaxOrders)
	}
	if len(orders) == 0 {
		return Table{}, nil
	}

	items, err := r.Items(ctx)
	if err != nil {
		return nil, fmt.Errorf("read items: %w", err)
	}
	payments, err := r.Payments(ctx)
	if err != nil {
		return nil, fmt.Errorf("read payments: %w", err)
	}
	reviews, err := r.Reviews(ctx)
	if err != nil {
		return nil, fmt.Errorf("read reviews: %w", err)
	}
	customers, err := r.CustomerDim(ctx)
	if err != nil {
		return nil, fmt.Errorf("read customers: %w", err)
	}

	itemAggs := aggregateItems(items)
	payAggs := aggregatePayments(payments)
	reviewAggs := aggregateReviews(reviews)
	states := customerStates(customers)

	t := make(Table, 0, len(orders))
	for _, o := range orders {
		t = append(t, makeFact(o, itemAggs, payAggs, reviewAggs, states))
	}
	return t, nil
}

// dedupeOrders keeps the first occurrence of each order_id so the output is
// strictly order-grained even against dirty inputs.
func dedupeOrders(orders []dataset.OrderRow) []dataset.OrderRow {
	seen := make(map[string]struct{}, len(orders))
	out := orders[:0]
	for _, o := range orders {
		if _, dup := seen[o.OrderID]; dup {
			continue
		}
		seen[o.OrderID] = struct{}{}
		out = append(out, o)
	}
	return out
}

func filterYear(orders []dataset.OrderRow, year int) []dataset.OrderRow {
	out := orders[:0]
	for _, o := range orders {
		if o.PurchasedAt != nil && o.PurchasedAt.Year() == year {
			out = append(out, o)
		}
	}
	return out
}

// capMostRecent sorts ascending by purchase timestamp and keeps the trailing
// n rows — the most recent orders, not a random sample and not the head.
// Orders without a purchase timestamp sort first (treated as oldest) so they
// never crowd out real recent orders.
func capMostRecent(orders []dataset.OrderRow, n int) []dataset.OrderRow {
	sorted := make([]dataset.OrderRow, len(orders))
	copy(sorted, orders)
	sort.SliceStable(sorted, func(i, j int) bool {
		return purchaseLess(sorted[i].PurchasedAt, sorted[j].PurchasedAt)
	})
	return sorted[len(sorted)-n:]
}

func purchaseLess(a, b *time.Time) bool {
	if a == nil {
		return b != nil
	}
	if b == nil {
		return false
	}
	return a.Before(*b)
}

func makeFact(
	o dataset.OrderRow,
	items map[string]itemAgg,
	payments map[string]paymentAgg,
	reviews map[string]reviewAgg,
	states map[string]string,
) Fact {
	f := Fact{
		OrderID:     o.OrderID,
		CustomerID:  o.CustomerID,
		Status:      orDefault(o.Status, UnknownCategory),
		PurchasedAt: deref(o.PurchasedAt),
		ApprovedAt:  deref(o.ApprovedAt),
		CarrierAt:   deref(o.CarrierAt),
		DeliveredAt: deref(o.DeliveredAt),
		EstimatedAt: deref(o.EstimatedAt),
	}

	if !f.PurchasedAt.IsZero() {
		f.PurchaseDate = f.PurchasedAt.Format("2006-01-02")
		f.YearMonth = f.PurchasedAt.Format("2006-01")
	}

	it := items[o.OrderID]
	f.ItemsCount = it.count
	f.GrossRevenue = it.revenue
	f.Freight = it.freight

	pay, paid := payments[o.OrderID]
	if paid {
		f.PaymentType = orDefault(pay.typ, UnknownCategory)
		f.Installments = pay.installmentsOr(1)
		f.PaidValue = pay.value
	} else {
		f.PaymentType = UnknownCategory
		f.Installments = 1
	}

	f.ReviewScore = reviews[o.OrderID].mean()
	f.CustomerState = orDefault(states[o.CustomerID], UnknownState)

	deriveDelivery(&f)
	return f
}

// deriveDelivery fills OnTime, Delivery, DeliveryHours and DelayHours.
// Undelivered orders are pending: not on time, zero delay, delivery time
// undefined. Delay is the magnitude of lateness only, never negative.
func deriveDelivery(f *Fact) {
	f.DeliveryHours = math.NaN()

	if f.DeliveredAt.IsZero() {
		f.Delivery = DeliveryPending
		return
	}

	if !f.PurchasedAt.IsZero() {
		f.DeliveryHours = f.DeliveredAt.Sub(f.PurchasedAt).Hours()
	}

	if !f.EstimatedAt.IsZero() && !f.DeliveredAt.After(f.EstimatedAt) {
		f.OnTime = true
		f.Delivery = DeliveredOnTime
		return
	}

	f.Delivery = DeliveredLate
	if !f.EstimatedAt.IsZero() {
		f.DelayHours = f.DeliveredAt.Sub(f.EstimatedAt).Hours()
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func deref(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
