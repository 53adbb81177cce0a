package facts

import (
	"math"

	"github.com/pickrace/olist-streamlit-bi/internal/dataset"
)

// itemAgg holds the per-order rollup of line items. Missing prices and
// freight values contribute zero, never NaN.
type itemAgg struct {
	count   int
	revenue float64
	freight float64
}

func aggregateItems(rows []dataset.ItemRow) map[string]itemAgg {
	agg := make(map[string]itemAgg)
	for _, it := range rows {
		a := agg[it.OrderID]
		a.count++
		if it.Price != nil {
			a.revenue += *it.Price
		}
		if it.Freight != nil {
			a.freight += *it.Freight
		}
		agg[it.OrderID] = a
	}
	return agg
}

// paymentAgg rolls up payments per order: first-seen type, max installment
// count, summed value.
type paymentAgg struct {
	typ             string
	installments    int64
	hasInstallments bool
	value           float64
	seen            bool
}

func aggregatePayments(rows []dataset.PaymentRow) map[string]paymentAgg {
	agg := make(map[string]paymentAgg)
	for _, p := range rows {
		a := agg[p.OrderID]
		if !a.seen {
			a.typ = p.Type
			a.seen = true
		}
		if p.Installments != nil {
			if !a.hasInstallments || *p.Installments > a.installments {
				a.installments = *p.Installments
			}
			a.hasInstallments = true
		}
		if p.Value != nil {
			a.value += *p.Value
		}
		agg[p.OrderID] = a
	}
	return agg
}

// installmentsOr returns the max installment count, or fill when every
// payment row lacked one.
func (a paymentAgg) installmentsOr(fill int) int {
	if !a.hasInstallments {
		return fill
	}
	return int(a.installments)
}

// reviewAgg collapses duplicate review rows into a mean score.
type reviewAgg struct {
	sum float64
	n   int
}

func aggregateReviews(rows []dataset.ReviewRow) map[string]reviewAgg {
	agg := make(map[string]reviewAgg)
	for _, rv := range rows {
		if rv.Score == nil {
			continue
		}
		a := agg[rv.OrderID]
		a.sum += *rv.Score
		a.n++
		agg[rv.OrderID] = a
	}
	return agg
}

func (a reviewAgg) mean() float64 {
	if a.n == 0 {
		return math.NaN()
	}
	return a.sum / float64(a.n)
}

func customerStates(rows []dataset.CustomerRow) map[string]string {
	states := make(map[string]string, len(rows))
	for _, c := range rows {
		if c.CustomerID == "" {
			continue
		}
		if _, ok := states[c.CustomerID]; !ok {
			states[c.CustomerID] = c.State
		}
	}
	return states
}
