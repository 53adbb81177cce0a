// Package report computes the dashboard aggregations over a facts table.
// Nullable statistics (rates and means that can be undefined on an empty
// slice) are pointers so they serialize as JSON null rather than NaN.
package report

import (
	"sort"

	"github.com/pickrace/olist-streamlit-bi/internal/facts"
)

// Summary holds the headline KPIs of a facts slice.
type Summary struct {
	Orders     int      `json:"orders"`
	Revenue    float64  `json:"revenue"`
	AOV        float64  `json:"aov"`
	OnTimeRate *float64 `json:"on_time_rate"`
	FromDate   string   `json:"from_date,omitempty"`
	ToDate     string   `json:"to_date,omitempty"`
}

// Summarize computes order count, gross revenue, average order value and
// the on-time delivery rate. Pending orders count as not on time in the
// rate, matching the facts contract.
func Summarize(t facts.Table) Summary {
	s := Summary{Orders: len(t)}

	onTime := 0
	for _, f := range t {
		s.Revenue += f.GrossRevenue
		if f.OnTime {
			onTime++
		}
	}
	if s.Orders > 0 {
		s.AOV = s.Revenue / float64(s.Orders)
		s.OnTimeRate = ratio(onTime, s.Orders)
	}
	s.FromDate, s.ToDate = t.DateRange()
	return s
}

// DailyPoint is one day of the orders/revenue trend.
type DailyPoint struct {
	Date       string   `json:"date"`
	Orders     int      `json:"orders"`
	Revenue    float64  `json:"revenue"`
	OnTimeRate *float64 `json:"on_time_rate"`

	// 7-day trailing means; null for the first six days.
	OrdersMA7  *float64 `json:"orders_ma7"`
	RevenueMA7 *float64 `json:"revenue_ma7"`
}

// DailyTrend groups the table by purchase date, sorted ascending, with a
// 7-day moving average once enough days exist. Rows without a purchase date
// are skipped.
func DailyTrend(t facts.Table) []DailyPoint {
	type dayAgg struct {
		orders  int
		revenue float64
		onTime  int
	}
	byDay := make(map[string]dayAgg)
	for _, f := range t {
		if f.PurchaseDate == "" {
			continue
		}
		a := byDay[f.PurchaseDate]
		a.orders++
		a.revenue += f.GrossRevenue
		if f.OnTime {
			a.onTime++
		}
		byDay[f.PurchaseDate] = a
	}

	days := make([]DailyPoint, 0, len(byDay))
	for date, a := range byDay {
		days = append(days, DailyPoint{
			Date:       date,
			Orders:     a.orders,
			Revenue:    a.revenue,
			OnTimeRate: ratio(a.onTime, a.orders),
		})
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })

	const window = 7
	for i := window - 1; i < len(days); i++ {
		var orders, revenue float64
		for j := i - window + 1; j <= i; j++ {
			orders += float64(days[j].Orders)
			revenue += days[j].Revenue
		}
		days[i].OrdersMA7 = fptr(orders / window)
		days[i].RevenueMA7 = fptr(revenue / window)
	}
	return days
}

// MonthlyPoint is one calendar month of the trend.
type MonthlyPoint struct {
	Month   string  `json:"month"` // "2006-01"
	Orders  int     `json:"orders"`
	Revenue float64 `json:"revenue"`
	AOV     float64 `json:"aov"`
}

// MonthlyTrend groups the table by purchase year-month, sorted ascending.
func MonthlyTrend(t facts.Table) []MonthlyPoint {
	type monthAgg struct {
		orders  int
		revenue float64
	}
	byMonth := make(map[string]monthAgg)
	for _, f := range t {
		if f.YearMonth == "" {
			continue
		}
		a := byMonth[f.YearMonth]
		a.orders++
		a.revenue += f.GrossRevenue
		byMonth[f.YearMonth] = a
	}

	months := make([]MonthlyPoint, 0, len(byMonth))
	for ym, a := range byMonth {
		p := MonthlyPoint{Month: ym, Orders: a.orders, Revenue: a.revenue}
		if a.orders > 0 {
			p.AOV = a.revenue / float64(a.orders)
		}
		months = append(months, p)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Month < months[j].Month })
	return months
}

func fptr(v float64) *float64 {
	return &v
}

func ratio(part, total int) *float64 {
	if total == 0 {
		return nil
	}
	return fptr(float64(part) / float64(total))
}
