package facts

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pickrace/olist-streamlit-bi/internal/config"
	"github.com/pickrace/olist-streamlit-bi/internal/dataset"
)

const ordersHeader = "order_id,customer_id,order_status,order_purchase_timestamp,order_approved_at,order_delivered_carrier_date,order_delivered_customer_date,order_estimated_delivery_date\n"

// fixtureReader builds a dataset reader over a temp dir seeded with the given
// CSV files.
func fixtureReader(t *testing.T, files map[string]string) *dataset.Reader {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	bucket, err := dataset.OpenBucket(context.Background(), config.DataConfig{Backend: "local", Dir: dir})
	require.NoError(t, err)
	t.Cleanup(func() { bucket.Close() })
	return dataset.NewReader(bucket)
}

func build(t *testing.T, files map[string]string, opts Options) Table {
	t.Helper()
	table, err := Build(context.Background(), fixtureReader(t, files), opts)
	require.NoError(t, err)
	return table
}

func factByID(t *testing.T, table Table, orderID string) Fact {
	t.Helper()
	for _, f := range table {
		if f.OrderID == orderID {
			return f
		}
	}
	t.Fatalf("order %s not in table", orderID)
	return Fact{}
}

func TestBuildEmptyDataset(t *testing.T) {
	table := build(t, nil, Options{})
	assert.True(t, table.Empty())
}

func TestBuildOrdersOnlyDegradesToDefaults(t *testing.T) {
	table := build(t, map[string]string{
		dataset.Orders.CSVName(): ordersHeader +
			"o1,c1,delivered,2018-01-01 10:00:00,,,2018-01-05 15:00:00,2018-01-10 00:00:00\n",
	}, Options{})
	require.Len(t, table, 1)

	f := table[0]
	assert.Equal(t, 0, f.ItemsCount)
	assert.Equal(t, 0.0, f.GrossRevenue)
	assert.Equal(t, 0.0, f.PaidValue)
	assert.Equal(t, UnknownCategory, f.PaymentType)
	assert.Equal(t, 1, f.Installments)
	assert.Equal(t, UnknownState, f.CustomerState)
	assert.False(t, f.HasReview())
	assert.True(t, math.IsNaN(f.ReviewScore))
}

func TestBuildDedupesOrders(t *testing.T) {
	table := build(t, map[string]string{
		dataset.Orders.CSVName(): ordersHeader +
			"o1,c1,delivered,2018-01-01 10:00:00,,,,\n" +
			"o1,c1,shipped,2018-01-01 10:00:00,,,,\n" +
			"o2,c2,delivered,2018-01-02 10:00:00,,,,\n",
	}, Options{})
	require.Len(t, table, 2)
	// First occurrence wins.
	assert.Equal(t, "delivered", factByID(t, table, "o1").Status)
}

func TestBuildAggregatesItems(t *testing.T) {
	table := build(t, map[string]string{
		dataset.Orders.CSVName(): ordersHeader +
			"o1,c1,delivered,2018-01-01 10:00:00,,,,\n",
		dataset.Items.CSVName(): "order_id,order_item_id,product_id,seller_id,price,freight_value\n" +
			"o1,1,p1,s1,10.00,2.00\n" +
			"o1,2,p2,s2,5.50,1.00\n",
	}, Options{})

	f := factByID(t, table, "o1")
	assert.Equal(t, 2, f.ItemsCount)
	assert.InDelta(t, 15.5, f.GrossRevenue, 1e-9)
	assert.InDelta(t, 3.0, f.Freight, 1e-9)
}

func TestBuildAggregatesPayments(t *testing.T) {
	table := build(t, map[string]string{
		dataset.Orders.CSVName(): ordersHeader +
			"o1,c1,delivered,2018-01-01 10:00:00,,,,\n",
		dataset.Payments.CSVName(): "order_id,payment_sequential,payment_type,payment_installments,payment_value\n" +
			"o1,1,credit_card,4,80.00\n" +
			"o1,2,voucher,1,20.00\n",
	}, Options{})

	f := factByID(t, table, "o1")
	// First type seen, max installments, summed value.
	assert.Equal(t, "credit_card", f.PaymentType)
	assert.Equal(t, 4, f.Installments)
	assert.InDelta(t, 100.0, f.PaidValue, 1e-9)
}

func TestBuildAveragesReviewScores(t *testing.T) {
	table := build(t, map[string]string{
		dataset.Orders.CSVName(): ordersHeader +
			"o1,c1,delivered,2018-01-01 10:00:00,,,,\n" +
			"o2,c2,delivered,2018-01-02 10:00:00,,,,\n",
		dataset.Reviews.CSVName(): "review_id,order_id,review_score\n" +
			"r1,o1,4\n" +
			"r2,o1,5\n",
	}, Options{})

	assert.InDelta(t, 4.5, factByID(t, table, "o1").ReviewScore, 1e-9)
	assert.True(t, math.IsNaN(factByID(t, table, "o2").ReviewScore))
}

func TestBuildJoinsCustomerState(t *testing.T) {
	table := build(t, map[string]string{
		dataset.Orders.CSVName(): ordersHeader +
			"o1,c1,delivered,2018-01-01 10:00:00,,,,\n" +
			"o2,c9,delivered,2018-01-02 10:00:00,,,,\n",
		dataset.Customers.CSVName(): "customer_id,customer_unique_id,customer_state\n" +
			"c1,u1,SP\n",
	}, Options{})

	assert.Equal(t, "SP", factByID(t, table, "o1").CustomerState)
	assert.Equal(t, UnknownState, factByID(t, table, "o2").CustomerState)
}

func TestBuildDeliveryStatus(t *testing.T) {
	table := build(t, map[string]string{
		dataset.Orders.CSVName(): ordersHeader +
			// Delivered five days before the estimate.
			"ontime,c1,delivered,2018-01-01 10:00:00,,,2018-01-05 10:00:00,2018-01-10 00:00:00\n" +
			// Delivered 36 hours past the estimate.
			"late,c2,delivered,2018-01-01 10:00:00,,,2018-01-11 12:00:00,2018-01-10 00:00:00\n" +
			// Never delivered.
			"pending,c3,shipped,2018-01-01 10:00:00,,,,2018-01-10 00:00:00\n" +
			// Delivered exactly on the estimate counts as on time.
			"exact,c4,delivered,2018-01-01 10:00:00,,,2018-01-10 00:00:00,2018-01-10 00:00:00\n",
	}, Options{})

	ontime := factByID(t, table, "ontime")
	assert.True(t, ontime.OnTime)
	assert.Equal(t, DeliveredOnTime, ontime.Delivery)
	assert.InDelta(t, 96.0, ontime.DeliveryHours, 1e-9)
	assert.Equal(t, 0.0, ontime.DelayHours)

	late := factByID(t, table, "late")
	assert.False(t, late.OnTime)
	assert.Equal(t, DeliveredLate, late.Delivery)
	assert.InDelta(t, 36.0, late.DelayHours, 1e-9)

	pending := factByID(t, table, "pending")
	assert.False(t, pending.OnTime)
	assert.Equal(t, DeliveryPending, pending.Delivery)
	assert.Equal(t, 0.0, pending.DelayHours)
	assert.True(t, math.IsNaN(pending.DeliveryHours))

	exact := factByID(t, table, "exact")
	assert.True(t, exact.OnTime)
	assert.Equal(t, DeliveredOnTime, exact.Delivery)
}

func TestBuildNonNegativeDerivations(t *testing.T) {
	table := build(t, map[string]string{
		dataset.Orders.CSVName(): ordersHeader +
			"o1,c1,delivered,2018-01-01 10:00:00,,,2018-01-05 10:00:00,2018-01-10 00:00:00\n",
		dataset.Items.CSVName(): "order_id,order_item_id,product_id,seller_id,price,freight_value\n" +
			"o1,1,p1,s1,10.00,2.00\n",
	}, Options{})

	for _, f := range table {
		assert.GreaterOrEqual(t, f.GrossRevenue, 0.0)
		assert.GreaterOrEqual(t, f.Freight, 0.0)
		assert.GreaterOrEqual(t, f.DelayHours, 0.0)
	}
}

func TestBuildCapKeepsMostRecent(t *testing.T) {
	files := map[string]string{
		dataset.Orders.CSVName(): ordersHeader +
			"old,c1,delivered,2017-06-01 10:00:00,,,,\n" +
			"mid,c2,delivered,2018-01-01 10:00:00,,,,\n" +
			"new,c3,delivered,2018-06-01 10:00:00,,,,\n" +
			"nots,c4,created,,,,,\n",
	}

	capped := build(t, files, Options{MaxOrders: 2})
	require.Len(t, capped, 2)
	assert.Equal(t, "mid", capped[0].OrderID)
	assert.Equal(t, "new", capped[1].OrderID)

	// Zero means no cap.
	assert.Len(t, build(t, files, Options{}), 4)

	// A cap above the row count is a no-op.
	assert.Len(t, build(t, files, Options{MaxOrders: 100}), 4)
}

func TestBuildYearFilter(t *testing.T) {
	table := build(t, map[string]string{
		dataset.Orders.CSVName(): ordersHeader +
			"o17,c1,delivered,2017-06-01 10:00:00,,,,\n" +
			"o18,c2,delivered,2018-01-01 10:00:00,,,,\n" +
			"nots,c3,created,,,,,\n",
	}, Options{Year: 2018})

	require.Len(t, table, 1)
	assert.Equal(t, "o18", table[0].OrderID)
}

func TestBuildPurchaseDateColumns(t *testing.T) {
	table := build(t, map[string]string{
		dataset.Orders.CSVName(): ordersHeader +
			"o1,c1,delivered,2018-03-15 23:59:59,,,,\n" +
			"nots,c2,created,,,,,\n",
	}, Options{})

	f := factByID(t, table, "o1")
	assert.Equal(t, "2018-03-15", f.PurchaseDate)
	assert.Equal(t, "2018-03", f.YearMonth)

	nots := factByID(t, table, "nots")
	assert.Equal(t, "", nots.PurchaseDate)
	assert.Equal(t, "", nots.YearMonth)
}

func TestTableBetween(t *testing.T) {
	table := Table{
		{OrderID: "a", PurchaseDate: "2018-01-01"},
		{OrderID: "b", PurchaseDate: "2018-02-01"},
		{OrderID: "c", PurchaseDate: ""},
	}

	assert.Len(t, table.Between("", ""), 3)
	got := table.Between("2018-01-15", "")
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].OrderID)
	assert.Len(t, table.Between("", "2018-01-31"), 1)
	assert.Empty(t, table.Between("2019-01-01", ""))
}

func TestTableDateRange(t *testing.T) {
	table := Table{
		{PurchaseDate: "2018-02-01"},
		{PurchaseDate: "2018-01-01"},
		{PurchaseDate: ""},
	}
	min, max := table.DateRange()
	assert.Equal(t, "2018-01-01", min)
	assert.Equal(t, "2018-02-01", max)
}
