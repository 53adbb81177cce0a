package dataset

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/klauspost/compress/gzip"
	"golang.org/x/text/encoding/charmap"
)

// timeLayout is the timestamp format used across all Olist CSV files.
const timeLayout = "2006-01-02 15:04:05"

var bomPrefix = []byte{0xEF, 0xBB, 0xBF}

// decodeCharset returns UTF-8 text. Input that fails UTF-8 validation is
// re-decoded as Latin-1, which maps every byte to a rune and cannot fail,
// so this is a guaranteed fallback rather than a retry chain.
func decodeCharset(data []byte) []byte {
	data = bytes.TrimPrefix(data, bomPrefix)
	if utf8.Valid(data) {
		return data
	}
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		// Latin-1 decoding has no invalid inputs.
		return data
	}
	return out
}

// gunzip decompresses a gzip-compressed payload.
func gunzip(data []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open gzip stream: %w", err)
	}
	defer zr.Close()

	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("decompress: %w", err)
	}
	return out, nil
}

// parseCSV splits raw bytes into a header index and data records. A file
// that cannot be parsed at all is the one error this package propagates.
func parseCSV(data []byte) (map[string]int, [][]string, error) {
	rd := csv.NewReader(bytes.NewReader(decodeCharset(data)))
	rd.FieldsPerRecord = -1

	records, err := rd.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) == 0 {
		return nil, nil, nil
	}

	header := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		header[name] = i
	}
	return header, records[1:], nil
}

// row is one CSV record with header-based cell access. Cell accessors coerce
// malformed values to missing markers instead of failing, mirroring how the
// rest of the pipeline treats bad numeric and date cells.
type row struct {
	header map[string]int
	rec    []string
}

func (r row) cell(col string) (string, bool) {
	i, ok := r.header[col]
	if !ok || i >= len(r.rec) {
		return "", false
	}
	return r.rec[i], true
}

// str returns the cell value, or "" when the column is absent.
func (r row) str(col string) string {
	v, _ := r.cell(col)
	return v
}

// float returns the cell as a float, or nil when absent or unparseable.
func (r row) float(col string) *float64 {
	v, ok := r.cell(col)
	if !ok || v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil
	}
	return &f
}

// int returns the cell as an integer, or nil when absent or unparseable.
func (r row) int(col string) *int64 {
	v, ok := r.cell(col)
	if !ok || v == "" {
		return nil
	}
	// Some exports carry integer columns as "2.0".
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil
	}
	n := int64(f)
	return &n
}

// time returns the cell as a timestamp, or nil when absent or unparseable.
func (r row) time(col string) *time.Time {
	v, ok := r.cell(col)
	if !ok || v == "" {
		return nil
	}
	t, err := time.Parse(timeLayout, v)
	if err != nil {
		return nil
	}
	return &t
}

// converter builds one typed row from a CSV record.
type converter[T any] func(row) T

func convertRows[T any](header map[string]int, records [][]string, conv converter[T]) []T {
	rows := make([]T, 0, len(records))
	for _, rec := range records {
		rows = append(rows, conv(row{header: header, rec: rec}))
	}
	return rows
}

func orderFromRow(r row) OrderRow {
	return OrderRow{
		OrderID:     r.str("order_id"),
		CustomerID:  r.str("customer_id"),
		Status:      r.str("order_status"),
		PurchasedAt: r.time("order_purchase_timestamp"),
		ApprovedAt:  r.time("order_approved_at"),
		CarrierAt:   r.time("order_delivered_carrier_date"),
		DeliveredAt: r.time("order_delivered_customer_date"),
		EstimatedAt: r.time("order_estimated_delivery_date"),
	}
}

func itemFromRow(r row) ItemRow {
	return ItemRow{
		OrderID:   r.str("order_id"),
		ProductID: r.str("product_id"),
		SellerID:  r.str("seller_id"),
		Price:     r.float("price"),
		Freight:   r.float("freight_value"),
	}
}

func paymentFromRow(r row) PaymentRow {
	return PaymentRow{
		OrderID:      r.str("order_id"),
		Type:         r.str("payment_type"),
		Installments: r.int("payment_installments"),
		Value:        r.float("payment_value"),
	}
}

func reviewFromRow(r row) ReviewRow {
	return ReviewRow{
		OrderID: r.str("order_id"),
		Score:   r.float("review_score"),
	}
}

func customerFromRow(r row) CustomerRow {
	return CustomerRow{
		CustomerID: r.str("customer_id"),
		State:      r.str("customer_state"),
	}
}

func productFromRow(r row) ProductRow {
	return ProductRow{
		ProductID: r.str("product_id"),
		Category:  r.str("product_category_name"),
		WeightG:   r.float("product_weight_g"),
		LengthCM:  r.float("product_length_cm"),
		HeightCM:  r.float("product_height_cm"),
		WidthCM:   r.float("product_width_cm"),
	}
}

func sellerFromRow(r row) SellerRow {
	return SellerRow{
		SellerID: r.str("seller_id"),
		City:     r.str("seller_city"),
		State:    r.str("seller_state"),
	}
}
