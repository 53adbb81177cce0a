package dataset

import "time"

// Row structs carry the columns the pipeline consumes. Pointer fields are
// nullable: a nil value means the cell was absent or unparseable in the raw
// file. The parquet tags double as the mirror schema, so mirrored reads
// project exactly these columns.

// OrderRow is one row of the orders table, keyed by OrderID.
type OrderRow struct {
	OrderID     string     `parquet:"order_id"`
	CustomerID  string     `parquet:"customer_id"`
	Status      string     `parquet:"order_status"`
	PurchasedAt *time.Time `parquet:"order_purchase_timestamp,optional,timestamp(millisecond)"`
	ApprovedAt  *time.Time `parquet:"order_approved_at,optional,timestamp(millisecond)"`
	CarrierAt   *time.Time `parquet:"order_delivered_carrier_date,optional,timestamp(millisecond)"`
	DeliveredAt *time.Time `parquet:"order_delivered_customer_date,optional,timestamp(millisecond)"`
	EstimatedAt *time.Time `parquet:"order_estimated_delivery_date,optional,timestamp(millisecond)"`
}

// ItemRow is one order line item; an order may have many.
type ItemRow struct {
	OrderID   string   `parquet:"order_id"`
	ProductID string   `parquet:"product_id"`
	SellerID  string   `parquet:"seller_id"`
	Price     *float64 `parquet:"price,optional"`
	Freight   *float64 `parquet:"freight_value,optional"`
}

// PaymentRow is one payment against an order; an order may have many.
type PaymentRow struct {
	OrderID      string   `parquet:"order_id"`
	Type         string   `parquet:"payment_type"`
	Installments *int64   `parquet:"payment_installments,optional"`
	Value        *float64 `parquet:"payment_value,optional"`
}

// ReviewRow is one review; duplicates per order exist in the raw data.
type ReviewRow struct {
	OrderID string   `parquet:"order_id"`
	Score   *float64 `parquet:"review_score,optional"`
}

// CustomerRow is the customer dimension, keyed by CustomerID.
type CustomerRow struct {
	CustomerID string `parquet:"customer_id"`
	State      string `parquet:"customer_state"`
}

// ProductRow is the product dimension, keyed by ProductID.
type ProductRow struct {
	ProductID string   `parquet:"product_id"`
	Category  string   `parquet:"product_category_name"`
	WeightG   *float64 `parquet:"product_weight_g,optional"`
	LengthCM  *float64 `parquet:"product_length_cm,optional"`
	HeightCM  *float64 `parquet:"product_height_cm,optional"`
	WidthCM   *float64 `parquet:"product_width_cm,optional"`
}

// SellerRow is the seller dimension, keyed by SellerID.
type SellerRow struct {
	SellerID string `parquet:"seller_id"`
	City     string `parquet:"seller_city"`
	State    string `parquet:"seller_state"`
}
