// Package dataset reads the raw Olist tables from a blob bucket, preferring
// parquet mirrors over the CSV originals.
package dataset

import "strings"

// Source is a logical dataset table name.
type Source string

const (
	Orders    Source = "orders"
	Items     Source = "items"
	Payments  Source = "payments"
	Reviews   Source = "reviews"
	Customers Source = "customers"
	Products  Source = "products"
	Sellers   Source = "sellers"
)

// csvFiles maps logical sources to the canonical Olist file names.
var csvFiles = map[Source]string{
	Orders:    "olist_orders_dataset.csv",
	Items:     "olist_order_items_dataset.csv",
	Payments:  "olist_order_payments_dataset.csv",
	Customers: "olist_customers_dataset.csv",
	Reviews:   "olist_order_reviews_dataset.csv",
	Products:  "olist_products_dataset.csv",
	Sellers:   "olist_sellers_dataset.csv",
}

// AllSources lists every known source in a fixed order.
func AllSources() []Source {
	return []Source{Orders, Items, Payments, Reviews, Customers, Products, Sellers}
}

// CSVName returns the raw CSV file name for the source.
func (s Source) CSVName() string {
	return csvFiles[s]
}

// GzipName returns the gzip-compressed CSV file name for the source.
func (s Source) GzipName() string {
	return csvFiles[s] + ".gz"
}

// MirrorName returns the parquet mirror file name: same stem, different
// extension, alongside the raw file.
func (s Source) MirrorName() string {
	return strings.TrimSuffix(csvFiles[s], ".csv") + ".parquet"
}
