package dataset

import (
	"bytes"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeCharsetUTF8PassThrough(t *testing.T) {
	in := []byte("order_id,customer_state\nabc,SP\n")
	assert.Equal(t, in, decodeCharset(in))
}

func TestDecodeCharsetLatin1Fallback(t *testing.T) {
	// "café" with a raw Latin-1 0xE9 byte is invalid UTF-8.
	in := []byte{'c', 'a', 'f', 0xE9}
	out := decodeCharset(in)
	assert.Equal(t, "café", string(out))
}

func TestDecodeCharsetStripsBOM(t *testing.T) {
	in := append([]byte{0xEF, 0xBB, 0xBF}, []byte("order_id\nabc\n")...)
	assert.Equal(t, []byte("order_id\nabc\n"), decodeCharset(in))
}

func TestParseCSVHeaderIndex(t *testing.T) {
	header, records, err := parseCSV([]byte("a,b,c\n1,2,3\n4,5,6\n"))
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"a": 0, "b": 1, "c": 2}, header)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"4", "5", "6"}, records[1])
}

func TestParseCSVCorruptInputFails(t *testing.T) {
	_, _, err := parseCSV([]byte("a,b\n\"unterminated,1\n"))
	assert.Error(t, err)
}

func TestParseCSVEmptyInput(t *testing.T) {
	header, records, err := parseCSV(nil)
	require.NoError(t, err)
	assert.Nil(t, header)
	assert.Nil(t, records)
}

func TestRowAccessorsCoerceBadCells(t *testing.T) {
	header, records, err := parseCSV([]byte(
		"id,price,installments,ts\n" +
			"o1,12.5,2.0,2018-01-02 10:00:00\n" +
			"o2,not-a-number,,bad-date\n",
	))
	require.NoError(t, err)

	good := row{header: header, rec: records[0]}
	assert.Equal(t, "o1", good.str("id"))
	require.NotNil(t, good.float("price"))
	assert.Equal(t, 12.5, *good.float("price"))
	// Integer columns show up as "2.0" in some exports.
	require.NotNil(t, good.int("installments"))
	assert.Equal(t, int64(2), *good.int("installments"))
	require.NotNil(t, good.time("ts"))
	assert.Equal(t, time.Date(2018, 1, 2, 10, 0, 0, 0, time.UTC), *good.time("ts"))

	bad := row{header: header, rec: records[1]}
	assert.Nil(t, bad.float("price"))
	assert.Nil(t, bad.int("installments"))
	assert.Nil(t, bad.time("ts"))
	assert.Equal(t, "", bad.str("missing_column"))
}

func TestGunzipRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte("a,b\n1,2\n"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	out, err := gunzip(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, []byte("a,b\n1,2\n"), out)
}

func TestGunzipRejectsGarbage(t *testing.T) {
	_, err := gunzip([]byte("definitely not gzip"))
	assert.Error(t, err)
}

func TestSourceNames(t *testing.T) {
	assert.Equal(t, "olist_orders_dataset.csv", Orders.CSVName())
	assert.Equal(t, "olist_orders_dataset.csv.gz", Orders.GzipName())
	assert.Equal(t, "olist_orders_dataset.parquet", Orders.MirrorName())
	assert.Len(t, AllSources(), 7)
}
