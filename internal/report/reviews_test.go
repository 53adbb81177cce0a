package report

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pickrace/olist-streamlit-bi/internal/facts"
)

func TestScoreDistribution(t *testing.T) {
	table := facts.Table{
		{OrderID: "a", ReviewScore: 5},
		{OrderID: "b", ReviewScore: 5},
		{OrderID: "c", ReviewScore: 1},
		{OrderID: "d", ReviewScore: math.NaN()},
	}

	stats := ScoreDistribution(table)
	assert.Equal(t, 3, stats.Scored)
	assert.Equal(t, 1, stats.Unscored)
	require.NotNil(t, stats.AvgScore)
	assert.InDelta(t, 11.0/3.0, *stats.AvgScore, 1e-9)

	require.Len(t, stats.Buckets, 2)
	assert.Equal(t, 1.0, stats.Buckets[0].Score)
	assert.Equal(t, 5.0, stats.Buckets[1].Score)
	assert.Equal(t, 2, stats.Buckets[1].Orders)
	assert.InDelta(t, 2.0/3.0, stats.Buckets[1].Share, 1e-9)
}

func TestScoreDistributionAllUnscored(t *testing.T) {
	stats := ScoreDistribution(facts.Table{{OrderID: "a", ReviewScore: math.NaN()}})
	assert.Nil(t, stats.AvgScore)
	assert.Equal(t, 1, stats.Unscored)
	assert.Empty(t, stats.Buckets)
}

func TestDeliveryByScore(t *testing.T) {
	table := facts.Table{
		{OrderID: "a", ReviewScore: 5, OnTime: true, Delivery: facts.DeliveredOnTime, DeliveryHours: 100},
		{OrderID: "b", ReviewScore: 5, OnTime: false, Delivery: facts.DeliveredLate, DeliveryHours: 300, DelayHours: 48},
		{OrderID: "c", ReviewScore: 1, OnTime: false, Delivery: facts.DeliveryPending, DeliveryHours: math.NaN()},
		{OrderID: "d", ReviewScore: math.NaN(), OnTime: true, Delivery: facts.DeliveredOnTime, DeliveryHours: 50},
	}

	rows := DeliveryByScore(table)
	require.Len(t, rows, 2)

	one := rows[0]
	assert.Equal(t, 1.0, one.Score)
	assert.Equal(t, 1, one.Orders)
	// The only score-1 order is pending, so delivery means are undefined.
	assert.Nil(t, one.AvgDeliveryHours)
	assert.Nil(t, one.AvgDelayHours)

	five := rows[1]
	assert.Equal(t, 5.0, five.Score)
	assert.Equal(t, 2, five.Orders)
	require.NotNil(t, five.OnTimeRate)
	assert.InDelta(t, 0.5, *five.OnTimeRate, 1e-9)
	require.NotNil(t, five.AvgDeliveryHours)
	assert.InDelta(t, 200.0, *five.AvgDeliveryHours, 1e-9)
	require.NotNil(t, five.AvgDelayHours)
	assert.InDelta(t, 24.0, *five.AvgDelayHours, 1e-9)
}
