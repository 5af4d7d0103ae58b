package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShipmentStatus_Progress(t *testing.T) {
	cases := map[ShipmentStatus]int{
		StatusPending:        20,
		StatusPickedUp:       40,
		StatusInTransit:      60,
		StatusOutForDelivery: 80,
		StatusDelivered:      100,
		StatusCancelled:      0,
		"lost":               0,
		"":                   0,
	}
	for status, want := range cases {
		assert.Equal(t, want, status.Progress(), string(status))
	}
}

func TestShipmentStatus_ProgressIsMonotonic(t *testing.T) {
	prev := 0
	for _, s := range CanonicalOrder {
		assert.Greater(t, s.Progress(), prev)
		prev = s.Progress()
	}
}

func TestShipmentStatus_CanTransition(t *testing.T) {
	assert.True(t, StatusPending.CanTransition(StatusPickedUp))
	assert.True(t, StatusPending.CanTransition(StatusOutForDelivery))
	assert.True(t, StatusInTransit.CanTransition(StatusInTransit))
	assert.True(t, StatusOutForDelivery.CanTransition(StatusDelivered))

	assert.False(t, StatusInTransit.CanTransition(StatusPickedUp))
	assert.False(t, StatusPending.CanTransition("lost"))

	for _, s := range []ShipmentStatus{StatusPending, StatusPickedUp, StatusInTransit, StatusOutForDelivery} {
		assert.True(t, s.CanTransition(StatusCancelled), string(s))
	}
	for _, next := range append(CanonicalOrder, StatusCancelled) {
		assert.False(t, StatusDelivered.CanTransition(next))
		assert.False(t, StatusCancelled.CanTransition(next))
	}
}

func TestShipmentStatus_Label(t *testing.T) {
	assert.Equal(t, "Out for Delivery", StatusOutForDelivery.Label())
	assert.Equal(t, "mystery", ShipmentStatus("mystery").Label())
}

func TestStatsFromCounts(t *testing.T) {
	counts := map[ShipmentStatus]int64{
		StatusPending:        1200,
		StatusPickedUp:       1,
		StatusInTransit:      1,
		StatusOutForDelivery: 1,
		StatusDelivered:      5,
		StatusCancelled:      2,
	}
	assert.Equal(t, ShipmentStats{Total: 1210, Pending: 1200, InTransit: 3, Delivered: 5}, StatsFromCounts(counts))
	assert.Equal(t, ShipmentStats{}, StatsFromCounts(nil))
}

func TestDate_JSON(t *testing.T) {
	d := NewDate(time.Date(2024, time.January, 4, 17, 30, 0, 0, time.UTC))
	b, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2024-01-04"`, string(b))

	var back Date
	require.NoError(t, json.Unmarshal(b, &back))
	assert.True(t, d.Equal(back.Time))

	var empty Date
	require.NoError(t, json.Unmarshal([]byte(`""`), &empty))
	assert.True(t, empty.IsZero())

	assert.Error(t, json.Unmarshal([]byte(`"04/01/2024"`), &back))
}
