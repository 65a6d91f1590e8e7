package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeFinalAmount(t *testing.T) {
	cases := []struct {
		name      string
		total     float64
		pickup    float64
		discount  bool
		wantDisc  float64
		wantFinal float64
	}{
		{name: "plain", total: 1000, wantFinal: 1000},
		{name: "discount", total: 1000, discount: true, wantDisc: 200, wantFinal: 800},
		{name: "pickup not discounted", total: 1000, pickup: 150, discount: true, wantDisc: 200, wantFinal: 950},
		{name: "rounding", total: 333.33, discount: true, wantDisc: 66.67, wantFinal: 266.66},
		{name: "free", total: 0, discount: true, wantFinal: 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ComputeFinalAmount(tc.total, tc.pickup, tc.discount)
			assert.InDelta(t, tc.wantDisc, got.DiscountAmount, 0.001)
			assert.InDelta(t, tc.wantFinal, got.FinalAmount, 0.001)
		})
	}
}

func TestBookingRepriceKeepsInvariant(t *testing.T) {
	b := &Booking{TotalCost: 1000, PickupDropoffCost: 120, DiscountApplied: true}
	b.Reprice()
	assert.Equal(t, 200.0, b.DiscountAmount)
	assert.Equal(t, b.TotalCost+b.PickupDropoffCost-b.DiscountAmount, b.FinalAmount)

	b.TotalCost = 1500
	b.Reprice()
	assert.Equal(t, 300.0, b.DiscountAmount)
	assert.Equal(t, 1320.0, b.FinalAmount)

	b.DiscountApplied = false
	b.ClearPickup()
	b.Reprice()
	assert.Zero(t, b.DiscountAmount)
	assert.Equal(t, b.TotalCost, b.FinalAmount)
}

func TestPickupDropoffCost(t *testing.T) {
	assert.Equal(t, 0.0, PickupDropoffCost(0, 20))
	assert.Equal(t, 0.0, PickupDropoffCost(5, 0))
	assert.Equal(t, 105.5, PickupDropoffCost(5.275, 20))
}

func TestRouteDistanceKm(t *testing.T) {
	lat1, lng1 := 27.7172, 85.3240
	lat2, lng2 := 27.6710, 85.4298
	pickup := Location{Address: "a", Lat: &lat1, Lng: &lng1}
	dropoff := Location{Address: "b", Lat: &lat2, Lng: &lng2}

	direct := RouteDistanceKm(nil, pickup, dropoff)
	assert.InDelta(t, 11.5, direct, 0.5)

	w := &Workshop{Lat: lat1, Lng: lng1}
	assert.InDelta(t, 2*direct, RouteDistanceKm(w, dropoff, dropoff), 0.01)
	assert.InDelta(t, direct, RouteDistanceKm(w, pickup, dropoff), 0.01)

	assert.Zero(t, RouteDistanceKm(w, Location{Address: "x"}, dropoff))
}

func TestLoyaltyPointsFor(t *testing.T) {
	assert.Equal(t, int64(80), LoyaltyPointsFor(800, 10))
	assert.Equal(t, int64(1), LoyaltyPointsFor(5, 10))
	assert.Equal(t, int64(0), LoyaltyPointsFor(0, 10))
	assert.Equal(t, int64(99), LoyaltyPointsFor(999.99, 10))
}

func TestBookingStatusTransitions(t *testing.T) {
	assert.True(t, BookingPending.CanTransitionTo(BookingInProgress))
	assert.True(t, BookingPending.CanTransitionTo(BookingCancelled))
	assert.True(t, BookingInProgress.CanTransitionTo(BookingCompleted))
	assert.False(t, BookingInProgress.CanTransitionTo(BookingPending))
	assert.False(t, BookingCompleted.CanTransitionTo(BookingCancelled))
	assert.False(t, BookingCancelled.CanTransitionTo(BookingPending))

	assert.True(t, BookingCompleted.IsTerminal())
	assert.True(t, BookingCancelled.IsTerminal())
	assert.False(t, BookingInProgress.IsTerminal())

	st, ok := ParseBookingStatus("in progress")
	assert.True(t, ok)
	assert.Equal(t, BookingInProgress, st)
	_, ok = ParseBookingStatus("Shipped")
	assert.False(t, ok)
}
