package domain

import "math"

const (
	// DiscountRate applies to the service cost only, never to the pickup surcharge.
	DiscountRate = 0.20
	// DiscountPointsCost is both the redemption threshold and the amount debited.
	DiscountPointsCost int64 = 100

	earthRadiusKm = 6371.0
)

type Amounts struct {
	DiscountAmount float64
	FinalAmount    float64
}

func ComputeFinalAmount(totalCost, pickupDropoffCost float64, discountApplied bool) Amounts {
	var discount float64
	if discountApplied {
		discount = round2(totalCost * DiscountRate)
	}
	return Amounts{
		DiscountAmount: discount,
		FinalAmount:    round2(totalCost + pickupDropoffCost - discount),
	}
}

func PickupDropoffCost(distanceKm, ratePerKm float64) float64 {
	if distanceKm <= 0 || ratePerKm <= 0 {
		return 0
	}
	return round2(distanceKm * ratePerKm)
}

// RouteDistanceKm is workshop -> pickup plus dropoff -> workshop. Without
// workshop coordinates it falls back to pickup -> dropoff.
func RouteDistanceKm(w *Workshop, pickup, dropoff Location) float64 {
	if pickup.Lat == nil || pickup.Lng == nil || dropoff.Lat == nil || dropoff.Lng == nil {
		return 0
	}
	if w == nil || !w.HasCoordinates() {
		return HaversineKm(*pickup.Lat, *pickup.Lng, *dropoff.Lat, *dropoff.Lng)
	}
	return HaversineKm(w.Lat, w.Lng, *pickup.Lat, *pickup.Lng) +
		HaversineKm(*dropoff.Lat, *dropoff.Lng, w.Lat, w.Lng)
}

func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	toRad := func(d float64) float64 { return d * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// LoyaltyPointsFor returns floor(finalAmount * percent / 100), at least 1 for
// any positive amount.
func LoyaltyPointsFor(finalAmount float64, percent int) int64 {
	if finalAmount <= 0 || percent <= 0 {
		return 0
	}
	points := int64(math.Floor(finalAmount * float64(percent) / 100))
	if points < 1 {
		return 1
	}
	return points
}

// ToMinorUnits converts rupees to paisa.
func ToMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
