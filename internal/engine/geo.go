package engine

import (
	"math"
	"time"
)

const EarthRadiusKm = 6371.0

type GeoPoint struct {
	Lat, Lon float64
}

// BoundingBox is a lat/lon rectangle in degrees.
type BoundingBox struct {
	MinLat, MaxLat float64
	MinLon, MaxLon float64
}

// Contains reports whether the point lies inside the box, edges included.
func (b BoundingBox) Contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}

// BoundingBoxAround returns the smallest lat/lon box holding every point
// within km of (lat, lon). ok is false when that region reaches a pole or
// crosses the antimeridian; no rectangle prefilter applies then.
func BoundingBoxAround(lat, lon, km float64) (box BoundingBox, ok bool) {
	if km <= 0 {
		return BoundingBox{}, false
	}
	dist := km / EarthRadiusKm // radians
	dLat := dist * 180 / math.Pi

	box.MinLat, box.MaxLat = lat-dLat, lat+dLat
	if box.MinLat <= -90 || box.MaxLat >= 90 {
		return BoundingBox{}, false
	}

	x := math.Sin(dist) / math.Cos(lat*math.Pi/180)
	if x >= 1 {
		return BoundingBox{}, false
	}
	dLon := math.Asin(x) * 180 / math.Pi

	box.MinLon, box.MaxLon = lon-dLon, lon+dLon
	if box.MinLon < -180 || box.MaxLon > 180 {
		return BoundingBox{}, false
	}
	return box, true
}

// HaversineKm is the great-circle distance between two lat/lon points in degrees.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

// AgeAt is the whole years between birth and now. A birthday not yet
// reached this year subtracts one.
func AgeAt(birth, now time.Time) int {
	by, bm, bd := birth.Date()
	ny, nm, nd := now.Date()

	age := ny - by
	if nm < bm || (nm == bm && nd < bd) {
		age--
	}
	return age
}

// BirthBounds turns an age range into birth_date bounds such that
// AgeAt(birth, now) >= minAge exactly when birth < bornBefore, and
// AgeAt(birth, now) <= maxAge exactly when birth >= bornOnOrAfter.
// Birth dates are read as UTC calendar days. A zero age disables its bound.
func BirthBounds(now time.Time, minAge, maxAge int) (bornBefore, bornOnOrAfter time.Time) {
	y, m, d := now.Date()
	if minAge > 0 {
		bornBefore = firstDayAfter(y-minAge, m, d)
	}
	if maxAge > 0 {
		bornOnOrAfter = firstDayAfter(y-maxAge-1, m, d)
	}
	return bornBefore, bornOnOrAfter
}

// firstDayAfter is the first day of year whose month/day sorts after (m, d).
// Feb 29 in a common year yields Mar 1.
func firstDayAfter(year int, m time.Month, d int) time.Time {
	t := time.Date(year, m, d, 0, 0, 0, 0, time.UTC)
	if t.Month() != m {
		return time.Date(year, m+1, 1, 0, 0, 0, 0, time.UTC)
	}
	return t.AddDate(0, 0, 1)
}
