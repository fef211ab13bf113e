package station

import "math"

const earthRadiusKm = 6371.0

// calculateDistance returns the great-circle distance in kilometres.
func calculateDistance(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

func validateCoordinates(lat, lon float64) error {
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return &InvalidCoordinatesError{Field: "latitude", Value: lat}
	}
	if math.IsNaN(lon) || lon < -180 || lon > 180 {
		return &InvalidCoordinatesError{Field: "longitude", Value: lon}
	}
	return nil
}
