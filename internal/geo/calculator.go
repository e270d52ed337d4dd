package geo

import (
	"math"

	"bike-lane-sentinel-go/internal/model"
)

// BikeLaneHotspot участок велодорожки с повышенным числом нарушений
type BikeLaneHotspot struct {
	Name        string
	Location    model.GeoLocation
	RadiusMiles float64
}

// Calculator для географических вычислений
type Calculator struct {
	hotspots []BikeLaneHotspot
}

// NewCalculator создает новый калькулятор со встроенным списком
// велодорожек NYC, рядом с которыми часто паркуются на полосе
func NewCalculator() *Calculator {
	return &Calculator{
		hotspots: []BikeLaneHotspot{
			{Name: "Bedford Ave, Brooklyn", Location: model.GeoLocation{Lat: 40.7197, Lng: -73.9566}, RadiusMiles: 0.5},
			{Name: "1st Ave, Manhattan", Location: model.GeoLocation{Lat: 40.7282, Lng: -73.9942}, RadiusMiles: 0.5},
			{Name: "8th Ave, Manhattan", Location: model.GeoLocation{Lat: 40.7328, Lng: -74.0027}, RadiusMiles: 0.5},
			{Name: "Queens Blvd, Queens", Location: model.GeoLocation{Lat: 40.7334, Lng: -73.9272}, RadiusMiles: 0.5},
			{Name: "Grand Concourse, Bronx", Location: model.GeoLocation{Lat: 40.8301, Lng: -73.9187}, RadiusMiles: 0.5},
		},
	}
}

// DistanceMiles вычисляет расстояние между двумя точками в милях
// Использует формулу гаверсинуса
func (c *Calculator) DistanceMiles(point1, point2 model.GeoLocation) float64 {
	const earthRadiusMiles = 3958.8

	// Преобразуем градусы в радианы
	lat1Rad := point1.Lat * math.Pi / 180
	lng1Rad := point1.Lng * math.Pi / 180
	lat2Rad := point2.Lat * math.Pi / 180
	lng2Rad := point2.Lng * math.Pi / 180

	// Разности координат
	deltaLat := lat2Rad - lat1Rad
	deltaLng := lng2Rad - lng1Rad

	// Формула гаверсинуса
	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLng/2)*math.Sin(deltaLng/2)

	chord := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMiles * chord
}

// IsNearBikeLane проверяет, находится ли точка рядом с одной из велодорожек
func (c *Calculator) IsNearBikeLane(location model.GeoLocation) bool {
	for _, hotspot := range c.hotspots {
		if c.DistanceMiles(location, hotspot.Location) <= hotspot.RadiusMiles {
			return true
		}
	}
	return false
}

// DetermineArea определяет боро по координатам простой проверкой bounding box
func (c *Calculator) DetermineArea(lat, lng float64) string {
	switch {
	case lat > 40.7 && lat < 40.9 && lng > -74.03 && lng < -73.9:
		return "Manhattan"
	case lat > 40.6 && lat < 40.75 && lng > -74.05 && lng < -73.85:
		return "Brooklyn"
	case lat > 40.65 && lat < 40.85 && lng > -73.96 && lng < -73.7:
		return "Queens"
	case lat > 40.8 && lat < 40.92 && lng > -73.94 && lng < -73.8:
		return "Bronx"
	case lat > 40.5 && lat < 40.65 && lng > -74.25 && lng < -74.05:
		return "Staten Island"
	}
	return "New York City"
}
