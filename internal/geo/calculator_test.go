package geo

import (
	"math"
	"testing"

	"bike-lane-sentinel-go/internal/model"
)

func TestDistanceMiles(t *testing.T) {
	calc := NewCalculator()

	// Расстояние точки до самой себя
	point := model.GeoLocation{Lat: 40.7128, Lng: -74.0060}
	if d := calc.DistanceMiles(point, point); d != 0 {
		t.Errorf("расстояние до самой себя = %f, ожидалось 0", d)
	}

	// Таймс-сквер и Юнион-сквер: примерно 2 мили
	timesSquare := model.GeoLocation{Lat: 40.7580, Lng: -73.9855}
	unionSquare := model.GeoLocation{Lat: 40.7359, Lng: -73.9911}
	d := calc.DistanceMiles(timesSquare, unionSquare)
	if math.Abs(d-1.55) > 0.2 {
		t.Errorf("расстояние Times Square - Union Square = %f миль, ожидалось около 1.55", d)
	}

	// Симметричность
	if d1, d2 := calc.DistanceMiles(timesSquare, unionSquare), calc.DistanceMiles(unionSquare, timesSquare); d1 != d2 {
		t.Errorf("расстояние не симметрично: %f != %f", d1, d2)
	}
}

func TestIsNearBikeLane(t *testing.T) {
	calc := NewCalculator()

	// Точка ровно на велодорожке Bedford Ave
	if !calc.IsNearBikeLane(model.GeoLocation{Lat: 40.7197, Lng: -73.9566}) {
		t.Error("точка на Bedford Ave должна быть рядом с велодорожкой")
	}

	// Стейтен-Айленд далеко от всех велодорожек из списка
	if calc.IsNearBikeLane(model.GeoLocation{Lat: 40.5795, Lng: -74.1502}) {
		t.Error("точка на Staten Island не должна быть рядом с велодорожкой")
	}
}

func TestDetermineArea(t *testing.T) {
	calc := NewCalculator()

	tests := []struct {
		name string
		lat  float64
		lng  float64
		want string
	}{
		{"Манхэттен", 40.7580, -73.9855, "Manhattan"},
		{"Бруклин", 40.6782, -73.9900, "Brooklyn"},
		{"Куинс", 40.7282, -73.7949, "Queens"},
		{"Бронкс", 40.8790, -73.8781, "Bronx"},
		{"Стейтен-Айленд", 40.5795, -74.1502, "Staten Island"},
		{"вне города", 41.5, -72.0, "New York City"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := calc.DetermineArea(tt.lat, tt.lng); got != tt.want {
				t.Errorf("DetermineArea(%f, %f) = %q, ожидалось %q", tt.lat, tt.lng, got, tt.want)
			}
		})
	}
}
