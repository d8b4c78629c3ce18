package weather

import (
	"time"
)

// Unit is the temperature unit requested from the forecast upstream.
type Unit string

const (
	UnitCelsius    Unit = "celsius"
	UnitFahrenheit Unit = "fahrenheit"
)

// ParseUnit returns the Unit named by s. Matching is exact.
func ParseUnit(s string) (Unit, bool) {
	switch Unit(s) {
	case UnitCelsius, UnitFahrenheit:
		return Unit(s), true
	default:
		return "", false
	}
}

func (u Unit) Valid() bool {
	_, ok := ParseUnit(string(u))
	return ok
}

// Symbol returns the display suffix for temperatures in this unit.
func (u Unit) Symbol() string {
	if u == UnitFahrenheit {
		return "°F"
	}
	return "°C"
}

// Coordinates is the geocoder's answer for a place name.
type Coordinates struct {
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	ResolvedName string  `json:"name"`
	Country      string  `json:"country"`
}

// CurrentConditions is a single observation as returned by the forecast upstream.
// Temperature is in whatever unit was requested; the struct does not record it.
type CurrentConditions struct {
	Temperature      float64   `json:"temperature"`
	WindSpeedKph     float64   `json:"windspeed"`
	WindDirectionDeg int       `json:"winddirection"` // 0-359
	WeatherCode      int       `json:"weathercode"`
	ObservedAt       time.Time `json:"time"` // always UTC
}

// Report is the successful outcome of a query: the conditions plus the
// label the geocoder resolved the place name to.
type Report struct {
	Conditions CurrentConditions `json:"conditions"`
	City       string            `json:"city"`
	Country    string            `json:"country,omitempty"`
}
