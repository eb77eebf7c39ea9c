package domain

import "strings"

// Location is a named forecast point.
type Location struct {
	Name      string  `json:"name" toml:"name"`
	Latitude  float64 `json:"latitude" toml:"latitude"`
	Longitude float64 `json:"longitude" toml:"longitude"`
}

// Validate checks the name and coordinate ranges.
func (l Location) Validate() error {
	if strings.TrimSpace(l.Name) == "" {
		return ErrInvalidLocation
	}
	if l.Latitude < -90 || l.Latitude > 90 || l.Longitude < -180 || l.Longitude > 180 {
		return ErrInvalidLocation
	}
	return nil
}

// Weather is a daily forecast for one location.
type Weather struct {
	Location            Location `json:"location"`
	Date                Date     `json:"date"`
	Code                int      `json:"code"`
	Summary             string   `json:"summary"`
	TempMaxC            float64  `json:"temp_max_c"`
	TempMinC            float64  `json:"temp_min_c"`
	PrecipitationChance int      `json:"precipitation_chance"`
}

// WeatherSummary maps a WMO weather interpretation code to a short label.
func WeatherSummary(code int) string {
	switch {
	case code == 0:
		return "clear"
	case code <= 3:
		return "partly cloudy"
	case code == 45 || code == 48:
		return "fog"
	case code >= 51 && code <= 57:
		return "drizzle"
	case code >= 61 && code <= 67, code >= 80 && code <= 82:
		return "rain"
	case code >= 71 && code <= 77, code == 85 || code == 86:
		return "snow"
	case code >= 95:
		return "thunderstorm"
	default:
		return "unknown"
	}
}
