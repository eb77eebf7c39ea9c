package state

import (
	"slices"

	"github.com/hylla/famboard/internal/domain"
)

// HomeState is the dashboard: warnings for the current week and today's weather.
type HomeState struct {
	Today          domain.Date      `json:"today"`
	Warnings       []domain.Warning `json:"warnings"`
	Forecasts      []domain.Weather `json:"forecasts"`
	Loading        bool             `json:"loading"`
	WeatherLoading bool             `json:"weather_loading"`
	Error          string           `json:"error,omitempty"`
	WeatherError   string           `json:"weather_error,omitempty"`
}

// LoadHome refreshes the dashboard for Today.
type LoadHome struct {
	Today domain.Date `json:"today"`
}

// WarningsDerived delivers warnings recomputed from the current assignments.
type WarningsDerived struct {
	Warnings []domain.Warning `json:"warnings"`
}

// WeatherLoaded delivers forecasts for the configured locations.
type WeatherLoaded struct {
	Forecasts []domain.Weather `json:"forecasts"`
}

// WeatherLoadFailed reports a failed forecast fetch.
type WeatherLoadFailed struct {
	Failure domain.Failure `json:"failure"`
}

func (LoadHome) IntentName() string          { return "home.load" }
func (WarningsDerived) IntentName() string   { return "home.warnings_derived" }
func (WeatherLoaded) IntentName() string     { return "home.weather_loaded" }
func (WeatherLoadFailed) IntentName() string { return "home.weather_load_failed" }

func (LoadHome) homeIntent()          {}
func (WarningsDerived) homeIntent()   {}
func (WeatherLoaded) homeIntent()     {}
func (WeatherLoadFailed) homeIntent() {}

func (i WeatherLoadFailed) failure() domain.Failure { return i.Failure }

// ReduceHome applies a home intent.
func ReduceHome(s HomeState, intent HomeIntent) HomeState {
	switch i := intent.(type) {
	case LoadHome:
		if i.Today.IsZero() {
			return s
		}
		s.Today = i.Today
		s.Loading = true
		s.WeatherLoading = true
		s.Error = ""
		s.WeatherError = ""
		return s
	case WarningsDerived:
		s.Warnings = slices.Clone(i.Warnings)
		s.Loading = false
		s.Error = ""
		return s
	case WeatherLoaded:
		s.Forecasts = slices.Clone(i.Forecasts)
		s.WeatherLoading = false
		s.WeatherError = ""
		return s
	case WeatherLoadFailed:
		s.WeatherLoading = false
		s.WeatherError = i.Failure.Message
		return s
	}
	return s
}
