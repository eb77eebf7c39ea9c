package state

import (
	"slices"

	"github.com/hylla/famboard/internal/domain"
)

// DebugLogLimit bounds the intent log.
const DebugLogLimit = 50

// DebugState holds developer tooling state.
type DebugState struct {
	Enabled bool     `json:"enabled"`
	Log     []string `json:"log,omitempty"`
	Seeding bool     `json:"seeding"`
	Seeded  bool     `json:"seeded"`
	Error   string   `json:"error,omitempty"`
}

// SetDebugLogging turns the intent log on or off.
type SetDebugLogging struct {
	Enabled bool `json:"enabled"`
}

// ClearDebugLog empties the intent log.
type ClearDebugLog struct{}

// SeedDemoData fills the selected group with demo records.
type SeedDemoData struct{}

// DemoDataSeeded reports completed seeding.
type DemoDataSeeded struct{}

// DemoDataSeedFailed reports failed seeding.
type DemoDataSeedFailed struct {
	Failure domain.Failure `json:"failure"`
}

func (SetDebugLogging) IntentName() string    { return "debug.set_logging" }
func (ClearDebugLog) IntentName() string      { return "debug.clear_log" }
func (SeedDemoData) IntentName() string       { return "debug.seed_demo" }
func (DemoDataSeeded) IntentName() string     { return "debug.demo_seeded" }
func (DemoDataSeedFailed) IntentName() string { return "debug.demo_seed_failed" }

func (SetDebugLogging) debugIntent()    {}
func (ClearDebugLog) debugIntent()      {}
func (SeedDemoData) debugIntent()       {}
func (DemoDataSeeded) debugIntent()     {}
func (DemoDataSeedFailed) debugIntent() {}

func (i DemoDataSeedFailed) failure() domain.Failure { return i.Failure }

// ReduceDebug applies a debug intent.
func ReduceDebug(s DebugState, intent DebugIntent) DebugState {
	switch i := intent.(type) {
	case SetDebugLogging:
		s.Enabled = i.Enabled
		return s
	case ClearDebugLog:
		s.Log = nil
		return s
	case SeedDemoData:
		if s.Seeding {
			return s
		}
		s.Seeding = true
		s.Error = ""
		return s
	case DemoDataSeeded:
		s.Seeding = false
		s.Seeded = true
		return s
	case DemoDataSeedFailed:
		s.Seeding = false
		s.Error = i.Failure.Message
		return s
	}
	return s
}

// recordIntent appends name to the bounded log when logging is enabled.
func recordIntent(s DebugState, name string) DebugState {
	if !s.Enabled {
		return s
	}
	log := append(slices.Clone(s.Log), name)
	if len(log) > DebugLogLimit {
		log = slices.Clone(log[len(log)-DebugLogLimit:])
	}
	s.Log = log
	return s
}
