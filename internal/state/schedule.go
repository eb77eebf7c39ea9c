package state

import "github.com/hylla/famboard/internal/domain"

// ScheduleState is the signed-in member's availability for one week.
type ScheduleState struct {
	WeekStart domain.Date               `json:"week_start"`
	Owner     domain.Owner              `json:"owner"`
	Entries   []domain.DayScheduleEntry `json:"entries"`
	Loading   bool                      `json:"loading"`
	Saving    bool                      `json:"saving"`
	Dirty     bool                      `json:"dirty"`
	Error     string                    `json:"error,omitempty"`
}

// LoadWeekSchedule starts loading the week beginning at WeekStart.
type LoadWeekSchedule struct {
	WeekStart domain.Date `json:"week_start"`
}

// WeekScheduleLoaded delivers stored entries for WeekStart; missing days are synthesized.
type WeekScheduleLoaded struct {
	WeekStart domain.Date               `json:"week_start"`
	Entries   []domain.DayScheduleEntry `json:"entries"`
}

// WeekScheduleLoadFailed reports a failed load of the week beginning at WeekStart.
type WeekScheduleLoadFailed struct {
	WeekStart domain.Date    `json:"week_start"`
	Failure   domain.Failure `json:"failure"`
}

// UpdateEntry edits one day; a nil availability leaves that slot untouched.
type UpdateEntry struct {
	Index   int                  `json:"index"`
	DropOff *domain.Availability `json:"drop_off,omitempty"`
	PickUp  *domain.Availability `json:"pick_up,omitempty"`
}

// SaveWeekSchedule persists the edited week.
type SaveWeekSchedule struct{}

// WeekScheduleSaved reports that the week was persisted.
type WeekScheduleSaved struct{}

// WeekScheduleSaveFailed reports a failed save.
type WeekScheduleSaveFailed struct {
	Failure domain.Failure `json:"failure"`
}

func (LoadWeekSchedule) IntentName() string       { return "schedule.load_week" }
func (WeekScheduleLoaded) IntentName() string     { return "schedule.week_loaded" }
func (WeekScheduleLoadFailed) IntentName() string { return "schedule.week_load_failed" }
func (UpdateEntry) IntentName() string            { return "schedule.update_entry" }
func (SaveWeekSchedule) IntentName() string       { return "schedule.save_week" }
func (WeekScheduleSaved) IntentName() string      { return "schedule.week_saved" }
func (WeekScheduleSaveFailed) IntentName() string { return "schedule.week_save_failed" }

func (LoadWeekSchedule) scheduleIntent()       {}
func (WeekScheduleLoaded) scheduleIntent()     {}
func (WeekScheduleLoadFailed) scheduleIntent() {}
func (UpdateEntry) scheduleIntent()            {}
func (SaveWeekSchedule) scheduleIntent()       {}
func (WeekScheduleSaved) scheduleIntent()      {}
func (WeekScheduleSaveFailed) scheduleIntent() {}

func (i WeekScheduleLoadFailed) failure() domain.Failure { return i.Failure }
func (i WeekScheduleSaveFailed) failure() domain.Failure { return i.Failure }

// ReduceSchedule applies a schedule intent for owner.
func ReduceSchedule(s ScheduleState, owner domain.Owner, intent ScheduleIntent) ScheduleState {
	switch i := intent.(type) {
	case LoadWeekSchedule:
		if i.WeekStart.IsZero() || owner.IsZero() {
			return s
		}
		if i.WeekStart != s.WeekStart || owner != s.Owner || len(s.Entries) != domain.DaysPerWeek {
			s.Entries = domain.ReconcileScheduleWeek(i.WeekStart, owner, nil)
			s.Dirty = false
		}
		s.WeekStart = i.WeekStart
		s.Owner = owner
		s.Loading = true
		s.Error = ""
		return s
	case WeekScheduleLoaded:
		if i.WeekStart != s.WeekStart || s.Owner != owner || owner.IsZero() {
			return s
		}
		s.Loading = false
		s.Error = ""
		if s.Dirty {
			// Unsaved edits win over the stored week until they are saved.
			return s
		}
		s.Entries = domain.ReconcileScheduleWeek(s.WeekStart, owner, i.Entries)
		return s
	case WeekScheduleLoadFailed:
		if !s.Loading || i.WeekStart != s.WeekStart {
			return s
		}
		s.Loading = false
		s.Error = i.Failure.Message
		return s
	case UpdateEntry:
		if i.Index < 0 || i.Index >= len(s.Entries) {
			return s
		}
		entry := s.Entries[i.Index]
		if i.DropOff != nil {
			entry.DropOff = domain.NormalizeAvailability(*i.DropOff)
		}
		if i.PickUp != nil {
			entry.PickUp = domain.NormalizeAvailability(*i.PickUp)
		}
		if entry == s.Entries[i.Index] {
			return s
		}
		s.Entries = replaceAt(s.Entries, i.Index, entry)
		s.Dirty = true
		return s
	case SaveWeekSchedule:
		if len(s.Entries) == 0 || s.Saving {
			return s
		}
		s.Saving = true
		s.Error = ""
		return s
	case WeekScheduleSaved:
		if !s.Saving {
			return s
		}
		s.Saving = false
		s.Dirty = false
		return s
	case WeekScheduleSaveFailed:
		if !s.Saving {
			return s
		}
		s.Saving = false
		s.Error = i.Failure.Message
		return s
	}
	return s
}
