package state

import "github.com/hylla/famboard/internal/domain"

// AssignmentsState is the selected group's driver plan for one week.
type AssignmentsState struct {
	WeekStart   domain.Date            `json:"week_start"`
	GroupID     string                 `json:"group_id,omitempty"`
	Days        []domain.DayAssignment `json:"days"`
	Loading     bool                   `json:"loading"`
	SavingIndex int                    `json:"saving_index"`
	Saving      bool                   `json:"saving"`
	Error       string                 `json:"error,omitempty"`
}

// LoadWeekAssignments starts loading the group's week beginning at WeekStart.
type LoadWeekAssignments struct {
	WeekStart domain.Date `json:"week_start"`
}

// WeekAssignmentsLoaded delivers stored assignments for WeekStart.
type WeekAssignmentsLoaded struct {
	WeekStart   domain.Date            `json:"week_start"`
	Assignments []domain.DayAssignment `json:"assignments"`
}

// WeekAssignmentsLoadFailed reports a failed load of the week beginning at WeekStart.
type WeekAssignmentsLoadFailed struct {
	WeekStart domain.Date    `json:"week_start"`
	Failure   domain.Failure `json:"failure"`
}

// AssignDriver sets or clears (empty UserID) the driver of one slot.
type AssignDriver struct {
	Index  int         `json:"index"`
	Slot   domain.Slot `json:"slot"`
	UserID string      `json:"user_id,omitempty"`
}

// ConfirmAssignment marks the driver of one slot as confirmed.
type ConfirmAssignment struct {
	Index int         `json:"index"`
	Slot  domain.Slot `json:"slot"`
}

// SaveAssignment persists one day.
type SaveAssignment struct {
	Index int `json:"index"`
}

// AssignmentSaved delivers the stored version of a day.
type AssignmentSaved struct {
	Assignment domain.DayAssignment `json:"assignment"`
}

// AssignmentSaveFailed reports a failed save.
type AssignmentSaveFailed struct {
	Failure domain.Failure `json:"failure"`
}

func (LoadWeekAssignments) IntentName() string       { return "assignments.load_week" }
func (WeekAssignmentsLoaded) IntentName() string     { return "assignments.week_loaded" }
func (WeekAssignmentsLoadFailed) IntentName() string { return "assignments.week_load_failed" }
func (AssignDriver) IntentName() string              { return "assignments.assign_driver" }
func (ConfirmAssignment) IntentName() string         { return "assignments.confirm" }
func (SaveAssignment) IntentName() string            { return "assignments.save" }
func (AssignmentSaved) IntentName() string           { return "assignments.saved" }
func (AssignmentSaveFailed) IntentName() string      { return "assignments.save_failed" }

func (LoadWeekAssignments) assignmentIntent()       {}
func (WeekAssignmentsLoaded) assignmentIntent()     {}
func (WeekAssignmentsLoadFailed) assignmentIntent() {}
func (AssignDriver) assignmentIntent()              {}
func (ConfirmAssignment) assignmentIntent()         {}
func (SaveAssignment) assignmentIntent()            {}
func (AssignmentSaved) assignmentIntent()           {}
func (AssignmentSaveFailed) assignmentIntent()      {}

func (i WeekAssignmentsLoadFailed) failure() domain.Failure { return i.Failure }
func (i AssignmentSaveFailed) failure() domain.Failure      { return i.Failure }

// ReduceAssignments applies an assignment intent for groupID.
func ReduceAssignments(s AssignmentsState, groupID string, intent AssignmentIntent) AssignmentsState {
	switch i := intent.(type) {
	case LoadWeekAssignments:
		if i.WeekStart.IsZero() || groupID == "" {
			return s
		}
		if i.WeekStart != s.WeekStart || groupID != s.GroupID || len(s.Days) != domain.DaysPerWeek {
			s.Days = domain.ReconcileAssignmentWeek(i.WeekStart, groupID, nil)
		}
		s.WeekStart = i.WeekStart
		s.GroupID = groupID
		s.Loading = true
		s.Error = ""
		return s
	case WeekAssignmentsLoaded:
		if i.WeekStart != s.WeekStart || s.GroupID != groupID || groupID == "" {
			return s
		}
		s.Days = domain.ReconcileAssignmentWeek(s.WeekStart, groupID, i.Assignments)
		s.Loading = false
		s.Error = ""
		return s
	case WeekAssignmentsLoadFailed:
		if !s.Loading || i.WeekStart != s.WeekStart {
			return s
		}
		s.Loading = false
		s.Error = i.Failure.Message
		return s
	case AssignDriver:
		if i.Index < 0 || i.Index >= len(s.Days) || !i.Slot.IsValid() {
			return s
		}
		s.Days = replaceAt(s.Days, i.Index, s.Days[i.Index].WithAssignee(i.Slot, i.UserID))
		return s
	case ConfirmAssignment:
		if i.Index < 0 || i.Index >= len(s.Days) || !i.Slot.IsValid() {
			return s
		}
		s.Days = replaceAt(s.Days, i.Index, s.Days[i.Index].WithConfirmed(i.Slot))
		return s
	case SaveAssignment:
		if i.Index < 0 || i.Index >= len(s.Days) || s.Saving {
			return s
		}
		s.Saving = true
		s.SavingIndex = i.Index
		s.Error = ""
		return s
	case AssignmentSaved:
		if !s.Saving {
			return s
		}
		s.Saving = false
		for idx, day := range s.Days {
			if day.Date == i.Assignment.Date && i.Assignment.GroupID == s.GroupID {
				s.Days = replaceAt(s.Days, idx, i.Assignment)
				break
			}
		}
		return s
	case AssignmentSaveFailed:
		if !s.Saving {
			return s
		}
		s.Saving = false
		s.Error = i.Failure.Message
		return s
	}
	return s
}
