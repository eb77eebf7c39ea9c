package domain

import (
	"fmt"
	"slices"
	"strings"
)

// SlotStatusKind classifies one slot of a day assignment.
type SlotStatusKind int

// SlotStatusKind values.
const (
	SlotConfirmed SlotStatusKind = iota
	SlotUnconfirmed
	SlotNoAssignee
)

// SlotStatus is the derived status of one slot; Name is set for assigned slots.
type SlotStatus struct {
	Kind SlotStatusKind
	Name string
}

// SlotStatus derives the status of slot, resolving the driver's display name from names.
func (a DayAssignment) SlotStatus(slot Slot, names map[string]string) SlotStatus {
	userID := a.Assignee(slot)
	if userID == "" {
		return SlotStatus{Kind: SlotNoAssignee}
	}
	name := strings.TrimSpace(names[userID])
	if name == "" {
		name = userID
	}
	if !a.Confirmed(slot) {
		return SlotStatus{Kind: SlotUnconfirmed, Name: name}
	}
	return SlotStatus{Kind: SlotConfirmed, Name: name}
}

// Severity ranks dashboard warnings; higher is more urgent.
type Severity int

// Severity values.
const (
	SeverityUnconfirmed Severity = iota + 1
	SeverityNoAssignee
)

// String returns the severity label.
func (s Severity) String() string {
	switch s {
	case SeverityNoAssignee:
		return "no_assignee"
	case SeverityUnconfirmed:
		return "unconfirmed"
	default:
		return "unknown"
	}
}

// Warning flags one slot of one day that still needs attention.
type Warning struct {
	Date     Date     `json:"date"`
	Slot     Slot     `json:"slot"`
	Severity Severity `json:"severity"`
	DayLabel string   `json:"day_label"`
	Assignee string   `json:"assignee,omitempty"`
}

// Message returns a one-line description of the warning.
func (w Warning) Message() string {
	switch w.Severity {
	case SeverityNoAssignee:
		return fmt.Sprintf("%s %s: no driver assigned", w.DayLabel, w.Slot.Label())
	default:
		return fmt.Sprintf("%s %s: %s has not confirmed", w.DayLabel, w.Slot.Label(), w.Assignee)
	}
}

// DayLabel names day relative to today: "today", "tomorrow", or the weekday name.
func DayLabel(day, today Date) string {
	switch today.DaysUntil(day) {
	case 0:
		return "today"
	case 1:
		return "tomorrow"
	default:
		return day.Weekday().String()
	}
}

// DeriveWarnings lists every non-confirmed slot of week, most severe first.
// Within a severity the original day and slot order is kept.
func DeriveWarnings(week []DayAssignment, names map[string]string, today Date) []Warning {
	out := make([]Warning, 0)
	for _, day := range week {
		for _, slot := range Slots {
			status := day.SlotStatus(slot, names)
			var severity Severity
			switch status.Kind {
			case SlotNoAssignee:
				severity = SeverityNoAssignee
			case SlotUnconfirmed:
				severity = SeverityUnconfirmed
			default:
				continue
			}
			out = append(out, Warning{
				Date:     day.Date,
				Slot:     slot,
				Severity: severity,
				DayLabel: DayLabel(day.Date, today),
				Assignee: status.Name,
			})
		}
	}
	slices.SortStableFunc(out, func(a, b Warning) int {
		return int(b.Severity) - int(a.Severity)
	})
	return out
}
