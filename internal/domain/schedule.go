package domain

import (
	"slices"
	"strings"
)

// Availability is one member's answer for a drop-off or pick-up slot.
type Availability string

// Availability values.
const (
	AvailabilityNotSet Availability = "notSet"
	AvailabilityOK     Availability = "ok"
	AvailabilityNG     Availability = "ng"
)

var validAvailability = []Availability{AvailabilityNotSet, AvailabilityOK, AvailabilityNG}

// IsValid reports whether a is a known availability value.
func (a Availability) IsValid() bool {
	return slices.Contains(validAvailability, a)
}

// NormalizeAvailability maps empty or unknown input to AvailabilityNotSet.
func NormalizeAvailability(a Availability) Availability {
	a = Availability(strings.TrimSpace(string(a)))
	if !a.IsValid() {
		return AvailabilityNotSet
	}
	return a
}

// Slot names one of the two daily driving slots.
type Slot string

// Slot values in display order.
const (
	SlotDropOff Slot = "dropOff"
	SlotPickUp  Slot = "pickUp"
)

// Slots lists every slot in display order.
var Slots = []Slot{SlotDropOff, SlotPickUp}

// IsValid reports whether s is a known slot.
func (s Slot) IsValid() bool {
	return s == SlotDropOff || s == SlotPickUp
}

// Label returns the human-readable slot name.
func (s Slot) Label() string {
	switch s {
	case SlotDropOff:
		return "drop-off"
	case SlotPickUp:
		return "pick-up"
	default:
		return string(s)
	}
}

// DayScheduleEntry is one member's availability for one day in a group.
type DayScheduleEntry struct {
	ID      string       `json:"id"`
	Date    Date         `json:"date"`
	GroupID string       `json:"group_id"`
	UserID  string       `json:"user_id"`
	DropOff Availability `json:"drop_off"`
	PickUp  Availability `json:"pick_up"`
}

// RecordDate implements WeekRecord.
func (e DayScheduleEntry) RecordDate() Date { return e.Date }

// RecordOwner implements WeekRecord.
func (e DayScheduleEntry) RecordOwner() Owner {
	return Owner{GroupID: e.GroupID, UserID: e.UserID}
}

// NewScheduleEntry synthesizes an unset entry with a deterministic id.
func NewScheduleEntry(date Date, owner Owner) DayScheduleEntry {
	return DayScheduleEntry{
		ID:      WeekRecordID("schedule", owner, date),
		Date:    date,
		GroupID: owner.GroupID,
		UserID:  owner.UserID,
		DropOff: AvailabilityNotSet,
		PickUp:  AvailabilityNotSet,
	}
}

// DayAssignment records who drives each slot of one day for a group.
type DayAssignment struct {
	ID               string `json:"id"`
	Date             Date   `json:"date"`
	GroupID          string `json:"group_id"`
	DropOffUserID    string `json:"drop_off_user_id,omitempty"`
	PickUpUserID     string `json:"pick_up_user_id,omitempty"`
	DropOffConfirmed bool   `json:"drop_off_confirmed"`
	PickUpConfirmed  bool   `json:"pick_up_confirmed"`
}

// RecordDate implements WeekRecord.
func (a DayAssignment) RecordDate() Date { return a.Date }

// RecordOwner implements WeekRecord.
func (a DayAssignment) RecordOwner() Owner { return GroupOwner(a.GroupID) }

// NewDayAssignment synthesizes an unassigned day with a deterministic id.
func NewDayAssignment(date Date, groupID string) DayAssignment {
	return DayAssignment{
		ID:      WeekRecordID("assignment", GroupOwner(groupID), date),
		Date:    date,
		GroupID: groupID,
	}
}

// Assignee returns the driver for a slot, empty when nobody is assigned.
func (a DayAssignment) Assignee(slot Slot) string {
	switch slot {
	case SlotDropOff:
		return a.DropOffUserID
	case SlotPickUp:
		return a.PickUpUserID
	default:
		return ""
	}
}

// Confirmed reports whether the slot's driver confirmed.
func (a DayAssignment) Confirmed(slot Slot) bool {
	switch slot {
	case SlotDropOff:
		return a.DropOffConfirmed
	case SlotPickUp:
		return a.PickUpConfirmed
	default:
		return false
	}
}

// WithAssignee returns a copy with the slot's driver replaced; changing the driver clears confirmation.
func (a DayAssignment) WithAssignee(slot Slot, userID string) DayAssignment {
	userID = strings.TrimSpace(userID)
	switch slot {
	case SlotDropOff:
		if a.DropOffUserID != userID {
			a.DropOffConfirmed = false
		}
		a.DropOffUserID = userID
	case SlotPickUp:
		if a.PickUpUserID != userID {
			a.PickUpConfirmed = false
		}
		a.PickUpUserID = userID
	}
	return a
}

// WithConfirmed returns a copy with the slot confirmed; a slot without a driver cannot be confirmed.
func (a DayAssignment) WithConfirmed(slot Slot) DayAssignment {
	if a.Assignee(slot) == "" {
		return a
	}
	switch slot {
	case SlotDropOff:
		a.DropOffConfirmed = true
	case SlotPickUp:
		a.PickUpConfirmed = true
	}
	return a
}
