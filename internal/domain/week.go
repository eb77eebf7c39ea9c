package domain

import (
	"slices"

	"github.com/google/uuid"
)

// DaysPerWeek is the length of every reconciled window.
const DaysPerWeek = 7

// recordNamespace seeds deterministic ids for synthesized week records.
var recordNamespace = uuid.MustParse("5b0f4c1e-6f0a-4f57-9d0c-2f2c8a9e7b31")

// WeekRecord is a record keyed by calendar day and owner.
type WeekRecord interface {
	RecordDate() Date
	RecordOwner() Owner
}

// WeekRecordID derives a stable id for a synthesized record of kind for owner on date.
func WeekRecordID(kind string, owner Owner, date Date) string {
	key := kind + "|" + owner.GroupID + "|" + owner.UserID + "|" + date.String()
	return uuid.NewSHA1(recordNamespace, []byte(key)).String()
}

// WeekDates returns the seven days starting at start.
func WeekDates(start Date) []Date {
	out := make([]Date, 0, DaysPerWeek)
	for i := range DaysPerWeek {
		out = append(out, start.AddDays(i))
	}
	return out
}

// ReconcileWeek merges loaded records into a seven-day skeleton for owner starting at start.
// Each day takes the first loaded record for that day and owner; missing days are synthesized.
// Records belonging to other owners or falling outside the window are dropped.
func ReconcileWeek[T WeekRecord](start Date, owner Owner, loaded []T, synthesize func(Date, Owner) T) []T {
	byDate := make(map[Date]T, DaysPerWeek)
	for _, rec := range loaded {
		if rec.RecordOwner() != owner {
			continue
		}
		day := rec.RecordDate()
		if _, ok := byDate[day]; ok {
			continue
		}
		byDate[day] = rec
	}

	out := make([]T, 0, DaysPerWeek)
	for _, day := range WeekDates(start) {
		if rec, ok := byDate[day]; ok {
			out = append(out, rec)
			continue
		}
		out = append(out, synthesize(day, owner))
	}
	return out
}

// ReconcileScheduleWeek reconciles one member's availability for a week.
func ReconcileScheduleWeek(start Date, owner Owner, loaded []DayScheduleEntry) []DayScheduleEntry {
	return ReconcileWeek(start, owner, loaded, NewScheduleEntry)
}

// ReconcileAssignmentWeek reconciles a group's driver assignments for a week.
func ReconcileAssignmentWeek(start Date, groupID string, loaded []DayAssignment) []DayAssignment {
	return ReconcileWeek(start, GroupOwner(groupID), loaded, func(day Date, owner Owner) DayAssignment {
		return NewDayAssignment(day, owner.GroupID)
	})
}

// SortByDate orders records ascending by day, keeping input order for equal days.
func SortByDate[T WeekRecord](records []T) {
	slices.SortStableFunc(records, func(a, b T) int {
		return a.RecordDate().Compare(b.RecordDate())
	})
}
