package models

import (
	"fmt"
	"time"
)

// Field names mirror the stored document keys.
type Field string

const (
	FieldCompleted   Field = "completed"
	FieldTries       Field = "tries"
	FieldGoal        Field = "goal"
	FieldStreak      Field = "streak"
	FieldIsCompleted Field = "isCompleted"

	FieldName          Field = "name"
	FieldReward        Field = "reward"
	FieldTotalDone     Field = "totalDone"
	FieldGoalsAchieved Field = "goalsAchieved"
	FieldDuration      Field = "duration"
	FieldTimes         Field = "times"
)

// Patch sets one field. An empty Date addresses a habit-level field,
// otherwise the field of that day's log entry.
type Patch struct {
	Date  string
	Field Field
	Value any
}

// Path returns the dotted document path the patch writes to.
func (p Patch) Path() string {
	if p.Date == "" {
		return string(p.Field)
	}
	return "log." + p.Date + "." + string(p.Field)
}

type Patches []Patch

// EntryPatches records every field of an entry, used when a day is first materialized.
func EntryPatches(date string, e LogEntry) Patches {
	return Patches{
		{Date: date, Field: FieldCompleted, Value: e.Completed},
		{Date: date, Field: FieldIsCompleted, Value: e.IsCompleted},
		{Date: date, Field: FieldTries, Value: e.Tries},
		{Date: date, Field: FieldGoal, Value: e.Goal},
		{Date: date, Field: FieldStreak, Value: e.Streak},
	}
}

// Dates returns the distinct log dates touched, in first-seen order.
func (ps Patches) Dates() []string {
	seen := make(map[string]bool)
	var dates []string
	for _, p := range ps {
		if p.Date == "" || seen[p.Date] {
			continue
		}
		seen[p.Date] = true
		dates = append(dates, p.Date)
	}
	return dates
}

// Filter keeps the patches for which keep returns true.
func (ps Patches) Filter(keep func(Patch) bool) Patches {
	var out Patches
	for _, p := range ps {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

// Apply writes every patch to h in order.
func (h *Habit) Apply(ps Patches) error {
	for _, p := range ps {
		if err := h.applyOne(p); err != nil {
			return err
		}
	}
	return nil
}

func (h *Habit) applyOne(p Patch) error {
	if p.Date != "" {
		if h.Log == nil {
			h.Log = make(Log)
		}
		e := h.Log[p.Date]
		switch p.Field {
		case FieldCompleted:
			e.Completed = p.Value.(int)
		case FieldTries:
			e.Tries = p.Value.(int)
		case FieldGoal:
			e.Goal = p.Value.(int)
		case FieldStreak:
			e.Streak = p.Value.(int)
		case FieldIsCompleted:
			e.IsCompleted = p.Value.(bool)
		default:
			return fmt.Errorf("unknown log entry field %q", p.Field)
		}
		h.Log[p.Date] = e
		return nil
	}

	switch p.Field {
	case FieldName:
		h.Name = p.Value.(string)
	case FieldReward:
		h.Reward = p.Value.(string)
	case FieldTotalDone:
		h.TotalDone = p.Value.(int)
	case FieldGoalsAchieved:
		h.GoalsAchieved = p.Value.(int)
	case FieldDuration:
		h.Duration = p.Value.(*Duration)
	case FieldTimes:
		h.Times = p.Value.([]time.Time)
	default:
		return fmt.Errorf("unknown habit field %q", p.Field)
	}
	return nil
}
