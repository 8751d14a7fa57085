package models

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/julianstephens/habitkeeper/internal/constants"
)

// HabitKind decides what counts as a successful day.
type HabitKind string

const (
	// KindBuild habits succeed on days the action was performed.
	KindBuild HabitKind = "build"
	// KindDestroy habits succeed on days the action was avoided.
	KindDestroy HabitKind = "destroy"
)

// ParseHabitKind accepts "build"/"destroy" and the collection names.
func ParseHabitKind(s string) (HabitKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "build", "good", constants.GoodHabitsCollection:
		return KindBuild, nil
	case "destroy", "bad", constants.BadHabitsCollection:
		return KindDestroy, nil
	default:
		return "", fmt.Errorf("unknown habit kind %q (expected build or destroy)", s)
	}
}

// Collection returns the per-user collection holding habits of this kind.
func (k HabitKind) Collection() string {
	if k == KindDestroy {
		return constants.BadHabitsCollection
	}
	return constants.GoodHabitsCollection
}

// IsSuccess reports whether the entry counts toward a streak for this kind.
func (k HabitKind) IsSuccess(e LogEntry) bool {
	if k == KindDestroy {
		return !e.IsCompleted
	}
	return e.IsCompleted
}

// LogEntry is one habit's state for one calendar day.
type LogEntry struct {
	Completed   int  `json:"completed"`
	Tries       int  `json:"tries"`
	Goal        int  `json:"goal"`
	Streak      int  `json:"streak"`
	IsCompleted bool `json:"isCompleted"`
}

// Log maps YYYY-MM-DD dates to entries.
type Log map[string]LogEntry

// Dates returns the log keys in ascending order. Zero-padded ISO dates sort
// lexicographically in calendar order.
func (l Log) Dates() []string {
	dates := make([]string, 0, len(l))
	for d := range l {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}

// Clone returns an independent copy of the log.
func (l Log) Clone() Log {
	out := make(Log, len(l))
	for d, e := range l {
		out[d] = e
	}
	return out
}

// Duration is the optional target length of a timed habit.
type Duration struct {
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
	Seconds int `json:"seconds"`
}

// IsZero reports whether the duration is unset.
func (d Duration) IsZero() bool {
	return d.Hours == 0 && d.Minutes == 0 && d.Seconds == 0
}

// Std converts to a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d.Hours)*time.Hour + time.Duration(d.Minutes)*time.Minute + time.Duration(d.Seconds)*time.Second
}

// DurationFromStd splits a time.Duration into hours, minutes and seconds.
func DurationFromStd(td time.Duration) Duration {
	total := int(td.Round(time.Second) / time.Second)
	return Duration{
		Hours:   total / 3600,
		Minutes: (total % 3600) / 60,
		Seconds: total % 60,
	}
}

func (d Duration) String() string {
	return d.Std().String()
}

type Habit struct {
	ID              string
	Kind            HabitKind
	Name            string
	Reward          string
	CreatedAt       time.Time // local midnight of the creation day
	TotalDone       int
	GoalsAchieved   int
	Duration        *Duration
	Times           []time.Time
	BackgroundColor string
	Log             Log
}

// CreatedDay returns the creation date as a log key.
func (h *Habit) CreatedDay() string {
	return h.CreatedAt.Format(constants.DateFormat)
}

// Entry returns the entry for date and whether it exists.
func (h *Habit) Entry(date string) (LogEntry, bool) {
	e, ok := h.Log[date]
	return e, ok
}

// LatestDate returns the newest tracked date, or "" for an empty log.
func (h *Habit) LatestDate() string {
	latest := ""
	for d := range h.Log {
		if d > latest {
			latest = d
		}
	}
	return latest
}

// Clone returns a deep copy so callers can mutate without aliasing the source.
func (h Habit) Clone() Habit {
	out := h
	out.Log = h.Log.Clone()
	if h.Duration != nil {
		d := *h.Duration
		out.Duration = &d
	}
	if h.Times != nil {
		out.Times = append([]time.Time(nil), h.Times...)
	}
	return out
}

// NewHabit builds a habit with its creation day seeded.
func NewHabit(kind HabitKind, name string, goal, tries int, reward string, now time.Time) Habit {
	created := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return Habit{
		Kind:            kind,
		Name:            name,
		Reward:          reward,
		CreatedAt:       created,
		BackgroundColor: constants.DefaultBackgroundColor,
		Log: Log{
			created.Format(constants.DateFormat): {
				Tries: tries,
				Goal:  goal,
			},
		},
	}
}
