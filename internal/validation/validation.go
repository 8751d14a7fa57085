package validation

import (
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/habitkeeper/internal/constants"
	"github.com/julianstephens/habitkeeper/internal/errors"
	"github.com/julianstephens/habitkeeper/internal/models"
)

// ProblemType identifies a rejected input field
type ProblemType string

const (
	ProblemMissingName     ProblemType = "missing_name"
	ProblemInvalidGoal     ProblemType = "invalid_goal"
	ProblemInvalidTries    ProblemType = "invalid_tries"
	ProblemTimesMismatch   ProblemType = "times_mismatch"
	ProblemInvalidDuration ProblemType = "invalid_duration"
	ProblemInvalidDate     ProblemType = "invalid_date"
	ProblemInvalidEntry    ProblemType = "invalid_entry"
)

// Problem is one rejected field with a user-facing description
type Problem struct {
	Type        ProblemType
	Description string
}

// Result collects every problem found in one input
type Result struct {
	Problems []Problem
}

func (r *Result) add(t ProblemType, desc string) {
	r.Problems = append(r.Problems, Problem{Type: t, Description: desc})
}

// HasProblems returns true if any field was rejected
func (r *Result) HasProblems() bool {
	return len(r.Problems) > 0
}

// Has reports whether a problem of type t was found
func (r *Result) Has(t ProblemType) bool {
	for _, p := range r.Problems {
		if p.Type == t {
			return true
		}
	}
	return false
}

// Err returns nil or an ErrInvalidInput listing every problem
func (r *Result) Err() error {
	if !r.HasProblems() {
		return nil
	}
	descs := make([]string, len(r.Problems))
	for i, p := range r.Problems {
		descs[i] = p.Description
	}
	return errors.Invalid("%s", strings.Join(descs, "; "))
}

// HabitInput is the user-supplied part of a habit on create or edit
type HabitInput struct {
	Name     string
	Goal     int
	Tries    int
	Times    []time.Time
	Duration *models.Duration
}

// ValidateHabit applies the creation form rules: a name, a positive goal,
// positive tries, one reminder time per try when reminders are set, and a
// non-zero duration when one is given.
func ValidateHabit(in HabitInput) *Result {
	r := &Result{}
	if strings.TrimSpace(in.Name) == "" {
		r.add(ProblemMissingName, "habit name is required")
	}
	if in.Goal <= 0 {
		r.add(ProblemInvalidGoal, "goal must be a positive number")
	}
	if in.Tries <= 0 {
		r.add(ProblemInvalidTries, "number of tries must be a positive number")
	}
	if len(in.Times) > 0 && in.Tries > 0 && len(in.Times) != in.Tries {
		r.add(ProblemTimesMismatch, "set one reminder time for each try")
	}
	if in.Duration != nil {
		validateDuration(r, *in.Duration)
	}
	return r
}

func validateDuration(r *Result, d models.Duration) {
	switch {
	case d.Hours < 0 || d.Minutes < 0 || d.Seconds < 0:
		r.add(ProblemInvalidDuration, "duration parts must not be negative")
	case d.Minutes >= 60 || d.Seconds >= 60:
		r.add(ProblemInvalidDuration, "duration minutes and seconds must be below 60")
	case d.IsZero():
		r.add(ProblemInvalidDuration, "please enter a valid duration")
	}
}

// ValidateGoal checks a goal supplied when committing a new one
func ValidateGoal(goal int) error {
	r := &Result{}
	if goal <= 0 {
		r.add(ProblemInvalidGoal, "goal must be a positive number")
	}
	return r.Err()
}

// ValidateDay checks that day is a well-formed date and not after today
func ValidateDay(day, today string) error {
	r := &Result{}
	if _, err := time.Parse(constants.DateFormat, day); err != nil {
		r.add(ProblemInvalidDate, "invalid date format: "+day+" (expected YYYY-MM-DD)")
	} else if day > today {
		r.add(ProblemInvalidDate, "date "+day+" is in the future")
	}
	return r.Err()
}

// CheckHabit looks for log entries no ledger operation could have produced.
// It backs the doctor command.
func CheckHabit(h models.Habit) *Result {
	r := &Result{}
	created := h.CreatedDay()
	for _, d := range h.Log.Dates() {
		e := h.Log[d]
		if _, err := time.Parse(constants.DateFormat, d); err != nil {
			r.add(ProblemInvalidDate, fmt.Sprintf("%s: log key %q is not a date", h.Name, d))
			continue
		}
		if d < created {
			r.add(ProblemInvalidEntry, fmt.Sprintf("%s: %s is before the habit was created", h.Name, d))
		}
		switch {
		case e.Tries < 1:
			r.add(ProblemInvalidEntry, fmt.Sprintf("%s: %s has %d tries", h.Name, d, e.Tries))
		case e.Goal < 1:
			r.add(ProblemInvalidEntry, fmt.Sprintf("%s: %s has goal %d", h.Name, d, e.Goal))
		case e.Streak < 0 || e.Completed < 0:
			r.add(ProblemInvalidEntry, fmt.Sprintf("%s: %s has a negative count", h.Name, d))
		case e.Completed > e.Tries:
			r.add(ProblemInvalidEntry, fmt.Sprintf("%s: %s has %d of %d attempts", h.Name, d, e.Completed, e.Tries))
		}
	}
	if h.TotalDone < 0 || h.GoalsAchieved < 0 {
		r.add(ProblemInvalidEntry, fmt.Sprintf("%s: negative totals", h.Name))
	}
	return r
}
