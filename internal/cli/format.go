package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/habitkeeper/internal/errors"
	"github.com/julianstephens/habitkeeper/internal/models"
	"github.com/julianstephens/habitkeeper/internal/utils"
)

// ParseKind accepts "" as "any kind".
func ParseKind(s string) (models.HabitKind, error) {
	if strings.TrimSpace(s) == "" {
		return "", nil
	}
	k, err := models.ParseHabitKind(s)
	if err != nil {
		return "", errors.Invalid("%v", err)
	}
	return k, nil
}

// Kinds expands an empty kind to both kinds.
func Kinds(k models.HabitKind) []models.HabitKind {
	if k == "" {
		return []models.HabitKind{models.KindBuild, models.KindDestroy}
	}
	return []models.HabitKind{k}
}

// ParseDuration reads Go duration syntax such as 1h30m.
func ParseDuration(s string) (*models.Duration, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return nil, errors.Invalid("invalid duration %q (expected e.g. 30m or 1h15m)", s)
	}
	md := models.DurationFromStd(d)
	return &md, nil
}

// ParseTimes reads HH:MM reminder times anchored on today.
func ParseTimes(s string, now time.Time) ([]time.Time, error) {
	times, err := utils.ParseClockTimes(s, now)
	if err != nil {
		return nil, errors.Invalid("%v", err)
	}
	return times, nil
}

// KindLabel is the user-facing name of a kind.
func KindLabel(k models.HabitKind) string {
	if k == models.KindDestroy {
		return "destroy"
	}
	return "build"
}

func KindTitle(k models.HabitKind) string {
	if k == models.KindDestroy {
		return "Destroy"
	}
	return "Build"
}

// EntryMark renders one day as a single cell.
func EntryMark(h models.Habit, e models.LogEntry, ok bool) string {
	switch {
	case !ok:
		return "·"
	case e.IsCompleted && h.Kind == models.KindDestroy:
		return "x"
	case e.IsCompleted:
		return "✓"
	case e.Completed > 0:
		return "~"
	default:
		return "○"
	}
}

// DescribeEntry summarises a day's progress.
func DescribeEntry(e models.LogEntry) string {
	state := "open"
	if e.IsCompleted {
		state = "done"
	}
	return fmt.Sprintf("%s  %d/%d attempts  streak %d/%d", state, e.Completed, e.Tries, e.Streak, e.Goal)
}
