package storage

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/julianstephens/habitkeeper/internal/constants"
	"github.com/julianstephens/habitkeeper/internal/models"
)

// EncodeHabit converts a habit to its stored document shape. The id and kind
// are not stored: the id is the document key and the kind is its collection.
func EncodeHabit(h models.Habit) Fields {
	log := make(map[string]any, len(h.Log))
	for d, e := range h.Log {
		log[d] = encodeEntry(e)
	}
	return Fields{
		"name":            h.Name,
		"reward":          h.Reward,
		"totalDone":       h.TotalDone,
		"goalsAchieved":   h.GoalsAchieved,
		"duration":        encodeDuration(h.Duration),
		"times":           encodeTimes(h.Times),
		"backgroundColor": h.BackgroundColor,
		"createdAt":       h.CreatedAt,
		"log":             log,
	}
}

func encodeEntry(e models.LogEntry) map[string]any {
	return map[string]any{
		"completed":   e.Completed,
		"isCompleted": e.IsCompleted,
		"tries":       e.Tries,
		"goal":        e.Goal,
		"streak":      e.Streak,
	}
}

func encodeDuration(d *models.Duration) any {
	if d == nil || d.IsZero() {
		return nil
	}
	return map[string]any{
		"hours":   d.Hours,
		"minutes": d.Minutes,
		"seconds": d.Seconds,
	}
}

func encodeTimes(ts []time.Time) []any {
	out := make([]any, len(ts))
	for i, t := range ts {
		out[i] = t
	}
	return out
}

// PatchUpdates translates field patches to dotted-path updates. A later
// patch to the same path wins, matching the order they were applied in.
func PatchUpdates(ps models.Patches) map[string]any {
	updates := make(map[string]any, len(ps))
	for _, p := range ps {
		var v any = p.Value
		switch val := p.Value.(type) {
		case *models.Duration:
			v = encodeDuration(val)
		case []time.Time:
			v = encodeTimes(val)
		}
		updates[p.Path()] = v
	}
	return updates
}

// DecodeHabit rebuilds a habit from a stored document. Numbers may arrive as
// any integer or float type and times as time.Time or RFC 3339 strings,
// depending on the backend. Times are converted to loc.
func DecodeHabit(id string, kind models.HabitKind, f Fields, loc *time.Location) (models.Habit, error) {
	if loc == nil {
		loc = time.Local
	}
	h := models.Habit{
		ID:              id,
		Kind:            kind,
		BackgroundColor: constants.DefaultBackgroundColor,
		Log:             make(models.Log),
	}

	var err error
	if h.Name, err = stringField(f, "name"); err != nil {
		return h, err
	}
	if h.Reward, err = stringField(f, "reward"); err != nil {
		return h, err
	}
	if h.TotalDone, err = intField(f, "totalDone"); err != nil {
		return h, err
	}
	if h.GoalsAchieved, err = intField(f, "goalsAchieved"); err != nil {
		return h, err
	}
	if c, err := stringField(f, "backgroundColor"); err != nil {
		return h, err
	} else if c != "" {
		h.BackgroundColor = c
	}

	if raw, ok := f["createdAt"]; ok && raw != nil {
		t, err := toTime(raw)
		if err != nil {
			return h, fmt.Errorf("field createdAt: %w", err)
		}
		h.CreatedAt = t.In(loc)
	}

	if raw, ok := f["duration"]; ok && raw != nil {
		m, ok := asMap(raw)
		if !ok {
			return h, fmt.Errorf("field duration: expected map, got %T", raw)
		}
		var d models.Duration
		if d.Hours, err = intField(m, "hours"); err != nil {
			return h, err
		}
		if d.Minutes, err = intField(m, "minutes"); err != nil {
			return h, err
		}
		if d.Seconds, err = intField(m, "seconds"); err != nil {
			return h, err
		}
		if !d.IsZero() {
			h.Duration = &d
		}
	}

	if raw, ok := f["times"]; ok && raw != nil {
		times, err := toTimes(raw)
		if err != nil {
			return h, fmt.Errorf("field times: %w", err)
		}
		for i := range times {
			times[i] = times[i].In(loc)
		}
		h.Times = times
	}

	if raw, ok := f["log"]; ok && raw != nil {
		m, ok := asMap(raw)
		if !ok {
			return h, fmt.Errorf("field log: expected map, got %T", raw)
		}
		for date, rawEntry := range m {
			em, ok := asMap(rawEntry)
			if !ok {
				return h, fmt.Errorf("log entry %s: expected map, got %T", date, rawEntry)
			}
			e, err := decodeEntry(em)
			if err != nil {
				return h, fmt.Errorf("log entry %s: %w", date, err)
			}
			h.Log[date] = e
		}
	}

	if h.CreatedAt.IsZero() {
		if dates := h.Log.Dates(); len(dates) > 0 {
			if t, err := time.ParseInLocation(constants.DateFormat, dates[0], loc); err == nil {
				h.CreatedAt = t
			}
		}
	}
	return h, nil
}

func decodeEntry(m map[string]any) (models.LogEntry, error) {
	var e models.LogEntry
	var err error
	if e.Completed, err = intField(m, "completed"); err != nil {
		return e, err
	}
	if e.Tries, err = intField(m, "tries"); err != nil {
		return e, err
	}
	if e.Goal, err = intField(m, "goal"); err != nil {
		return e, err
	}
	if e.Streak, err = intField(m, "streak"); err != nil {
		return e, err
	}
	if raw, ok := m["isCompleted"]; ok && raw != nil {
		b, ok := raw.(bool)
		if !ok {
			return e, fmt.Errorf("field isCompleted: expected bool, got %T", raw)
		}
		e.IsCompleted = b
	}
	return e, nil
}

func stringField(m map[string]any, key string) (string, error) {
	raw, ok := m[key]
	if !ok || raw == nil {
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("field %s: expected string, got %T", key, raw)
	}
	return s, nil
}

func intField(m map[string]any, key string) (int, error) {
	raw, ok := m[key]
	if !ok || raw == nil {
		return 0, nil
	}
	n, err := toInt(raw)
	if err != nil {
		return 0, fmt.Errorf("field %s: %w", key, err)
	}
	return n, nil
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("expected integer, got %v", n)
		}
		return int(n), nil
	case json.Number:
		i, err := n.Int64()
		return int(i), err
	default:
		return 0, fmt.Errorf("expected number, got %T", v)
	}
}

func toTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case string:
		return time.Parse(time.RFC3339Nano, t)
	default:
		return time.Time{}, fmt.Errorf("expected timestamp, got %T", v)
	}
}

func toTimes(v any) ([]time.Time, error) {
	switch ts := v.(type) {
	case []time.Time:
		return append([]time.Time(nil), ts...), nil
	case []any:
		out := make([]time.Time, 0, len(ts))
		for _, raw := range ts {
			t, err := toTime(raw)
			if err != nil {
				return nil, err
			}
			out = append(out, t)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected list, got %T", v)
	}
}
