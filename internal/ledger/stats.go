package ledger

import (
	"math"
	"strconv"

	"github.com/julianstephens/habitkeeper/internal/models"
)

// Stats is the derived view of a habit's whole log.
type Stats struct {
	Kind          models.HabitKind
	CurrentStreak int
	LongestStreak int
	SuccessRate   int // percent, rounded
	DaysTracked   int
	TotalDone     int
	GoalsAchieved int

	// Today is nil when today has no entry yet.
	Today *TodayStats
}

// TodayStats are the dashboard cards read from today's entry.
type TodayStats struct {
	CompletedToday  int
	DayGoal         int
	CurrentProgress int
	MainGoal        int
}

// Card is one labelled statistic.
type Card struct {
	Label string
	Value string
}

// ComputeStats makes a single ascending pass over the log. The current
// streak ends at the latest tracked date, which need not be today.
func ComputeStats(h *models.Habit, today string) Stats {
	s := Stats{
		Kind:          h.Kind,
		DaysTracked:   len(h.Log),
		TotalDone:     h.TotalDone,
		GoalsAchieved: h.GoalsAchieved,
	}

	run, successes := 0, 0
	for _, d := range h.Log.Dates() {
		if h.Kind.IsSuccess(h.Log[d]) {
			run++
			successes++
			if run > s.LongestStreak {
				s.LongestStreak = run
			}
		} else {
			run = 0
		}
	}
	s.CurrentStreak = run
	if s.DaysTracked > 0 {
		s.SuccessRate = int(math.Round(100 * float64(successes) / float64(s.DaysTracked)))
	}

	if e, ok := h.Log[today]; ok {
		s.Today = &TodayStats{
			CompletedToday:  e.Completed,
			DayGoal:         e.Tries,
			CurrentProgress: e.Streak,
			MainGoal:        e.Goal,
		}
	}
	return s
}

// Cards lays the statistics out in dashboard order, with destroy habits
// worded as failures.
func (s Stats) Cards() []Card {
	destroy := s.Kind == models.KindDestroy
	label := func(build, bad string) string {
		if destroy {
			return bad
		}
		return build
	}

	var cards []Card
	if s.Today != nil {
		cards = append(cards,
			Card{label("Completed Today", "Failed Today"), strconv.Itoa(s.Today.CompletedToday)},
			Card{label("Day Goal", "Fails Allowed"), strconv.Itoa(s.Today.DayGoal)},
			Card{label("Current Progress", "Days Being Strong"), strconv.Itoa(s.Today.CurrentProgress)},
			Card{"Main Goal", strconv.Itoa(s.Today.MainGoal)},
		)
	}
	return append(cards,
		Card{label("Total Done", "Total Fails"), strconv.Itoa(s.TotalDone)},
		Card{"Success Rate", strconv.Itoa(s.SuccessRate) + "%"},
		Card{"Current Streak", strconv.Itoa(s.CurrentStreak)},
		Card{"Longest Streak", strconv.Itoa(s.LongestStreak)},
		Card{"Goals Achieved", strconv.Itoa(s.GoalsAchieved)},
		Card{"Days Tracked", strconv.Itoa(s.DaysTracked)},
	)
}
