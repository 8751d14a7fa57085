package ledger

import (
	"fmt"

	"github.com/julianstephens/habitkeeper/internal/errors"
)

// GoalState is the celebration cycle of one habit.
type GoalState int

const (
	InProgress GoalState = iota
	GoalReached
	Resolved
)

func (s GoalState) String() string {
	switch s {
	case InProgress:
		return "in_progress"
	case GoalReached:
		return "goal_reached"
	case Resolved:
		return "resolved"
	default:
		return fmt.Sprintf("GoalState(%d)", int(s))
	}
}

// Resolution records how a reached goal was settled.
type Resolution int

const (
	ResolutionNone Resolution = iota
	ResolutionReset
	ResolutionNewGoal
)

func (r Resolution) String() string {
	switch r {
	case ResolutionReset:
		return "reset"
	case ResolutionNewGoal:
		return "new_goal"
	default:
		return "none"
	}
}

// GoalDetector tracks InProgress -> GoalReached -> Resolved for one habit.
// The zero value is InProgress.
type GoalDetector struct {
	state      GoalState
	date       string
	resolution Resolution
}

func (g *GoalDetector) State() GoalState { return g.state }

// Date is the log date that reached the goal.
func (g *GoalDetector) Date() string { return g.date }

func (g *GoalDetector) Resolution() Resolution { return g.resolution }

// Observe feeds an operation outcome to the detector. Observing another
// reached goal while one is pending keeps the first trigger date.
func (g *GoalDetector) Observe(o Outcome) {
	if !o.GoalReached {
		return
	}
	switch g.state {
	case InProgress, Resolved:
		g.state = GoalReached
		g.date = o.Date
		g.resolution = ResolutionNone
	}
}

// Reset settles a reached goal by discarding it.
func (g *GoalDetector) Reset() error {
	return g.resolve(ResolutionReset)
}

// CommitNewGoal settles a reached goal by starting a new one.
func (g *GoalDetector) CommitNewGoal() error {
	return g.resolve(ResolutionNewGoal)
}

func (g *GoalDetector) resolve(r Resolution) error {
	if g.state != GoalReached {
		return errors.Invalid("cannot resolve goal in state %s", g.state)
	}
	g.state = Resolved
	g.resolution = r
	return nil
}

// Acknowledge returns a resolved detector to InProgress.
func (g *GoalDetector) Acknowledge() error {
	if g.state != Resolved {
		return errors.Invalid("cannot acknowledge goal in state %s", g.state)
	}
	g.state = InProgress
	g.date = ""
	g.resolution = ResolutionNone
	return nil
}
