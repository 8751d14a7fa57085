// Package tracker runs ledger operations against a document store for one
// user at a time. Every call takes the uid explicitly.
package tracker

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/julianstephens/habitkeeper/internal/errors"
	"github.com/julianstephens/habitkeeper/internal/ledger"
	"github.com/julianstephens/habitkeeper/internal/logger"
	"github.com/julianstephens/habitkeeper/internal/models"
	"github.com/julianstephens/habitkeeper/internal/storage"
	"github.com/julianstephens/habitkeeper/internal/utils"
	"github.com/julianstephens/habitkeeper/internal/validation"
)

// Ref identifies one habit of the current user.
type Ref struct {
	Kind models.HabitKind
	ID   string
}

// Result is a habit after a completion-affecting operation.
type Result struct {
	Habit   models.Habit
	Outcome ledger.Outcome
}

type Tracker struct {
	store   storage.Provider
	clock   Clock
	loc     *time.Location
	metrics *storage.Metrics
}

type Option func(*Tracker)

func WithClock(c Clock) Option {
	return func(t *Tracker) { t.clock = c }
}

func WithLocation(loc *time.Location) Option {
	return func(t *Tracker) { t.loc = loc }
}

// WithMetrics counts propagated days; store metrics come from storage.Instrument.
func WithMetrics(m *storage.Metrics) Option {
	return func(t *Tracker) { t.metrics = m }
}

func New(store storage.Provider, opts ...Option) *Tracker {
	t := &Tracker{
		store: store,
		clock: RealClock{},
		loc:   time.Local,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Now returns the current time in the tracker's location.
func (t *Tracker) Now() time.Time {
	return t.clock.Now().In(t.loc)
}

// Today returns the current local date as a log key.
func (t *Tracker) Today() string {
	return utils.DayKey(t.Now())
}

func (t *Tracker) Location() *time.Location {
	return t.loc
}

func collection(uid string, kind models.HabitKind) storage.CollectionPath {
	return storage.CollectionPath{UID: uid, Collection: kind.Collection()}
}

func requireUID(uid string) error {
	if strings.TrimSpace(uid) == "" {
		return errors.ErrNotAuthenticated
	}
	return nil
}

// CreateHabitInput describes a new habit.
type CreateHabitInput struct {
	validation.HabitInput
	Kind   models.HabitKind
	Reward string
}

func (t *Tracker) CreateHabit(ctx context.Context, uid string, in CreateHabitInput) (models.Habit, error) {
	if err := requireUID(uid); err != nil {
		return models.Habit{}, err
	}
	if in.Kind == "" {
		in.Kind = models.KindBuild
	}
	if err := validation.ValidateHabit(in.HabitInput).Err(); err != nil {
		return models.Habit{}, err
	}

	h := models.NewHabit(in.Kind, strings.TrimSpace(in.Name), in.Goal, in.Tries, in.Reward, t.Now())
	if in.Duration != nil && !in.Duration.IsZero() {
		d := *in.Duration
		h.Duration = &d
	}
	h.Times = append([]time.Time(nil), in.Times...)

	id, err := t.store.Create(ctx, collection(uid, in.Kind), storage.EncodeHabit(h))
	if err != nil {
		return models.Habit{}, errors.Storage("create", err)
	}
	h.ID = id
	logger.Info("Created habit", "id", id, "kind", in.Kind, "name", h.Name)
	return h, nil
}

func (t *Tracker) GetHabit(ctx context.Context, uid string, ref Ref) (models.Habit, error) {
	if err := requireUID(uid); err != nil {
		return models.Habit{}, err
	}
	return t.load(ctx, uid, ref)
}

func (t *Tracker) load(ctx context.Context, uid string, ref Ref) (models.Habit, error) {
	fields, err := t.store.Get(ctx, collection(uid, ref.Kind).Doc(ref.ID))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.Habit{}, errors.ErrHabitNotFound
		}
		return models.Habit{}, errors.Storage("get", err)
	}
	h, err := storage.DecodeHabit(ref.ID, ref.Kind, fields, t.loc)
	if err != nil {
		return models.Habit{}, errors.Storage("decode", err)
	}
	return h, nil
}

// ListHabits returns the user's habits of kind, oldest first.
func (t *Tracker) ListHabits(ctx context.Context, uid string, kind models.HabitKind) ([]models.Habit, error) {
	if err := requireUID(uid); err != nil {
		return nil, err
	}
	docs, err := t.store.List(ctx, collection(uid, kind))
	if err != nil {
		return nil, errors.Storage("list", err)
	}
	return t.decodeAll(kind, docs), nil
}

func (t *Tracker) decodeAll(kind models.HabitKind, docs []storage.Document) []models.Habit {
	habits := make([]models.Habit, 0, len(docs))
	for _, d := range docs {
		h, err := storage.DecodeHabit(d.ID, kind, d.Fields, t.loc)
		if err != nil {
			logger.Warn("Skipping unreadable habit document", "id", d.ID, "error", err)
			continue
		}
		habits = append(habits, h)
	}
	sort.SliceStable(habits, func(i, j int) bool {
		if !habits[i].CreatedAt.Equal(habits[j].CreatedAt) {
			return habits[i].CreatedAt.Before(habits[j].CreatedAt)
		}
		return habits[i].Name < habits[j].Name
	})
	return habits
}

// Resolve finds a habit by id or exact name (case-insensitive). An empty
// kind searches build habits first, then destroy habits.
func (t *Tracker) Resolve(ctx context.Context, uid, nameOrID string, kind models.HabitKind) (models.Habit, error) {
	if err := requireUID(uid); err != nil {
		return models.Habit{}, err
	}
	kinds := []models.HabitKind{kind}
	if kind == "" {
		kinds = []models.HabitKind{models.KindBuild, models.KindDestroy}
	}
	for _, k := range kinds {
		habits, err := t.ListHabits(ctx, uid, k)
		if err != nil {
			return models.Habit{}, err
		}
		for _, h := range habits {
			if h.ID == nameOrID || strings.EqualFold(h.Name, nameOrID) {
				return h, nil
			}
		}
	}
	return models.Habit{}, errors.ErrHabitNotFound
}

// Subscribe streams the user's habits of kind, rebuilt from every snapshot.
func (t *Tracker) Subscribe(ctx context.Context, uid string, kind models.HabitKind, onChange func([]models.Habit)) (func(), error) {
	if err := requireUID(uid); err != nil {
		return nil, err
	}
	stop, err := t.store.Subscribe(ctx, collection(uid, kind), func(docs []storage.Document) {
		onChange(t.decodeAll(kind, docs))
	})
	if err != nil {
		return nil, errors.Storage("subscribe", err)
	}
	return stop, nil
}

// Stats derives the statistics for one habit as of today.
func (t *Tracker) Stats(ctx context.Context, uid string, ref Ref) (ledger.Stats, error) {
	h, err := t.GetHabit(ctx, uid, ref)
	if err != nil {
		return ledger.Stats{}, err
	}
	return ledger.ComputeStats(&h, t.Today()), nil
}
