// Package memstore implements the record store in memory. It backs tests and
// ephemeral runs; transactions work on a copy that replaces the live data on
// commit.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/okian/alsip/internal/adapters/repository"
	"github.com/okian/alsip/internal/domain/model"
)

type data struct {
	goals    map[string]model.Goal
	skills   map[string]model.Skill
	streaks  map[string]model.Streak
	outcomes map[string]model.LearningOutcome
}

func newData() *data {
	return &data{
		goals:    make(map[string]model.Goal),
		skills:   make(map[string]model.Skill),
		streaks:  make(map[string]model.Streak),
		outcomes: make(map[string]model.LearningOutcome),
	}
}

func (d *data) clone() *data {
	c := newData()
	for k, v := range d.goals {
		c.goals[k] = v
	}
	for k, v := range d.skills {
		c.skills[k] = v
	}
	for k, v := range d.streaks {
		c.streaks[k] = v
	}
	for k, v := range d.outcomes {
		c.outcomes[k] = v
	}
	return c
}

// Store is an in-memory repository.Store. Operations are serialized; InTx
// holds the lock for the duration of fn.
type Store struct {
	mu     sync.Mutex
	d      *data
	failOn map[string]error
}

var _ repository.Store = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{d: newData(), failOn: make(map[string]error)}
}

// FailOn makes the named operation (for example "InsertOutcome") return err
// until cleared with a nil err. It lets tests exercise rollback paths.
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failOn, op)
		return
	}
	s.failOn[op] = err
}

func (s *Store) view(d *data) view {
	return view{d: d, failOn: s.failOn}
}

func (s *Store) locked(fn func(v view) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.view(s.d))
}

// InTx runs fn on a copy of the data and keeps the copy only if fn succeeds.
func (s *Store) InTx(_ context.Context, fn func(tx repository.Records) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.d.clone()
	if err := fn(s.view(work)); err != nil {
		return err
	}
	s.d = work
	return nil
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() error { return nil }

func (s *Store) InsertGoal(ctx context.Context, g model.Goal) error {
	return s.locked(func(v view) error { return v.InsertGoal(ctx, g) })
}

func (s *Store) GetGoal(ctx context.Context, id string) (g model.Goal, err error) {
	err = s.locked(func(v view) error { g, err = v.GetGoal(ctx, id); return err })
	return g, err
}

func (s *Store) ListGoals(ctx context.Context, owner string, f repository.GoalFilter) (out []model.Goal, err error) {
	err = s.locked(func(v view) error { out, err = v.ListGoals(ctx, owner, f); return err })
	return out, err
}

func (s *Store) UpdateGoal(ctx context.Context, g model.Goal) error {
	return s.locked(func(v view) error { return v.UpdateGoal(ctx, g) })
}

func (s *Store) InsertSkill(ctx context.Context, sk model.Skill) error {
	return s.locked(func(v view) error { return v.InsertSkill(ctx, sk) })
}

func (s *Store) GetSkill(ctx context.Context, id string) (sk model.Skill, err error) {
	err = s.locked(func(v view) error { sk, err = v.GetSkill(ctx, id); return err })
	return sk, err
}

func (s *Store) ListSkillsByGoal(ctx context.Context, goalID string) (out []model.Skill, err error) {
	err = s.locked(func(v view) error { out, err = v.ListSkillsByGoal(ctx, goalID); return err })
	return out, err
}

func (s *Store) ListSkillsByOwner(ctx context.Context, owner string) (out []model.Skill, err error) {
	err = s.locked(func(v view) error { out, err = v.ListSkillsByOwner(ctx, owner); return err })
	return out, err
}

func (s *Store) UpdateSkill(ctx context.Context, sk model.Skill) error {
	return s.locked(func(v view) error { return v.UpdateSkill(ctx, sk) })
}

func (s *Store) GetStreak(ctx context.Context, owner string) (st model.Streak, err error) {
	err = s.locked(func(v view) error { st, err = v.GetStreak(ctx, owner); return err })
	return st, err
}

func (s *Store) InsertStreak(ctx context.Context, st model.Streak) error {
	return s.locked(func(v view) error { return v.InsertStreak(ctx, st) })
}

func (s *Store) UpdateStreak(ctx context.Context, st model.Streak) error {
	return s.locked(func(v view) error { return v.UpdateStreak(ctx, st) })
}

func (s *Store) ListStreakOwners(ctx context.Context) (out []string, err error) {
	err = s.locked(func(v view) error { out, err = v.ListStreakOwners(ctx); return err })
	return out, err
}

func (s *Store) InsertOutcome(ctx context.Context, o model.LearningOutcome) error {
	return s.locked(func(v view) error { return v.InsertOutcome(ctx, o) })
}

func (s *Store) ListOutcomes(ctx context.Context, owner string, f repository.OutcomeFilter) (out []model.LearningOutcome, err error) {
	err = s.locked(func(v view) error { out, err = v.ListOutcomes(ctx, owner, f); return err })
	return out, err
}

// view implements repository.Records on one data set without locking.
type view struct {
	d      *data
	failOn map[string]error
}

func (v view) check(op string) error {
	if err, ok := v.failOn[op]; ok {
		return fmt.Errorf("%s: %w: %v", op, model.ErrPersistence, err)
	}
	return nil
}

func notFound(op string) error {
	return fmt.Errorf("%s: %w", op, model.ErrNotFound)
}

func duplicate(op string) error {
	return fmt.Errorf("%s: %w", op, repository.ErrDuplicate)
}

func (v view) InsertGoal(_ context.Context, g model.Goal) error {
	if err := v.check("InsertGoal"); err != nil {
		return err
	}
	if _, ok := v.d.goals[g.ID]; ok {
		return duplicate("insert_goal")
	}
	g.Progress, g.DaysRemaining = 0, 0
	v.d.goals[g.ID] = g
	return nil
}

func (v view) GetGoal(_ context.Context, id string) (model.Goal, error) {
	if err := v.check("GetGoal"); err != nil {
		return model.Goal{}, err
	}
	g, ok := v.d.goals[id]
	if !ok {
		return model.Goal{}, notFound("get_goal")
	}
	return g, nil
}

func (v view) ListGoals(_ context.Context, owner string, f repository.GoalFilter) ([]model.Goal, error) {
	if err := v.check("ListGoals"); err != nil {
		return nil, err
	}
	out := []model.Goal{}
	for _, g := range v.d.goals {
		if g.Owner == owner && (!f.ActiveOnly || g.IsActive) {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (v view) UpdateGoal(_ context.Context, g model.Goal) error {
	if err := v.check("UpdateGoal"); err != nil {
		return err
	}
	old, ok := v.d.goals[g.ID]
	if !ok {
		return notFound("update_goal")
	}
	old.Title, old.Category, old.Timeline, old.Effort, old.IsActive = g.Title, g.Category, g.Timeline, g.Effort, g.IsActive
	v.d.goals[g.ID] = old
	return nil
}

func (v view) InsertSkill(_ context.Context, s model.Skill) error {
	if err := v.check("InsertSkill"); err != nil {
		return err
	}
	if _, ok := v.d.skills[s.ID]; ok {
		return duplicate("insert_skill")
	}
	if _, ok := v.d.goals[s.GoalID]; !ok {
		return fmt.Errorf("insert_skill: %w: unknown goal %s", model.ErrPersistence, s.GoalID)
	}
	v.d.skills[s.ID] = s
	return nil
}

func (v view) GetSkill(_ context.Context, id string) (model.Skill, error) {
	if err := v.check("GetSkill"); err != nil {
		return model.Skill{}, err
	}
	s, ok := v.d.skills[id]
	if !ok {
		return model.Skill{}, notFound("get_skill")
	}
	return s, nil
}

func sortSkills(skills []model.Skill) {
	sort.Slice(skills, func(i, j int) bool {
		if !skills[i].CreatedAt.Equal(skills[j].CreatedAt) {
			return skills[i].CreatedAt.Before(skills[j].CreatedAt)
		}
		return skills[i].ID < skills[j].ID
	})
}

func (v view) ListSkillsByGoal(_ context.Context, goalID string) ([]model.Skill, error) {
	if err := v.check("ListSkillsByGoal"); err != nil {
		return nil, err
	}
	out := []model.Skill{}
	for _, s := range v.d.skills {
		if s.GoalID == goalID {
			out = append(out, s)
		}
	}
	sortSkills(out)
	return out, nil
}

func (v view) ListSkillsByOwner(ctx context.Context, owner string) ([]model.Skill, error) {
	if err := v.check("ListSkillsByOwner"); err != nil {
		return nil, err
	}
	goals, err := v.ListGoals(ctx, owner, repository.GoalFilter{})
	if err != nil {
		return nil, err
	}
	out := []model.Skill{}
	for _, g := range goals {
		skills, err := v.ListSkillsByGoal(ctx, g.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, skills...)
	}
	return out, nil
}

func (v view) UpdateSkill(_ context.Context, s model.Skill) error {
	if err := v.check("UpdateSkill"); err != nil {
		return err
	}
	old, ok := v.d.skills[s.ID]
	if !ok {
		return notFound("update_skill")
	}
	s.GoalID, s.CreatedAt = old.GoalID, old.CreatedAt
	v.d.skills[s.ID] = s
	return nil
}

func (v view) GetStreak(_ context.Context, owner string) (model.Streak, error) {
	if err := v.check("GetStreak"); err != nil {
		return model.Streak{}, err
	}
	s, ok := v.d.streaks[owner]
	if !ok {
		return model.Streak{}, notFound("get_streak")
	}
	return s, nil
}

func (v view) InsertStreak(_ context.Context, s model.Streak) error {
	if err := v.check("InsertStreak"); err != nil {
		return err
	}
	if _, ok := v.d.streaks[s.Owner]; ok {
		return duplicate("insert_streak")
	}
	v.d.streaks[s.Owner] = s
	return nil
}

func (v view) UpdateStreak(_ context.Context, s model.Streak) error {
	if err := v.check("UpdateStreak"); err != nil {
		return err
	}
	if _, ok := v.d.streaks[s.Owner]; !ok {
		return notFound("update_streak")
	}
	v.d.streaks[s.Owner] = s
	return nil
}

func (v view) ListStreakOwners(_ context.Context) ([]string, error) {
	if err := v.check("ListStreakOwners"); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(v.d.streaks))
	for owner := range v.d.streaks {
		out = append(out, owner)
	}
	sort.Strings(out)
	return out, nil
}

func (v view) InsertOutcome(_ context.Context, o model.LearningOutcome) error {
	if err := v.check("InsertOutcome"); err != nil {
		return err
	}
	if _, ok := v.d.outcomes[o.ID]; ok {
		return duplicate("insert_outcome")
	}
	if _, ok := v.d.skills[o.SkillID]; !ok {
		return fmt.Errorf("insert_outcome: %w: unknown skill %s", model.ErrPersistence, o.SkillID)
	}
	v.d.outcomes[o.ID] = o
	return nil
}

func (v view) ListOutcomes(_ context.Context, owner string, f repository.OutcomeFilter) ([]model.LearningOutcome, error) {
	if err := v.check("ListOutcomes"); err != nil {
		return nil, err
	}
	byCreated := func(a, b model.LearningOutcome) bool {
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	}
	var less func(a, b model.LearningOutcome) bool
	switch f.Order {
	case repository.OrderByClarity:
		less = func(a, b model.LearningOutcome) bool {
			if a.ClarityGain != b.ClarityGain {
				return a.ClarityGain > b.ClarityGain
			}
			return byCreated(a, b)
		}
	case repository.OrderByCreated, "":
		less = byCreated
	default:
		return nil, model.Invalid("order", fmt.Sprintf("unknown ordering %q", f.Order))
	}

	out := []model.LearningOutcome{}
	for _, o := range v.d.outcomes {
		if o.Owner == owner && (f.SkillID == "" || o.SkillID == f.SkillID) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out, nil
}
