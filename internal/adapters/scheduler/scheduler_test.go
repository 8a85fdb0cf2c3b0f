package scheduler_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/alsip/internal/adapters/scheduler"
	"github.com/okian/alsip/internal/domain/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type ownersMock struct{ mock.Mock }

func (m *ownersMock) ListStreakOwners(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	owners, _ := args.Get(0).([]string)
	return owners, args.Error(1)
}

type queueMock struct{ mock.Mock }

func (m *queueMock) Enqueue(ctx context.Context, j model.SweepJob) bool {
	return m.Called(ctx, j).Bool(0)
}

func TestTrigger(t *testing.T) {
	ctx := context.Background()
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)
	// 2024-01-02 20:00 UTC is already 2024-01-03 in Tokyo.
	clock := func() time.Time { return time.Date(2024, 1, 2, 20, 0, 0, 0, time.UTC) }

	owners := &ownersMock{}
	owners.On("ListStreakOwners", ctx).Return([]string{"u1", "u2"}, nil)

	q := &queueMock{}
	q.On("Enqueue", ctx, mock.MatchedBy(func(j model.SweepJob) bool {
		return j.Owner == "u1" && j.Date == "2024-01-03" && j.ID != ""
	})).Return(true)
	q.On("Enqueue", ctx, mock.MatchedBy(func(j model.SweepJob) bool { return j.Owner == "u2" })).Return(false)

	s := scheduler.New(owners, q, scheduler.WithLocation(tokyo), scheduler.WithClock(clock))
	n, err := s.Trigger(ctx)

	require.NoError(t, err)
	assert.Equal(t, 1, n)
	owners.AssertExpectations(t)
	q.AssertExpectations(t)
}

func TestTriggerListFailure(t *testing.T) {
	ctx := context.Background()
	owners := &ownersMock{}
	owners.On("ListStreakOwners", ctx).Return(nil, errors.New("db down"))

	_, err := scheduler.New(owners, &queueMock{}).Trigger(ctx)
	assert.Error(t, err)
}

func TestStartRejectsBadCron(t *testing.T) {
	s := scheduler.New(&ownersMock{}, &queueMock{}, scheduler.WithCron("not a cron"))
	assert.Error(t, s.Start(context.Background()))
}

func TestStartStop(t *testing.T) {
	s := scheduler.New(&ownersMock{}, &queueMock{}, scheduler.WithCron("0 3 * * *"))
	require.NoError(t, s.Start(context.Background()))
	s.Stop()
}
