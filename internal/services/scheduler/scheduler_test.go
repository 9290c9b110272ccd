package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/medical-education/internal/models"
)

type SubscriptionsMock struct{ mock.Mock }

func (m *SubscriptionsMock) Expire(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *SubscriptionsMock) UpcomingRenewals(ctx context.Context) ([]models.RenewalNotice, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.RenewalNotice), args.Error(1)
}

func (m *SubscriptionsMock) MarkReminded(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type PublisherMock struct{ mock.Mock }

func (m *PublisherMock) Publish(ctx context.Context, message any) error {
	return m.Called(ctx, message).Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestRunOnce(t *testing.T) {
	first := models.RenewalNotice{SubscriptionID: "s1", Email: "a@example.com", PackageName: "Pro"}
	second := models.RenewalNotice{SubscriptionID: "s2", Email: "b@example.com", PackageName: "Pro"}

	tests := []struct {
		name  string
		setup func(*SubscriptionsMock, *PublisherMock)
		want  int
	}{
		{
			name: "publishes every notice",
			setup: func(s *SubscriptionsMock, p *PublisherMock) {
				s.On("Expire", mock.Anything).Return(int64(2), nil)
				s.On("UpcomingRenewals", mock.Anything).Return([]models.RenewalNotice{first, second}, nil)
				s.On("MarkReminded", mock.Anything, "s1").Return(nil).Once()
				s.On("MarkReminded", mock.Anything, "s2").Return(nil).Once()
				p.On("Publish", mock.Anything, first).Return(nil)
				p.On("Publish", mock.Anything, second).Return(nil)
			},
			want: 2,
		},
		{
			name: "expire failure does not stop reminders",
			setup: func(s *SubscriptionsMock, p *PublisherMock) {
				s.On("Expire", mock.Anything).Return(int64(0), errors.New("db error"))
				s.On("UpcomingRenewals", mock.Anything).Return([]models.RenewalNotice{first}, nil)
				s.On("MarkReminded", mock.Anything, "s1").Return(nil)
				p.On("Publish", mock.Anything, first).Return(nil)
			},
			want: 1,
		},
		{
			name: "publish failure skips notice",
			setup: func(s *SubscriptionsMock, p *PublisherMock) {
				s.On("Expire", mock.Anything).Return(int64(0), nil)
				s.On("UpcomingRenewals", mock.Anything).Return([]models.RenewalNotice{first, second}, nil)
				p.On("Publish", mock.Anything, first).Return(errors.New("channel closed"))
				p.On("Publish", mock.Anything, second).Return(nil)
				s.On("MarkReminded", mock.Anything, "s2").Return(nil)
			},
			want: 1,
		},
		{
			name: "mark failure still counts as published",
			setup: func(s *SubscriptionsMock, p *PublisherMock) {
				s.On("Expire", mock.Anything).Return(int64(0), nil)
				s.On("UpcomingRenewals", mock.Anything).Return([]models.RenewalNotice{first}, nil)
				p.On("Publish", mock.Anything, first).Return(nil)
				s.On("MarkReminded", mock.Anything, "s1").Return(errors.New("db error"))
			},
			want: 1,
		},
		{
			name: "renewal lookup failure",
			setup: func(s *SubscriptionsMock, _ *PublisherMock) {
				s.On("Expire", mock.Anything).Return(int64(0), nil)
				s.On("UpcomingRenewals", mock.Anything).Return(nil, errors.New("db error"))
			},
			want: 0,
		},
		{
			name: "nothing to renew",
			setup: func(s *SubscriptionsMock, _ *PublisherMock) {
				s.On("Expire", mock.Anything).Return(int64(0), nil)
				s.On("UpcomingRenewals", mock.Anything).Return([]models.RenewalNotice{}, nil)
			},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subs, pub := new(SubscriptionsMock), new(PublisherMock)
			tt.setup(subs, pub)

			got := NewSchedulerService(subs, pub, time.Hour, newNoopLogger()).RunOnce(context.Background())
			assert.Equal(t, tt.want, got)
			subs.AssertExpectations(t)
			pub.AssertExpectations(t)
		})
	}
}

func TestRunOnce_RemindsOnce(t *testing.T) {
	notice := models.RenewalNotice{SubscriptionID: "s1", Email: "a@example.com"}
	subs, pub := new(SubscriptionsMock), new(PublisherMock)
	subs.On("Expire", mock.Anything).Return(int64(0), nil)
	subs.On("UpcomingRenewals", mock.Anything).Return([]models.RenewalNotice{notice}, nil).Once()
	subs.On("MarkReminded", mock.Anything, "s1").Return(nil).Once()
	subs.On("UpcomingRenewals", mock.Anything).Return([]models.RenewalNotice{}, nil)
	pub.On("Publish", mock.Anything, notice).Return(nil).Once()

	s := NewSchedulerService(subs, pub, time.Hour, newNoopLogger())
	assert.Equal(t, 1, s.RunOnce(context.Background()))
	assert.Equal(t, 0, s.RunOnce(context.Background()))
	pub.AssertNumberOfCalls(t, "Publish", 1)
	subs.AssertExpectations(t)
}

func TestRun_StopsOnCancel(t *testing.T) {
	subs, pub := new(SubscriptionsMock), new(PublisherMock)
	subs.On("Expire", mock.Anything).Return(int64(0), nil)
	started := make(chan struct{}, 1)
	subs.On("UpcomingRenewals", mock.Anything).Return([]models.RenewalNotice{}, nil).Run(func(mock.Arguments) {
		select {
		case started <- struct{}{}:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewSchedulerService(subs, pub, time.Hour, newNoopLogger()).Run(ctx)
		close(done)
	}()

	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not run")
	}
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}
