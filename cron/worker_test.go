package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"wellness/models"
	"wellness/services/notification"
	"wellness/services/tasks"

	"github.com/hibiken/asynq"
)

type stubDispatcher struct {
	calls int
	err   error
}

func (s *stubDispatcher) Dispatch(context.Context) (*models.DispatchReport, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &models.DispatchReport{DispatchedCount: 1, Errors: []string{"template t1: SLOT_UNAVAILABLE"}}, nil
}

func TestMuxForwardsBookingEvents(t *testing.T) {
	sink := &notification.Recorder{}
	mux := NewMux(&stubDispatcher{}, sink)

	event := models.BookingEvent{
		ID:           "e1",
		Type:         models.EventBookingCancelled,
		BookingID:    "b1",
		RecipientIDs: []string{"u1", "P"},
		OccurredAt:   time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
	}
	task, opts, err := tasks.NewBookingEventTask(event)
	if err != nil {
		t.Fatalf("NewBookingEventTask: %v", err)
	}
	if len(opts) == 0 {
		t.Error("event task has no queue option")
	}
	if err := mux.ProcessTask(context.Background(), task); err != nil {
		t.Fatalf("ProcessTask: %v", err)
	}

	got := sink.Events()
	if len(got) != 1 || got[0].BookingID != "b1" || got[0].Type != models.EventBookingCancelled || len(got[0].RecipientIDs) != 2 {
		t.Fatalf("sink received %+v", got)
	}
}

func TestMalformedEventIsNotRetried(t *testing.T) {
	mux := NewMux(&stubDispatcher{}, &notification.Recorder{})
	err := mux.ProcessTask(context.Background(), asynq.NewTask(tasks.TypeBookingEvent, []byte("{not json")))
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("err = %v, want SkipRetry", err)
	}
}

func TestDispatchTask(t *testing.T) {
	d := &stubDispatcher{}
	mux := NewMux(d, &notification.Recorder{})
	task, _ := tasks.NewRecurringDispatchTask()

	if err := mux.ProcessTask(context.Background(), task); err != nil {
		t.Fatalf("partial failures should not fail the task: %v", err)
	}
	d.err = errors.New("store down")
	if err := mux.ProcessTask(context.Background(), task); err == nil {
		t.Fatal("store failure was swallowed")
	}
	if d.calls != 2 {
		t.Errorf("dispatch calls = %d, want 2", d.calls)
	}
}
