package tasks

import (
	"encoding/json"
	"time"

	"wellness/models"

	"github.com/hibiken/asynq"
)

const (
	TypeBookingEvent      = "booking:event"
	TypeRecurringDispatch = "recurring:dispatch"
)

// QueueEvents carries booking lifecycle events; QueueScheduler carries periodic jobs.
const (
	QueueEvents    = "events"
	QueueScheduler = "scheduler"
)

func NewBookingEventTask(event models.BookingEvent) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(event)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeBookingEvent, b)
	opts := []asynq.Option{asynq.Queue(QueueEvents), asynq.MaxRetry(5)}

	return task, opts, nil
}

// NewRecurringDispatchTask builds the periodic dispatch job. Unique keeps overlapping cron ticks from
// running the dispatcher twice at once.
func NewRecurringDispatchTask() (*asynq.Task, []asynq.Option) {
	task := asynq.NewTask(TypeRecurringDispatch, nil)
	opts := []asynq.Option{
		asynq.Queue(QueueScheduler),
		asynq.MaxRetry(0),
		asynq.Unique(30 * time.Minute),
	}
	return task, opts
}
