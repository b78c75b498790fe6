package notification

import (
	"context"

	"wellness/models"
	"wellness/services/tasks"
	"wellness/utils"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// QueueEmitter enqueues events on the asynq "events" queue for the worker to deliver.
type QueueEmitter struct {
	Client   *asynq.Client
	Fallback Emitter
	Logger   *zap.Logger
}

func NewQueueEmitter(client *asynq.Client) *QueueEmitter {
	return &QueueEmitter{
		Client:   client,
		Fallback: NewLogEmitter(),
		Logger:   utils.GetLogger(),
	}
}

func (e *QueueEmitter) Emit(ctx context.Context, event models.BookingEvent) {
	task, opts, err := tasks.NewBookingEventTask(event)
	if err == nil {
		// Detached: the request may already be finishing when the event is published.
		_, err = e.Client.EnqueueContext(context.WithoutCancel(ctx), task, opts...)
	}
	if err != nil {
		e.Logger.Warn("failed to enqueue booking event, logging instead",
			zap.String("type", string(event.Type)),
			zap.String("bookingId", event.BookingID),
			zap.Error(err))
		if e.Fallback != nil {
			e.Fallback.Emit(ctx, event)
		}
	}
}
