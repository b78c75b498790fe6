package cron

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"wellness/config"
	"wellness/models"
	"wellness/services/notification"
	"wellness/services/tasks"
	"wellness/utils"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Dispatcher is the recurring job the scheduler triggers.
type Dispatcher interface {
	Dispatch(ctx context.Context) (*models.DispatchReport, error)
}

// Worker consumes booking events and runs the periodic recurring dispatch.
type Worker struct {
	server    *asynq.Server
	scheduler *asynq.Scheduler
	cancel    context.CancelFunc
	logger    *zap.Logger
}

// RedisOpt is the asynq connection for the queue database.
func RedisOpt(cfg config.Config) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisQueueDB,
	}
}

// NewMux routes task types to their handlers.
func NewMux(dispatcher Dispatcher, sink notification.Emitter) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeBookingEvent, handleBookingEventTask(sink))
	mux.HandleFunc(tasks.TypeRecurringDispatch, handleDispatchTask(dispatcher))
	return mux
}

// InitWorker starts the task server and the cron scheduler in the background.
func InitWorker(cfg config.Config, dispatcher Dispatcher, sink notification.Emitter) (*Worker, error) {
	logger := utils.GetLogger()
	redisOpts := RedisOpt(cfg)

	loc, err := utils.LoadLocation(cfg.EngineTimezone)
	if err != nil {
		return nil, err
	}
	scheduler := asynq.NewScheduler(redisOpts, &asynq.SchedulerOpts{Location: loc})
	task, opts := tasks.NewRecurringDispatchTask()
	entryID, err := scheduler.Register(cfg.RecurringCron, task, opts...)
	if err != nil {
		return nil, fmt.Errorf("invalid RECURRING_DISPATCH_CRON %q: %w", cfg.RecurringCron, err)
	}

	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				tasks.QueueEvents:    6,
				tasks.QueueScheduler: 3,
				"default":            1,
			},
			Logger: logger.Sugar(),
		},
	)

	ctx, cancel := context.WithCancel(context.Background())
	w := &Worker{server: srv, scheduler: scheduler, cancel: cancel, logger: logger}

	go monitorRedisConnection(ctx, cfg)

	go func() {
		logger.Info("[Worker] starting async worker", zap.String("dispatchCron", cfg.RecurringCron), zap.String("entryId", entryID))
		const maxAttempts = 5

		var serverUp, schedulerUp bool
		for attempts := 1; attempts <= maxAttempts; attempts++ {
			var err error
			if !serverUp {
				if err = srv.Start(NewMux(dispatcher, sink)); err == nil {
					serverUp = true
				}
			}
			if serverUp && !schedulerUp {
				if err = scheduler.Start(); err == nil {
					schedulerUp = true
				}
			}
			if serverUp && schedulerUp {
				return
			}
			logger.Warn("[Worker] failed to start", zap.Int("attempt", attempts), zap.Int("maxAttempts", maxAttempts), zap.Error(err))
			if attempts == maxAttempts {
				logger.Error("[Worker] max retry attempts reached, background jobs disabled")
				return
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Duration(attempts*2) * time.Second):
			}
		}
	}()

	return w, nil
}

// Shutdown stops the scheduler first so no new dispatch is enqueued, then drains the server.
func (w *Worker) Shutdown() {
	w.cancel()
	w.scheduler.Shutdown()
	w.server.Shutdown()
	w.logger.Info("[Worker] stopped")
}

func handleBookingEventTask(sink notification.Emitter) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var event models.BookingEvent
		if err := json.Unmarshal(task.Payload(), &event); err != nil {
			// A malformed payload will never succeed.
			return fmt.Errorf("invalid booking event payload: %v: %w", err, asynq.SkipRetry)
		}
		sink.Emit(ctx, event)
		return nil
	}
}

func handleDispatchTask(dispatcher Dispatcher) asynq.HandlerFunc {
	return func(ctx context.Context, _ *asynq.Task) error {
		report, err := dispatcher.Dispatch(ctx)
		if err != nil {
			return err
		}
		if len(report.Errors) > 0 {
			utils.GetLogger().Warn("[Worker] recurring dispatch finished with errors",
				zap.Int("dispatched", report.DispatchedCount),
				zap.Strings("errors", report.Errors))
		}
		return nil
	}
}

// monitorRedisConnection pings Redis periodically to detect failures at runtime.
func monitorRedisConnection(ctx context.Context, cfg config.Config) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisQueueDB,
	})
	defer client.Close()

	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := client.Ping(ctx).Err(); err != nil {
				utils.GetLogger().Warn("[Worker] Redis connection lost", zap.Error(err))
			}
		}
	}
}
