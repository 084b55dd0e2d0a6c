package cron

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/fannu/booking-server/config"
	quoteRepo "github.com/fannu/booking-server/database/repository/quote"
	"github.com/fannu/booking-server/services/notification"
)

// TypeQuoteSweep is the asynq task type for the periodic quote-expiry sweep.
const TypeQuoteSweep = "quotes:sweep"

func redisOpts() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}
}

// NewQueueClient returns the asynq client used to enqueue outbound messages.
func NewQueueClient() *asynq.Client {
	return asynq.NewClient(redisOpts())
}

// InitWorker runs the background worker: outbound message delivery plus the
// periodic sweep that relabels expired quotes. The sweep is a freshness
// optimization only; the payment path re-checks expiry at point of use.
func InitWorker(quotes quoteRepo.QuoteRepository, logger *zap.Logger) {
	srv := asynq.NewServer(
		redisOpts(),
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(notification.TypeNotifySend, handleNotifyTask(logger))
	mux.HandleFunc(TypeQuoteSweep, handleQuoteSweep(quotes, logger))

	go func() {
		log.Println("[Worker] starting async worker...")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				log.Printf("[Worker] attempt %d/%d failed to start worker: %v", attempts, maxAttempts, err)

				if attempts == maxAttempts {
					log.Fatal("[Worker] max retry attempts reached, exiting")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second)
			} else {
				break
			}
		}
	}()

	startSweepScheduler(logger)
}

// startSweepScheduler enqueues the sweep task every ten minutes.
func startSweepScheduler(logger *zap.Logger) {
	scheduler := asynq.NewScheduler(redisOpts(), nil)
	if _, err := scheduler.Register("@every 10m", asynq.NewTask(TypeQuoteSweep, nil)); err != nil {
		logger.Error("failed to register quote sweep schedule", zap.Error(err))
		return
	}
	go func() {
		if err := scheduler.Run(); err != nil {
			logger.Error("quote sweep scheduler stopped", zap.Error(err))
		}
	}()
}

func handleNotifyTask(logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p notification.NotifyPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			logger.Error("invalid notification payload", zap.Error(err))
			return err
		}

		// Delivery provider integration sits behind this worker; for now
		// the dispatch is logged and acknowledged.
		logger.Info("outbound message dispatched",
			zap.String("recipient", p.Recipient),
			zap.String("channel", p.Channel),
			zap.String("template", p.Template),
			zap.String("ref_code", p.RefCode),
		)
		return nil
	}
}

func handleQuoteSweep(quotes quoteRepo.QuoteRepository, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		count, err := quotes.ExpireStale(ctx, time.Now())
		if err != nil {
			logger.Error("quote expiry sweep failed", zap.Error(err))
			return err
		}
		if count > 0 {
			logger.Info("expired stale quotes", zap.Int64("count", count))
		}
		return nil
	}
}
