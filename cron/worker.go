package cron

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"slotbook/config"
	appointmentRepo "slotbook/database/repository/appointment"
	"slotbook/models"
	"slotbook/services/booking"

	"github.com/hibiken/asynq"
)

const TypeHoldExpiry = "hold:expiry"

// holdExpiryPayload is the task body scheduled for each hold's expiry instant.
type holdExpiryPayload struct {
	ServiceID  string    `json:"serviceId"`
	Slot       string    `json:"slot"`
	CustomerID string    `json:"customerId"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

// AsynqExpiryScheduler enqueues one task per hold, processed at the hold's
// expiry. Redis TTL remains the enforcement; this sweep only records which
// booking intents lapsed without a confirmation.
type AsynqExpiryScheduler struct {
	client *asynq.Client
}

func NewAsynqExpiryScheduler() *AsynqExpiryScheduler {
	return &AsynqExpiryScheduler{
		client: asynq.NewClient(asynq.RedisClientOpt{
			Addr:     config.AppConfig.RedisAddr,
			Password: config.AppConfig.RedisPassword,
			DB:       config.AppConfig.RedisQueueDB,
		}),
	}
}

func (s *AsynqExpiryScheduler) ScheduleExpiryCheck(ctx context.Context, hold *models.Hold) error {
	payload, err := json.Marshal(holdExpiryPayload{
		ServiceID:  hold.ServiceID,
		Slot:       hold.Slot,
		CustomerID: hold.CustomerID,
		ExpiresAt:  hold.ExpiresAt,
	})
	if err != nil {
		return err
	}
	task := asynq.NewTask(TypeHoldExpiry, payload)
	_, err = s.client.EnqueueContext(ctx, task, asynq.ProcessAt(hold.ExpiresAt.Add(time.Second)))
	return err
}

// InitExpiryWorker runs the async worker in background.
func InitExpiryWorker(holds booking.HoldStore, appts appointmentRepo.AppointmentRepository) {
	redisOpts := asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}

	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeHoldExpiry, handleHoldExpiryTask(holds, appts))

	go func() {
		log.Println("[ExpirySweep] starting async worker...")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				log.Printf("[ExpirySweep] attempt %d/%d failed to start worker: %v", attempts, maxAttempts, err)

				if attempts == maxAttempts {
					log.Fatal("[ExpirySweep] max retry attempts reached, exiting")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second)
			} else {
				break
			}
		}
	}()
}

// handleHoldExpiryTask classifies a lapsed hold: consumed by a confirmation,
// extended/re-held, or expired with no outcome. Expiry is indistinguishable
// from a plain rejection to clients; here it is kept visible for operators.
func handleHoldExpiryTask(holds booking.HoldStore, appts appointmentRepo.AppointmentRepository) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p holdExpiryPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			log.Printf("[ExpirySweep] invalid payload: %v", err)
			return err
		}

		slotTime, err := booking.NormalizeInstant(p.Slot)
		if err != nil {
			log.Printf("[ExpirySweep] invalid slot in payload: %v", err)
			return nil
		}

		appt, err := appts.GetConfirmed(ctx, p.ServiceID, booking.SlotKeyTime(slotTime))
		if err != nil {
			return err
		}
		if appt != nil {
			return nil // intent reached CONFIRMED
		}

		hold, _, err := holds.Get(ctx, p.ServiceID, slotTime)
		if err != nil {
			return err
		}
		if hold != nil && hold.CustomerID == p.CustomerID && hold.ExpiresAt.After(p.ExpiresAt) {
			return nil // hold was extended, a later task will classify it
		}

		log.Printf("[ExpirySweep] booking intent expired without confirmation: service=%s slot=%s", p.ServiceID, p.Slot)
		return nil
	}
}
