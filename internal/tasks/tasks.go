// Package tasks runs background work over asynq: outbound email, the
// verification and subscription sweeps, and on-demand legacy catalog imports.
package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/hibiken/asynq"

	"conmart/internal/email"
	"conmart/internal/legacy"
	"conmart/internal/repos"
	"conmart/internal/services"
)

const (
	TypeEmailDeliver       = "email:deliver"
	TypeVerificationSweep  = "verification:sweep"
	TypeSubscriptionSweep  = "subscription:sweep"
	TypeSubscriptionNotice = "subscription:remind"
	TypeLegacyImport       = "legacy:import"
)

// ReminderWindow is how far ahead of end_date expiry notices go out.
const ReminderWindow = 5 * 24 * time.Hour

func redisOpt(addr, password string, db int) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: addr, Password: password, DB: db}
}

func NewClient(addr, password string, db int) *asynq.Client {
	return asynq.NewClient(redisOpt(addr, password, db))
}

type EmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// EnqueueEmail queues one outbound mail. A nil client (no Redis) is a no-op
// so callers never branch on worker availability.
func EnqueueEmail(client *asynq.Client, p EmailPayload) error {
	if client == nil {
		return nil
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	_, err = client.Enqueue(asynq.NewTask(TypeEmailDeliver, raw), asynq.MaxRetry(5))
	return err
}

// EnqueueImport queues a legacy catalog import run.
func EnqueueImport(client *asynq.Client) error {
	if client == nil {
		return fmt.Errorf("background worker not configured")
	}
	_, err := client.Enqueue(asynq.NewTask(TypeLegacyImport, nil),
		asynq.Queue("low"), asynq.MaxRetry(1), asynq.Timeout(10*time.Minute))
	return err
}

// Processor holds everything the task handlers need.
type Processor struct {
	Email         email.Sender
	Users         *repos.UserRepo
	Verifications *services.VerificationService
	Subscriptions *services.SubscriptionService
	Importer      *legacy.Importer
}

func (p *Processor) HandleEmailDeliver(ctx context.Context, t *asynq.Task) error {
	var payload EmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("email payload: %v: %w", err, asynq.SkipRetry)
	}
	return p.Email.Send(ctx, payload.To, payload.Subject, payload.Body)
}

func (p *Processor) HandleVerificationSweep(ctx context.Context, _ *asynq.Task) error {
	n, err := p.Verifications.SweepExpired()
	if err != nil {
		return err
	}
	if n > 0 {
		log.Printf("[tasks] verification sweep expired %d subjects", n)
	}
	return nil
}

func (p *Processor) HandleSubscriptionSweep(ctx context.Context, _ *asynq.Task) error {
	n, err := p.Subscriptions.SweepExpired()
	if err != nil {
		return err
	}
	if n > 0 {
		log.Printf("[tasks] subscription sweep expired %d subscriptions", n)
	}
	return nil
}

func (p *Processor) HandleSubscriptionNotice(ctx context.Context, _ *asynq.Task) error {
	due, err := p.Subscriptions.DueForReminder(ReminderWindow)
	if err != nil {
		return err
	}
	for _, sub := range due {
		u, err := p.Users.ByID(sub.UserID)
		if err != nil {
			continue
		}
		body := fmt.Sprintf("Hi %s,\n\nYour %s subscription ends on %s. Renew to keep your current plan benefits.\n",
			u.Name, sub.Tier, sub.EndDate)
		if err := p.Email.Send(ctx, u.Email, "Your subscription is expiring soon", body); err != nil {
			return err
		}
		if err := p.Subscriptions.MarkReminded(sub.ID); err != nil {
			return err
		}
	}
	return nil
}

func (p *Processor) HandleLegacyImport(ctx context.Context, _ *asynq.Task) error {
	if p.Importer == nil {
		return fmt.Errorf("legacy import not configured: %w", asynq.SkipRetry)
	}
	sum, err := p.Importer.Run(ctx)
	if err != nil {
		return err
	}
	log.Printf("[tasks] legacy import: %d categories, %d products, %d skipped",
		sum.Categories, sum.Products, sum.Skipped)
	return nil
}

// NewServer builds the asynq worker for the processor.
func NewServer(addr, password string, db int, p *Processor) (*asynq.Server, *asynq.ServeMux) {
	srv := asynq.NewServer(redisOpt(addr, password, db), asynq.Config{
		Concurrency: 5,
		Queues:      map[string]int{"critical": 6, "default": 3, "low": 1},
		ErrorHandler: asynq.ErrorHandlerFunc(func(_ context.Context, task *asynq.Task, err error) {
			log.Printf("[tasks] %s failed: %v", task.Type(), err)
		}),
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeEmailDeliver, p.HandleEmailDeliver)
	mux.HandleFunc(TypeVerificationSweep, p.HandleVerificationSweep)
	mux.HandleFunc(TypeSubscriptionSweep, p.HandleSubscriptionSweep)
	mux.HandleFunc(TypeSubscriptionNotice, p.HandleSubscriptionNotice)
	mux.HandleFunc(TypeLegacyImport, p.HandleLegacyImport)
	return srv, mux
}

// NewScheduler registers the periodic sweeps.
func NewScheduler(addr, password string, db int) (*asynq.Scheduler, error) {
	sched := asynq.NewScheduler(redisOpt(addr, password, db), &asynq.SchedulerOpts{
		Location: time.UTC,
	})
	entries := []struct {
		spec string
		typ  string
	}{
		{"@every 1h", TypeVerificationSweep},
		{"@every 1h", TypeSubscriptionSweep},
		{"0 8 * * *", TypeSubscriptionNotice},
	}
	for _, e := range entries {
		if _, err := sched.Register(e.spec, asynq.NewTask(e.typ, nil)); err != nil {
			return nil, fmt.Errorf("register %s: %w", e.typ, err)
		}
	}
	return sched, nil
}
