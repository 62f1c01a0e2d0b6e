// cmd/worker/main.go
package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/unclebandit/creator-negotiator/internal/app"
	"github.com/unclebandit/creator-negotiator/internal/config"
	"github.com/unclebandit/creator-negotiator/internal/queue"
	"github.com/unclebandit/creator-negotiator/internal/service"
)

func main() {
	if err := config.InitConfig(); err != nil {
		log.Fatal("❌ ", err)
	}
	cnf, err := config.Fetch()
	if err != nil {
		log.Fatal("❌ ", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(cnf)
	if err != nil {
		log.Fatal("❌ ", err)
	}
	defer a.Close()

	if cnf.AMQP.URL != "" {
		q, err := queue.DialAMQP(cnf.AMQP.URL)
		if err != nil {
			log.Fatal("❌ ", err)
		}
		defer q.Close()
		if err := queue.StartPassSubscriber(ctx, q, a.Runner, app.LogReport); err != nil {
			log.Fatal("❌ ", err)
		}
		log.WithField("queue", queue.PassTopic).Info("📡 consuming pass jobs")
	}

	jobs := make(chan service.PassJob, 4)
	worker := service.NewWorker(a.Runner, jobs, app.LogReport)
	go schedule(ctx, jobs, cnf.Negotiation.PassInterval)

	log.WithField("interval", cnf.Negotiation.PassInterval.String()).Info("Worker running, waiting for passes...")
	worker.Start(ctx)
	log.Info("👋 Worker stopped")
}

// schedule queues a reconciliation pass then a follow-up pass on every tick,
// starting immediately.
func schedule(ctx context.Context, jobs chan<- service.PassJob, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		enqueue(jobs, service.PassJob{Kind: service.PassReconcile, RequestedBy: "scheduler"})
		enqueue(jobs, service.PassJob{Kind: service.PassFollowups, RequestedBy: "scheduler"})

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// enqueue drops the job when the worker is still busy with earlier ones.
func enqueue(jobs chan<- service.PassJob, job service.PassJob) bool {
	select {
	case jobs <- job:
		return true
	default:
		log.WithField("kind", job.Kind).Warn("worker busy, skipping scheduled pass")
		return false
	}
}
