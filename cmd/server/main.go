// cmd/server/main.go
package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/unclebandit/creator-negotiator/internal/app"
	"github.com/unclebandit/creator-negotiator/internal/config"
	"github.com/unclebandit/creator-negotiator/internal/controller"
	"github.com/unclebandit/creator-negotiator/internal/handler"
	"github.com/unclebandit/creator-negotiator/internal/queue"
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

	// With a broker configured the worker consumes pass jobs; otherwise they run in-process.
	var q queue.Queue
	if cnf.AMQP.URL != "" {
		amqpQueue, err := queue.DialAMQP(cnf.AMQP.URL)
		if err != nil {
			log.Fatal("❌ ", err)
		}
		defer amqpQueue.Close()
		q = amqpQueue
	} else {
		mem := queue.NewInMemoryQueue()
		if err := queue.StartPassSubscriber(ctx, mem, a.Runner, app.LogReport); err != nil {
			log.Fatal("❌ ", err)
		}
		q = mem
	}

	campaignController := &controller.CampaignController{
		CampaignService: a.CampaignService,
		Queue:           q,
	}

	srv := &http.Server{
		Addr:              ":" + cnf.Server.Port,
		Handler:           handler.NewRouter(campaignController, a.DB),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("🚀 Server running on :%s", cnf.Server.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
	log.Info("👋 Server stopped")
}
