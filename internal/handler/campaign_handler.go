// internal/handler/campaign_handler.go
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"
	"github.com/unclebandit/creator-negotiator/internal/controller"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// NewRouter mounts the campaign, outreach and pass routes.
func NewRouter(ctrl *controller.CampaignController, db Pinger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", healthHandler(db))

	r.Route("/campaigns", func(r chi.Router) {
		r.Post("/", ctrl.CreateCampaign)
		r.Get("/", ctrl.ListCampaigns)
		r.Get("/{id}", ctrl.GetCampaignDetails)
		r.Patch("/{id}", ctrl.UpdateCampaign)
		r.Put("/{id}/status", ctrl.SetCampaignStatus)
		r.Post("/{id}/personalized-preview", ctrl.PersonalizedPreview)
		r.Post("/{id}/outreach", ctrl.CreateOutreach)
		r.Get("/{id}/outreach", ctrl.ListOutreach)
	})

	r.Route("/outreach/{id}", func(r chi.Router) {
		r.Post("/send", ctrl.SendOutreach)
		r.Get("/thread", ctrl.GetThread)
	})

	r.Post("/passes", ctrl.TriggerPass)
	return r
}

func healthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			if err := db.PingContext(r.Context()); err != nil {
				http.Error(w, "database unreachable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.WithFields(log.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"duration":   time.Since(start).String(),
			"request_id": middleware.GetReqID(r.Context()),
		}).Info("📥 request")
	})
}
