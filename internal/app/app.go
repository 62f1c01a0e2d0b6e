// internal/app/app.go
package app

import (
	"database/sql"
	"math/rand"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/unclebandit/creator-negotiator/internal/classifier"
	"github.com/unclebandit/creator-negotiator/internal/config"
	"github.com/unclebandit/creator-negotiator/internal/copywriter"
	"github.com/unclebandit/creator-negotiator/internal/db"
	"github.com/unclebandit/creator-negotiator/internal/lock"
	"github.com/unclebandit/creator-negotiator/internal/mailbox"
	"github.com/unclebandit/creator-negotiator/internal/negotiation"
	"github.com/unclebandit/creator-negotiator/internal/repository"
	"github.com/unclebandit/creator-negotiator/internal/service"
)

// App holds the wired services shared by the server, worker and CLI.
type App struct {
	Config *config.Configuration
	DB     *sql.DB
	Redis  redis.UniversalClient

	CampaignService *service.CampaignService
	Negotiator      *service.NegotiatorService
	Reconciler      *service.Reconciler
	Followups       *service.FollowupService
	Runner          *service.PassRunner
}

// globalPicker draws template variants from the shared math/rand source.
type globalPicker struct{}

func (globalPicker) Intn(n int) int { return rand.Intn(n) }

const writerTemperature = 0.7

// NewModels builds the reply classifier (JSON mode) and the outreach writer on
// one local Ollama client.
func NewModels(cnf config.ClassifierConfig, timeout time.Duration) (classifier.Classifier, copywriter.Writer, error) {
	llm, err := ollama.New(
		ollama.WithModel(cnf.Model),
		ollama.WithServerURL(cnf.OllamaHost),
	)
	if err != nil {
		return nil, nil, errors.Wrap(err, "create ollama client")
	}
	clf := classifier.New(llm, timeout,
		llms.WithTemperature(cnf.Temperature),
		llms.WithJSONMode(),
	)
	return clf, copywriter.New(llm, timeout, llms.WithTemperature(writerTemperature)), nil
}

// New connects to Postgres and Redis and wires every service.
func New(cnf *config.Configuration) (*App, error) {
	conn, err := db.Connect(cnf.DataSource.Dns)
	if err != nil {
		return nil, err
	}

	rdb, err := db.NewRedis(cnf.Redis)
	if err != nil {
		conn.Close()
		return nil, err
	}

	clf, writer, err := NewModels(cnf.Classifier, cnf.Negotiation.CallTimeout)
	if err != nil {
		conn.Close()
		rdb.Close()
		return nil, err
	}

	a := Wire(cnf, conn, rdb, clf, writer, mailbox.NewIMAPFetcher(cnf.Negotiation.FetchWindow, cnf.Negotiation.CallTimeout),
		mailbox.NewSMTPSender(cnf.Negotiation.CallTimeout))
	log.WithField("model", cnf.Classifier.Model).Info("🤖 negotiator wired")
	return a, nil
}

// Wire builds the service graph on top of already-open connections.
func Wire(cnf *config.Configuration, conn *sql.DB, rdb redis.UniversalClient, clf classifier.Classifier,
	writer copywriter.Writer, fetcher mailbox.Fetcher, sender mailbox.Sender) *App {
	n := cnf.Negotiation

	campaignRepo := &repository.CampaignRepository{DB: conn}
	outreachRepo := &repository.OutreachRepository{DB: conn}
	threadRepo := &repository.ThreadRepository{DB: conn}
	mailboxRepo := &repository.MailboxRepository{DB: conn}
	processedRepo := &repository.ProcessedMessageRepository{DB: conn}

	dispatcher := mailbox.NewDispatcher(mailboxRepo, mailbox.NewRedisQuota(rdb), sender, n.CallTimeout)
	engine := negotiation.NewEngine(negotiation.DefaultPolicy(), globalPicker{})

	negotiator := &service.NegotiatorService{
		CampaignRepo: campaignRepo,
		OutreachRepo: outreachRepo,
		ThreadRepo:   threadRepo,
		Guard:        negotiation.NewGuard(processedRepo),
		Classifier:   clf,
		Engine:       engine,
		Dispatcher:   dispatcher,
	}

	reconciler := &service.Reconciler{
		MailboxRepo:  mailboxRepo,
		OutreachRepo: outreachRepo,
		Fetcher:      fetcher,
		Negotiator:   negotiator,
		Timeout:      n.CallTimeout,
		MaxErrors:    n.MaxReportedErrors,
	}

	followups := &service.FollowupService{
		CampaignRepo: campaignRepo,
		OutreachRepo: outreachRepo,
		ThreadRepo:   threadRepo,
		Engine:       engine,
		Dispatcher:   dispatcher,
		Policy: negotiation.FollowupPolicy{
			MinAge:       n.FollowupMinAge,
			MaxAge:       n.FollowupMaxAge,
			MaxFollowups: n.MaxFollowups,
		},
		MaxErrors: n.MaxReportedErrors,
	}

	return &App{
		Config: cnf,
		DB:     conn,
		Redis:  rdb,
		CampaignService: &service.CampaignService{
			CampaignRepo: campaignRepo,
			OutreachRepo: outreachRepo,
			ThreadRepo:   threadRepo,
			Dispatcher:   dispatcher,
			Writer:       writer,
		},
		Negotiator: negotiator,
		Reconciler: reconciler,
		Followups:  followups,
		Runner:     service.NewPassRunner(lock.NewRunLock(rdb, "passes", n.RunLockTTL), reconciler, followups),
	}
}

// LogReport writes a finished pass report as one structured line.
func LogReport(r *service.PassReport) {
	if r == nil {
		return
	}
	log.WithFields(log.Fields{
		"pass_id":           r.PassID,
		"kind":              r.Kind,
		"counts":            r.Counts,
		"skipped_mailboxes": r.SkippedMailboxes,
		"errors":            r.Errors,
		"duration":          r.FinishedAt.Sub(r.StartedAt).String(),
	}).Info("📊 pass finished")
}

func (a *App) Close() {
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	if a.DB != nil {
		_ = a.DB.Close()
	}
}
