// internal/queue/queue.go
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/unclebandit/creator-negotiator/internal/lock"
	"github.com/unclebandit/creator-negotiator/internal/service"
)

// PassTopic carries service.PassJob triggers.
const PassTopic = "negotiator_passes"

// Queue interface
type Queue interface {
	Publish(topic string, payload any) error
	Subscribe(topic string, handler func(payload any) error) error
}

// InMemoryQueue is an in-process queue with retry
type InMemoryQueue struct {
	mu         sync.Mutex
	handlers   map[string][]func(payload any) error
	MaxRetries int
	Backoff    time.Duration
}

func NewInMemoryQueue() *InMemoryQueue {
	return &InMemoryQueue{
		handlers:   make(map[string][]func(payload any) error),
		MaxRetries: 3,
		Backoff:    500 * time.Millisecond,
	}
}

// JobPayload wraps a message payload with retry info
type JobPayload struct {
	Payload    any
	RetryCount int
	MaxRetries int
}

// Publish hands the payload to every subscriber of topic
func (q *InMemoryQueue) Publish(topic string, payload any) error {
	q.mu.Lock()
	handlers := q.handlers[topic]
	q.mu.Unlock()

	if len(handlers) == 0 {
		return fmt.Errorf("no subscribers for topic %s", topic)
	}

	for _, handler := range handlers {
		go q.processJob(topic, handler, JobPayload{Payload: payload, MaxRetries: q.MaxRetries})
	}
	return nil
}

func (q *InMemoryQueue) processJob(topic string, handler func(payload any) error, job JobPayload) {
	logger := log.WithField("topic", topic)
	for {
		err := handler(job.Payload)
		if err == nil {
			logger.Debugf("job processed: %+v", job.Payload)
			return
		}

		job.RetryCount++
		if job.RetryCount > job.MaxRetries {
			logger.WithError(err).Errorf("job permanently failed after %d attempts: %+v", job.MaxRetries, job.Payload)
			return
		}
		logger.WithError(err).Warnf("job failed (attempt %d/%d)", job.RetryCount, job.MaxRetries)

		time.Sleep(time.Duration(job.RetryCount) * q.Backoff)
	}
}

// Subscribe adds a handler for a topic
func (q *InMemoryQueue) Subscribe(topic string, handler func(payload any) error) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.handlers[topic] = append(q.handlers[topic], handler)
	return nil
}

// StartPassSubscriber runs every pass job published on PassTopic. A job that
// finds the run lock held is dropped; the running pass covers it.
func StartPassSubscriber(ctx context.Context, q Queue, runner *service.PassRunner, onReport func(*service.PassReport)) error {
	return q.Subscribe(PassTopic, func(payload any) error {
		job, err := DecodePassJob(payload)
		if err != nil {
			log.WithError(err).Warn("⚠️ invalid pass job, dropping")
			return nil
		}

		log.WithFields(log.Fields{"kind": job.Kind, "requested_by": job.RequestedBy}).Info("📩 pass job received")
		report, err := runner.Run(ctx, job.Kind)
		if errors.Is(err, lock.ErrHeld) {
			log.WithField("kind", job.Kind).Info("another pass is running, skipping")
			return nil
		}
		if err != nil {
			return err
		}
		if onReport != nil {
			onReport(report)
		}
		return nil
	})
}

// DecodePassJob accepts a PassJob or its JSON encoding.
func DecodePassJob(payload any) (service.PassJob, error) {
	var job service.PassJob
	switch p := payload.(type) {
	case service.PassJob:
		job = p
	case *service.PassJob:
		job = *p
	case []byte:
		if err := json.Unmarshal(p, &job); err != nil {
			return job, errors.Wrap(err, "decode pass job")
		}
	default:
		return job, fmt.Errorf("unexpected payload type %T", payload)
	}
	if job.Kind != service.PassReconcile && job.Kind != service.PassFollowups {
		return job, fmt.Errorf("unknown pass kind %q", job.Kind)
	}
	return job, nil
}
