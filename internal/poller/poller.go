package poller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"
)

// AccountCleaner clears the storefront state owned by a user.
type AccountCleaner interface {
	ClearAccountData(ctx context.Context, userID string) error
}

// MessageReader is the subset of *kafka.Reader the poller needs.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type accountClosed struct {
	UserID string `json:"user_id"`
}

var errBadMessage = errors.New("malformed account event")

// Poller consumes account-closed events and clears the user's cart and wishlist.
type Poller struct {
	reader   MessageReader
	cleaner  AccountCleaner
	logger   *log.Entry
	attempts int
	backoff  time.Duration
}

func NewPoller(cleaner AccountCleaner, brokers []string, topic, groupID string, logger *log.Entry) *Poller {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MaxBytes: 10e6, // 10MB
	})
	return newPoller(reader, cleaner, logger)
}

func newPoller(reader MessageReader, cleaner AccountCleaner, logger *log.Entry) *Poller {
	if logger == nil {
		logger = log.WithField("component", "account-poller")
	}
	return &Poller{
		reader:   reader,
		cleaner:  cleaner,
		logger:   logger,
		attempts: 3,
		backoff:  500 * time.Millisecond,
	}
}

// Run blocks until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		m, err := p.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.logger.WithError(err).Warn("error reading message")
			p.sleep(ctx)
			continue
		}

		if err := p.handleMessage(ctx, m); err != nil {
			p.logger.WithError(err).WithFields(log.Fields{
				"partition": m.Partition,
				"offset":    m.Offset,
			}).Error("dropping account event")
		}

		if err := p.reader.CommitMessages(ctx, m); err != nil && ctx.Err() == nil {
			p.logger.WithError(err).Warn("error committing message")
		}
	}
}

func (p *Poller) Close() {
	if err := p.reader.Close(); err != nil {
		p.logger.WithError(err).Warn("error closing reader")
	}
}

// handleMessage clears the account named in m, retrying transient failures.
func (p *Poller) handleMessage(ctx context.Context, m kafka.Message) error {
	var event accountClosed
	if err := json.Unmarshal(m.Value, &event); err != nil {
		return fmt.Errorf("%w: %v", errBadMessage, err)
	}
	if event.UserID == "" {
		return fmt.Errorf("%w: missing user_id", errBadMessage)
	}

	var err error
	for attempt := 1; attempt <= p.attempts; attempt++ {
		if err = p.cleaner.ClearAccountData(ctx, event.UserID); err == nil {
			p.logger.WithField("user_id", event.UserID).Info("cleared data for closed account")
			return nil
		}
		if attempt < p.attempts {
			p.logger.WithError(err).WithFields(log.Fields{
				"user_id": event.UserID,
				"attempt": attempt,
			}).Warn("clearing account data failed, retrying")
			if !p.sleep(ctx) {
				return ctx.Err()
			}
		}
	}
	return fmt.Errorf("clear account %s: %w", event.UserID, err)
}

func (p *Poller) sleep(ctx context.Context) bool {
	t := time.NewTimer(p.backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
