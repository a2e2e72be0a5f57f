// Package export delivers flattened board snapshots to an external pipeline.
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/kanban-api/internal/model"
)

var (
	ErrDelivery      = errors.New("export delivery failed")
	ErrNotConfigured = errors.New("export target not configured")
)

type Payload struct {
	ID         string            `json:"id"`
	BoardID    string            `json:"boardId"`
	ExportedAt time.Time         `json:"exportedAt"`
	Tasks      []model.ExportRow `json:"tasks"`
}

type Sender interface {
	Send(ctx context.Context, p Payload) error
}

// WebhookSender POSTs payloads as JSON. Network errors, 429 and 5xx answers
// are retried with exponential backoff; any other non-2xx answer fails at once.
type WebhookSender struct {
	url             string
	client          *http.Client
	maxRetries      uint64
	initialInterval time.Duration
	logger          *zap.Logger
}

func NewWebhookSender(url string, timeout time.Duration, maxRetries int, logger *zap.Logger) *WebhookSender {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &WebhookSender{
		url:             url,
		client:          &http.Client{Timeout: timeout},
		maxRetries:      uint64(maxRetries),
		initialInterval: 200 * time.Millisecond,
		logger:          logger,
	}
}

func (w *WebhookSender) Send(ctx context.Context, p Payload) error {
	if w.url == "" {
		return ErrNotConfigured
	}

	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal export %s: %w", p.ID, err)
	}

	attempt := 0
	op := func() error {
		attempt++
		return w.post(ctx, p.ID, body)
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = w.initialInterval
	policy := backoff.WithContext(backoff.WithMaxRetries(eb, w.maxRetries), ctx)

	onRetry := func(err error, wait time.Duration) {
		w.logger.Warn("export delivery failed, retrying",
			zap.String("export_id", p.ID),
			zap.String("board_id", p.BoardID),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
	}

	if err := backoff.RetryNotify(op, policy, onRetry); err != nil {
		return fmt.Errorf("%w: %w", ErrDelivery, err)
	}

	w.logger.Info("board exported",
		zap.String("export_id", p.ID),
		zap.String("board_id", p.BoardID),
		zap.Int("tasks", len(p.Tasks)),
	)
	return nil
}

func (w *WebhookSender) post(ctx context.Context, id string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return backoff.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", id)

	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return fmt.Errorf("webhook answered %d", resp.StatusCode)
	default:
		return backoff.Permanent(fmt.Errorf("webhook answered %d", resp.StatusCode))
	}
}
