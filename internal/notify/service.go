package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// store is the persistence interface for the notify service.
// *Repository satisfies this interface.
type store interface {
	Create(ctx context.Context, sub *Subscription) error
	GetByID(ctx context.Context, id uuid.UUID) (*Subscription, error)
	ListByOwner(ctx context.Context, owner string) ([]*Subscription, error)
	ListByEvent(ctx context.Context, eventType string) ([]*Subscription, error)
	Delete(ctx context.Context, id uuid.UUID) error
	RecordDelivery(ctx context.Context, d *Delivery) error
}

// MetricsRecorder is an optional callback for recording delivery outcomes.
type MetricsRecorder func(success bool)

// Service manages subscriptions and fans out append events.
type Service struct {
	repo        store
	httpClient  *http.Client
	retryDelays []time.Duration // sleep before attempt n (index 1-based)
	onMetrics   MetricsRecorder
	logger      *zap.Logger
}

// NewService creates a new notify Service.
func NewService(repo store, logger *zap.Logger) *Service {
	return &Service{
		repo:        repo,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		retryDelays: []time.Duration{0, 0, 1 * time.Second, 5 * time.Second},
		logger:      logger,
	}
}

// SetMetricsRecorder configures the metrics callback.
func (s *Service) SetMetricsRecorder(fn MetricsRecorder) {
	s.onMetrics = fn
}

// Subscribe creates a new subscription with a generated HMAC secret.
func (s *Service) Subscribe(ctx context.Context, owner string, req *CreateSubscriptionRequest) (*Subscription, error) {
	secret, err := generateSecret()
	if err != nil {
		return nil, fmt.Errorf("generate secret: %w", err)
	}

	sub := &Subscription{
		Owner:  owner,
		URL:    req.URL,
		Events: req.Events,
		Secret: secret,
	}
	if err := s.repo.Create(ctx, sub); err != nil {
		return nil, fmt.Errorf("create subscription: %w", err)
	}
	return sub, nil
}

// Unsubscribe deletes a subscription, checking ownership.
func (s *Service) Unsubscribe(ctx context.Context, owner string, subID uuid.UUID) error {
	sub, err := s.repo.GetByID(ctx, subID)
	if err != nil {
		return err
	}
	if sub.Owner != owner {
		return fmt.Errorf("not authorized to delete this subscription")
	}
	return s.repo.Delete(ctx, subID)
}

// ListByOwner returns all subscriptions for an owner address.
func (s *Service) ListByOwner(ctx context.Context, owner string) ([]*Subscription, error) {
	return s.repo.ListByOwner(ctx, owner)
}

// Dispatch fans out an event to all matching subscriptions, fire-and-forget.
// Implements the chapter.Notifier interface.
func (s *Service) Dispatch(ctx context.Context, eventType string, payload map[string]string) {
	subs, err := s.repo.ListByEvent(ctx, eventType)
	if err != nil {
		s.logger.Error("notify: list subscribers", zap.Error(err))
		return
	}

	event := Event{
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}

	for _, sub := range subs {
		go s.deliver(context.WithoutCancel(ctx), sub, event)
	}
}

// deliver sends the event to a single subscription with retries.
func (s *Service) deliver(ctx context.Context, sub *Subscription, event Event) {
	body, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("notify: marshal event", zap.Error(err))
		return
	}

	signature := signPayload(body, sub.Secret)

	for attempt := 1; attempt < len(s.retryDelays); attempt++ {
		time.Sleep(s.retryDelays[attempt])

		success, statusCode, errMsg := s.doDelivery(ctx, sub.URL, body, signature)

		delivery := &Delivery{
			SubscriptionID: sub.ID,
			EventType:      event.Type,
			StatusCode:     statusCode,
			Attempt:        attempt,
			Success:        success,
			ErrorMessage:   errMsg,
		}
		if recordErr := s.repo.RecordDelivery(ctx, delivery); recordErr != nil {
			s.logger.Warn("notify: record delivery", zap.Error(recordErr))
		}

		if s.onMetrics != nil {
			s.onMetrics(success)
		}

		if success {
			return
		}

		s.logger.Warn("notify: delivery failed",
			zap.String("url", sub.URL),
			zap.Int("attempt", attempt),
			zap.String("error", errMsg),
		)
	}
}

// doDelivery performs a single HTTP POST delivery.
func (s *Service) doDelivery(ctx context.Context, url string, body []byte, signature string) (bool, int, string) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return false, 0, err.Error()
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-StoryLedger-Signature", signature)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return false, 0, err.Error()
	}
	defer resp.Body.Close()
	io.ReadAll(io.LimitReader(resp.Body, 1024)) //nolint:errcheck

	success := resp.StatusCode >= 200 && resp.StatusCode < 300
	errMsg := ""
	if !success {
		errMsg = fmt.Sprintf("HTTP %d", resp.StatusCode)
	}
	return success, resp.StatusCode, errMsg
}

// signPayload computes an HMAC-SHA256 signature over the event body.
func signPayload(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// generateSecret creates a random 32-byte hex-encoded secret.
func generateSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
