// Package reward holds the RewardLedger contract. Approving a chore credits
// the acceptor through a cloud function; the call is fire-and-forget from the
// chore lifecycle's point of view, so failures are logged, never surfaced.
package reward

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Ledger credits a finished chore's reward.
type Ledger interface {
	Credit(ctx context.Context, householdID, choreID string) error
}

// HTTPLedger invokes the reward cloud function over HTTP.
type HTTPLedger struct {
	url    string
	client *http.Client
	logger *zap.Logger
}

// NewHTTPLedger creates a Ledger posting to the given function URL.
func NewHTTPLedger(url string, logger *zap.Logger) *HTTPLedger {
	return &HTTPLedger{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger,
	}
}

type creditRequest struct {
	HouseholdID string `json:"householdId"`
	ChoreID     string `json:"choreId"`
}

// Credit posts a single credit request for the chore.
func (l *HTTPLedger) Credit(ctx context.Context, householdID, choreID string) error {
	body, err := json.Marshal(creditRequest{HouseholdID: householdID, ChoreID: choreID})
	if err != nil {
		return fmt.Errorf("encode credit request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build credit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return fmt.Errorf("credit chore %s: %w", choreID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("credit chore %s: reward function returned %d", choreID, resp.StatusCode)
	}

	l.logger.Info("reward credited", zap.String("household_id", householdID), zap.String("chore_id", choreID))
	return nil
}

// Disabled is a Ledger that only logs, used when no function URL is
// configured.
type Disabled struct {
	Logger *zap.Logger
}

// Credit logs the skipped credit and succeeds.
func (d Disabled) Credit(_ context.Context, householdID, choreID string) error {
	d.Logger.Info("reward ledger disabled, skipping credit",
		zap.String("household_id", householdID), zap.String("chore_id", choreID))
	return nil
}
