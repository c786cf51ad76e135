package ledger

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

	"github.com/rocketscienceinc/battleship-backend/internal/apperror"
)

// Reader fetches the raw authoritative state record for a session. The read
// side is eventually consistent: a successful fetch may still lag behind
// confirmed transitions.
type Reader interface {
	FetchSnapshot(ctx context.Context, sessionID uint64) ([]byte, error)
}

// Transaction is one state transition submitted to the ledger.
type Transaction struct {
	Kind      string `json:"kind"`
	SessionID uint64 `json:"session_id"`
	Payload   []byte `json:"payload,omitempty"`
}

// Writer submits transactions. Submission is slow and fallible; a failed
// submit never corrupts the local session.
type Writer interface {
	Submit(ctx context.Context, tx Transaction) error
}

// HTTPClient talks to the ledger gateway: snapshot reads from the indexer
// and transaction submission.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (that *HTTPClient) FetchSnapshot(ctx context.Context, sessionID uint64) ([]byte, error) {
	url := fmt.Sprintf("%s/snapshot/%d", that.baseURL, sessionID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build snapshot request: %w", err)
	}

	resp, err := that.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperror.ErrExternalService, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, apperror.ErrSessionNotFound
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: snapshot fetch returned %s", apperror.ErrExternalService, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperror.ErrExternalService, err)
	}

	return data, nil
}

// Submit posts one transaction to the gateway. Submission retries with
// backoff: the gateway simulates before accepting and transient rejections
// are common right after a confirmation.
func (that *HTTPClient) Submit(ctx context.Context, tx Transaction) error {
	body, err := json.Marshal(tx)
	if err != nil {
		return fmt.Errorf("failed to marshal transaction: %w", err)
	}

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, that.baseURL+"/submit", bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to build submit request: %w", err))
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := that.client.Do(req)
		if err != nil {
			return fmt.Errorf("%w: %w", apperror.ErrExternalService, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= http.StatusInternalServerError {
			return fmt.Errorf("%w: submit returned %s", apperror.ErrExternalService, resp.Status)
		}

		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("%w: submit rejected with %s", apperror.ErrExternalService, resp.Status))
		}

		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = 30 * time.Second

	if err := backoff.Retry(operation, backoff.WithContext(policy, ctx)); err != nil {
		return fmt.Errorf("failed to submit transaction: %w", err)
	}

	return nil
}

// RetryingReader decorates a Reader with exponential backoff. Not-found is
// terminal for a cycle: the session simply isn't indexed yet.
type RetryingReader struct {
	inner       Reader
	maxInterval time.Duration
}

func NewRetryingReader(inner Reader) *RetryingReader {
	return &RetryingReader{inner: inner, maxInterval: 2 * time.Second}
}

func (that *RetryingReader) FetchSnapshot(ctx context.Context, sessionID uint64) ([]byte, error) {
	var data []byte

	policy := backoff.NewExponentialBackOff()
	policy.MaxInterval = that.maxInterval
	policy.MaxElapsedTime = 15 * time.Second

	operation := func() error {
		var err error
		data, err = that.inner.FetchSnapshot(ctx, sessionID)
		if errors.Is(err, apperror.ErrSessionNotFound) {
			return backoff.Permanent(err)
		}
		return err
	}

	if err := backoff.Retry(operation, backoff.WithContext(policy, ctx)); err != nil {
		return nil, fmt.Errorf("failed to fetch snapshot: %w", err)
	}

	return data, nil
}
