// Package khalti verifies Khalti wallet payments with the merchant secret key.
package khalti

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var (
	ErrNotCompleted       = errors.New("khalti: payment is not completed")
	ErrAmountMismatch     = errors.New("khalti: amount does not match")
	ErrRejected           = errors.New("khalti: verification rejected")
	ErrUnexpectedResponse = errors.New("khalti: unexpected response from gateway")
)

const stateCompleted = "Completed"

type Client struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
}

func New(baseURL, secretKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		secretKey:  secretKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Verification is the part of the verify response the booking flow needs.
type Verification struct {
	IDX    string
	Amount int64
	State  string
	Raw    string
}

// Verify confirms token for amount paisa. A nil error means the gateway
// reported a completed payment of exactly that amount.
func (c *Client) Verify(ctx context.Context, token string, amount int64) (*Verification, error) {
	body := map[string]any{
		"token":  token,
		"amount": amount,
	}

	var resp struct {
		IDX    string `json:"idx"`
		Amount int64  `json:"amount"`
		State  struct {
			Name string `json:"name"`
		} `json:"state"`
		Detail    string `json:"detail"`
		ErrorKey  string `json:"error_key"`
		Token     any    `json:"token"`
		AmountErr any    `json:"amount_error"`
	}

	raw, status, err := c.post(ctx, "/payment/verify/", body, &resp)
	if err != nil {
		return nil, fmt.Errorf("khalti verify: %w", err)
	}

	v := &Verification{IDX: resp.IDX, Amount: resp.Amount, State: resp.State.Name, Raw: raw}

	if status != http.StatusOK {
		msg := resp.Detail
		if msg == "" {
			msg = http.StatusText(status)
		}
		return v, fmt.Errorf("%w (status=%d, detail=%s)", ErrRejected, status, msg)
	}
	if v.State != stateCompleted {
		return v, fmt.Errorf("%w (state=%q)", ErrNotCompleted, v.State)
	}
	if v.Amount != amount {
		return v, fmt.Errorf("%w (claimed=%d, reported=%d)", ErrAmountMismatch, amount, v.Amount)
	}
	if v.IDX == "" {
		return v, ErrUnexpectedResponse
	}
	return v, nil
}

func (c *Client) post(ctx context.Context, path string, body any, out any) (string, int, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return "", 0, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return "", 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Key "+c.secretKey)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("http do: %w", err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return "", res.StatusCode, fmt.Errorf("read response: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return string(data), res.StatusCode, fmt.Errorf("%w: %v", ErrUnexpectedResponse, err)
	}
	return string(data), res.StatusCode, nil
}
