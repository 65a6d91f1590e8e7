// Package esewa checks eSewa ePay v2 transaction status.
package esewa

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

var (
	ErrNotComplete        = errors.New("esewa: transaction is not complete")
	ErrAmountMismatch     = errors.New("esewa: amount does not match")
	ErrUnexpectedResponse = errors.New("esewa: unexpected response from gateway")
)

const statusComplete = "COMPLETE"

type Client struct {
	statusURL   string
	productCode string
	httpClient  *http.Client
}

func New(statusURL, productCode string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		statusURL:   statusURL,
		productCode: productCode,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

type Status struct {
	TransactionUUID string
	RefID           string
	Status          string
	TotalAmount     float64
	Raw             string
}

// CheckStatus asks eSewa about transactionUUID. A nil error means the
// transaction is COMPLETE for exactly totalAmount rupees.
func (c *Client) CheckStatus(ctx context.Context, transactionUUID string, totalAmount float64) (*Status, error) {
	q := url.Values{}
	q.Set("product_code", c.productCode)
	q.Set("total_amount", FormatAmount(totalAmount))
	q.Set("transaction_uuid", transactionUUID)

	sep := "?"
	if strings.Contains(c.statusURL, "?") {
		sep = "&"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.statusURL+sep+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("esewa status: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("esewa status: http do: %w", err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("esewa status: read response: %w", err)
	}

	var body struct {
		ProductCode     string          `json:"product_code"`
		TransactionUUID string          `json:"transaction_uuid"`
		TotalAmount     json.RawMessage `json:"total_amount"`
		Status          string          `json:"status"`
		RefID           *string         `json:"ref_id"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnexpectedResponse, err)
	}

	st := &Status{
		TransactionUUID: body.TransactionUUID,
		Status:          body.Status,
		Raw:             string(data),
	}
	if body.RefID != nil {
		st.RefID = *body.RefID
	}
	amount, err := parseAmount(body.TotalAmount)
	if err != nil {
		return st, fmt.Errorf("%w: total_amount: %v", ErrUnexpectedResponse, err)
	}
	st.TotalAmount = amount

	if res.StatusCode != http.StatusOK {
		return st, fmt.Errorf("%w (status=%d)", ErrUnexpectedResponse, res.StatusCode)
	}
	if st.Status != statusComplete {
		return st, fmt.Errorf("%w (status=%q)", ErrNotComplete, st.Status)
	}
	if toPaisa(st.TotalAmount) != toPaisa(totalAmount) {
		return st, fmt.Errorf("%w (claimed=%s, reported=%s)", ErrAmountMismatch, FormatAmount(totalAmount), FormatAmount(st.TotalAmount))
	}
	return st, nil
}

// FormatAmount renders rupees the way eSewa echoes them back.
func FormatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// parseAmount accepts both a JSON number and a quoted number.
func parseAmount(raw json.RawMessage) (float64, error) {
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	if s == "" || s == "null" {
		return 0, nil
	}
	return strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
}

func toPaisa(v float64) int64 {
	if v < 0 {
		return int64(v*100 - 0.5)
	}
	return int64(v*100 + 0.5)
}
