package khalti

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gateway(t *testing.T, status int, reply map[string]any) (*httptest.Server, *map[string]any) {
	t.Helper()
	got := map[string]any{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/payment/verify/", r.URL.Path)
		assert.Equal(t, "Key test-secret", r.Header.Get("Authorization"))
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(reply)
	}))
	t.Cleanup(srv.Close)
	return srv, &got
}

func TestVerify_Completed(t *testing.T) {
	srv, got := gateway(t, http.StatusOK, map[string]any{
		"idx": "8xmeJnNXfoVjCvGcZiiGe7", "amount": 80000, "state": map[string]any{"name": "Completed"},
	})
	c := New(srv.URL+"/", "test-secret", time.Second)

	v, err := c.Verify(context.Background(), "tok", 80000)
	require.NoError(t, err)
	assert.Equal(t, "8xmeJnNXfoVjCvGcZiiGe7", v.IDX)
	assert.Equal(t, int64(80000), v.Amount)
	assert.Equal(t, "tok", (*got)["token"])
	assert.EqualValues(t, 80000, (*got)["amount"])
	assert.Contains(t, v.Raw, "Completed")
}

func TestVerify_NotCompleted(t *testing.T) {
	srv, _ := gateway(t, http.StatusOK, map[string]any{
		"idx": "x", "amount": 80000, "state": map[string]any{"name": "Pending"},
	})
	_, err := New(srv.URL, "test-secret", time.Second).Verify(context.Background(), "tok", 80000)
	assert.ErrorIs(t, err, ErrNotCompleted)
}

func TestVerify_AmountMismatch(t *testing.T) {
	srv, _ := gateway(t, http.StatusOK, map[string]any{
		"idx": "x", "amount": 1000, "state": map[string]any{"name": "Completed"},
	})
	_, err := New(srv.URL, "test-secret", time.Second).Verify(context.Background(), "tok", 80000)
	assert.ErrorIs(t, err, ErrAmountMismatch)
}

func TestVerify_Rejected(t *testing.T) {
	srv, _ := gateway(t, http.StatusBadRequest, map[string]any{
		"detail": "Invalid token.", "error_key": "validation_error",
	})
	_, err := New(srv.URL, "test-secret", time.Second).Verify(context.Background(), "bad", 80000)
	assert.ErrorIs(t, err, ErrRejected)
	assert.Contains(t, err.Error(), "Invalid token.")
}

func TestVerify_GarbageBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>oops</html>"))
	}))
	defer srv.Close()

	_, err := New(srv.URL, "test-secret", time.Second).Verify(context.Background(), "tok", 100)
	assert.ErrorIs(t, err, ErrUnexpectedResponse)
}
