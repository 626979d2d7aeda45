package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-wallet-lab/internal/app"
	"solana-wallet-lab/internal/config"
	"solana-wallet-lab/internal/domain"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func noSleep(ctx context.Context, _ time.Duration) error { return ctx.Err() }

func newTestRouter(t *testing.T) (*gin.Engine, *app.Session) {
	t.Helper()
	cfg := &config.Config{}
	cfg.ApplyDefaults()

	s, err := app.New(context.Background(), cfg, nil, app.WithSleeper(noSleep))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	return NewRouter(NewHandler(s, s.Notifier, nil), nil), s
}

func do(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	router, _ := newTestRouter(t)
	w := do(router, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestWalletFlow(t *testing.T) {
	router, s := newTestRouter(t)

	w := do(router, http.MethodGet, "/api/v1/wallet", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"disconnected"`)

	w = do(router, http.MethodPost, "/api/v1/wallet/refresh", "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(router, http.MethodPost, "/api/v1/wallet/connect", "")
	require.Equal(t, http.StatusOK, w.Code)
	s.Wait()

	w = do(router, http.MethodPost, "/api/v1/wallet/refresh", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"display":"1.5000"`)

	w = do(router, http.MethodPost, "/api/v1/wallet/send",
		`{"recipient":"DRpbCBMxVnDK7maPM5tGv6MvB3v1sRMC86PZ8okm21hy","amount":"0.1"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"amount":"0.1"`)

	w = do(router, http.MethodGet, "/api/v1/notifications", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Transaction sent")

	list := s.Notifier.List()
	require.NotEmpty(t, list)
	w = do(router, http.MethodDelete, "/api/v1/notifications/"+list[0].ID, "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = do(router, http.MethodDelete, "/api/v1/notifications/"+list[0].ID, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(router, http.MethodPost, "/api/v1/wallet/disconnect", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"disconnected"`)
}

func TestSend_Validation(t *testing.T) {
	router, s := newTestRouter(t)

	w := do(router, http.MethodPost, "/api/v1/wallet/send", `{"recipient":"x","amount":"1"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	_, err := s.Connect(context.Background())
	require.NoError(t, err)
	s.Wait()

	tests := []struct {
		body string
		code int
	}{
		{`{"recipient":"not base58!","amount":"0.1"}`, http.StatusBadRequest},
		{`{"recipient":"DRpbCBMxVnDK7maPM5tGv6MvB3v1sRMC86PZ8okm21hy","amount":"0"}`, http.StatusBadRequest},
		{`{"recipient":"DRpbCBMxVnDK7maPM5tGv6MvB3v1sRMC86PZ8okm21hy","amount":"100"}`, http.StatusBadRequest},
		{`{"recipient":"DRpbCBMxVnDK7maPM5tGv6MvB3v1sRMC86PZ8okm21hy"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		w := do(router, http.MethodPost, "/api/v1/wallet/send", tt.body)
		assert.Equal(t, tt.code, w.Code, tt.body)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.ErrInvalidAddress, http.StatusBadRequest},
		{domain.ErrInsufficientBalance, http.StatusBadRequest},
		{domain.ErrNotConnected, http.StatusConflict},
		{fmt.Errorf("%w: boom", domain.ErrTransactionRejected), http.StatusBadGateway},
		{domain.ErrMaxRetriesExceeded, http.StatusBadGateway},
		{errors.New("other"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(tt.err), tt.err.Error())
	}
}
