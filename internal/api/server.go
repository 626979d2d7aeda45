// Package api exposes the wallet session over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"solana-wallet-lab/internal/domain"
	"solana-wallet-lab/internal/notify"
	"solana-wallet-lab/internal/observability"
	"solana-wallet-lab/internal/transfer"
	"solana-wallet-lab/internal/view"
	"solana-wallet-lab/internal/wallet"
)

// Wallet is the session surface used by the handlers.
type Wallet interface {
	Snapshot() view.Snapshot
	Connect(ctx context.Context) (string, error)
	Disconnect(ctx context.Context) error
	Refresh(ctx context.Context) error
	RefreshTransactions(ctx context.Context) error
	Send(ctx context.Context, recipient, amount string) (*transfer.Result, error)
}

// Notifications lists and dismisses toasts.
type Notifications interface {
	List() []notify.Notification
	Dismiss(id string) bool
}

// Handler serves the wallet API.
type Handler struct {
	wallet        Wallet
	notifications Notifications
	logger        *zap.Logger
}

// NewHandler creates a Handler.
func NewHandler(w Wallet, n Notifications, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{wallet: w, notifications: n, logger: logger.Named("api")}
}

// NewRouter builds the gin engine with CORS, logging and recovery.
func NewRouter(h *Handler, corsOrigins []string) *gin.Engine {
	router := gin.New()

	corsConfig := cors.DefaultConfig()
	if len(corsOrigins) == 0 {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = corsOrigins
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	router.Use(cors.New(corsConfig))
	router.Use(zapMiddleware(h.logger))
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(observability.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/wallet", h.getWallet)
		v1.POST("/wallet/connect", h.connect)
		v1.POST("/wallet/disconnect", h.disconnect)
		v1.POST("/wallet/refresh", h.refresh)
		v1.POST("/wallet/refresh/transactions", h.refreshTransactions)
		v1.POST("/wallet/send", h.send)
		v1.GET("/notifications", h.listNotifications)
		v1.DELETE("/notifications/:id", h.dismissNotification)
	}
	return router
}

type sendRequest struct {
	Recipient string `json:"recipient" binding:"required"`
	Amount    string `json:"amount" binding:"required"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) getWallet(c *gin.Context) {
	c.JSON(http.StatusOK, h.wallet.Snapshot())
}

func (h *Handler) connect(c *gin.Context) {
	if _, err := h.wallet.Connect(c.Request.Context()); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, h.wallet.Snapshot())
}

func (h *Handler) disconnect(c *gin.Context) {
	if err := h.wallet.Disconnect(c.Request.Context()); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, h.wallet.Snapshot())
}

// refresh returns the snapshot even when some steps failed; per-step
// errors are part of the snapshot.
func (h *Handler) refresh(c *gin.Context) {
	if err := h.wallet.Refresh(c.Request.Context()); errors.Is(err, domain.ErrNotConnected) {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, h.wallet.Snapshot())
}

func (h *Handler) refreshTransactions(c *gin.Context) {
	if err := h.wallet.RefreshTransactions(c.Request.Context()); errors.Is(err, domain.ErrNotConnected) {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, h.wallet.Snapshot())
}

func (h *Handler) send(c *gin.Context) {
	var req sendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	res, err := h.wallet.Send(c.Request.Context(), req.Recipient, req.Amount)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) listNotifications(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"notifications": h.notifications.List()})
}

func (h *Handler) dismissNotification(c *gin.Context) {
	if !h.notifications.Dismiss(c.Param("id")) {
		c.JSON(http.StatusNotFound, errorResponse{Error: "notification not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) fail(c *gin.Context, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, errorResponse{Error: err.Error()})
}

// StatusFor maps wallet errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidAddress), errors.Is(err, domain.ErrInvalidAmount):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotConnected), errors.Is(err, wallet.ErrConnectInProgress),
		errors.Is(err, wallet.ErrConnectAborted):
		return http.StatusConflict
	case errors.Is(err, domain.ErrTransactionRejected), errors.Is(err, domain.ErrTransientNetwork),
		errors.Is(err, domain.ErrMaxRetriesExceeded):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func zapMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
