package server

import (
	"context"
	"math"
	"math/big"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sisu-network/lib/log"

	"github.com/prizedrop/tokensend/config"
	"github.com/prizedrop/tokensend/telemetry"
	"github.com/prizedrop/tokensend/types"
	"github.com/prizedrop/tokensend/utils"
)

// TransferExecutor is the transfer pipeline behind the API. Declared here so
// that handlers can be tested against a mock.
type TransferExecutor interface {
	Execute(ctx context.Context, recipient string, amount *big.Int) *types.TransferResult
}

// HealthChecker reports whether the RPC node is currently reachable.
type HealthChecker interface {
	Connected() bool
}

type TransferRequest struct {
	Recipient string  `json:"recipient" binding:"required"`
	Amount    float64 `json:"amount"`
}

type ApiHandler struct {
	executor TransferExecutor
	health   HealthChecker

	decimals     int
	winnerAmount float64
	drawAmount   float64
}

func NewApi(executor TransferExecutor, health HealthChecker, cfg config.Config) *ApiHandler {
	return &ApiHandler{
		executor:     executor,
		health:       health,
		decimals:     cfg.TokenDecimals,
		winnerAmount: cfg.WinnerAmount,
		drawAmount:   cfg.DrawAmount,
	}
}

func (api *ApiHandler) RegisterRoutes(router *gin.Engine) {
	router.POST("/send_tokens/", api.SendTokens)
	router.POST("/winner_tokens/", api.WinnerTokens)
	router.POST("/draw_tokens/", api.DrawTokens)

	router.GET("/", api.Root)
	router.GET("/ping", api.Ping)
	router.GET("/health", api.CheckHealth)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// SendTokens transfers a caller-specified amount.
func (api *ApiHandler) SendTokens(c *gin.Context) {
	req, ok := api.bindRequest(c)
	if !ok {
		return
	}

	api.transfer(c, req.Recipient, req.Amount)
}

// WinnerTokens transfers the fixed winner payout. The amount in the request
// body is ignored.
func (api *ApiHandler) WinnerTokens(c *gin.Context) {
	req, ok := api.bindRequest(c)
	if !ok {
		return
	}

	api.transfer(c, req.Recipient, api.winnerAmount)
}

// DrawTokens transfers the fixed draw payout. The amount in the request body
// is ignored.
func (api *ApiHandler) DrawTokens(c *gin.Context) {
	req, ok := api.bindRequest(c)
	if !ok {
		return
	}

	api.transfer(c, req.Recipient, api.drawAmount)
}

func (api *ApiHandler) bindRequest(c *gin.Context) (TransferRequest, bool) {
	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid request body."})
		return req, false
	}

	return req, true
}

// transfer is the single parameterized operation behind all three POST routes.
// Validation failures never reach the executor; all executor failures map to
// the fixed client/server error bodies so that internal detail stays in the
// log.
func (api *ApiHandler) transfer(c *gin.Context, recipient string, amount float64) {
	if amount < 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		telemetry.TransfersTotal.WithLabelValues("invalid_amount").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid amount."})
		return
	}

	units := utils.FloatToUnits(amount, api.decimals)
	result := api.executor.Execute(c.Request.Context(), recipient, units)

	outcome := "success"
	if !result.Success {
		outcome = result.Err.String()
	}
	telemetry.TransfersTotal.WithLabelValues(outcome).Inc()

	if result.Success {
		c.JSON(http.StatusOK, gin.H{"status": "success", "tx_hash": result.TxHash})
		return
	}

	switch result.Err {
	case types.ErrInvalidAddress:
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid recipient address."})
	case types.ErrInsufficientBalance:
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Insufficient token balance."})
	default:
		log.Errorf("Transfer failed, kind = %s, reason = %s", result.Err, result.Reason)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error."})
	}
}

func (api *ApiHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "BSC Token Transfer API is running!"})
}

func (api *ApiHandler) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}

func (api *ApiHandler) CheckHealth(c *gin.Context) {
	if api.health.Connected() {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "rpc_connected": true})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "unhealthy", "rpc_connected": false})
}
