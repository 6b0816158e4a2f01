package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/mobiverify/iap-verify/internal/domain/entity"
	"github.com/mobiverify/iap-verify/internal/interfaces/http/response"
)

// VerifyCommand is any per-store verification orchestrator.
type VerifyCommand interface {
	Execute(ctx context.Context, receipt *entity.Receipt) *entity.ValidationOutcome
}

// VerifyHandler exposes one verification route per store and API
// generation. A store without its upstream configured simply has no
// command and its route is not registered.
type VerifyHandler struct {
	appleReceipt     VerifyCommand
	appleTransaction VerifyCommand
	google           VerifyCommand
}

// NewVerifyHandler creates a new verification handler
func NewVerifyHandler(appleReceipt, appleTransaction, google VerifyCommand) *VerifyHandler {
	return &VerifyHandler{
		appleReceipt:     appleReceipt,
		appleTransaction: appleTransaction,
		google:           google,
	}
}

// Register wires the configured verification routes onto the router.
func (h *VerifyHandler) Register(router gin.IRouter) {
	if h.appleReceipt != nil {
		router.POST("/v1/Apple", h.handle(h.appleReceipt))
	}
	if h.appleTransaction != nil {
		router.POST("/v2/Apple", h.handle(h.appleTransaction))
	}
	if h.google != nil {
		router.POST("/v1/Google", h.handle(h.google))
	}
}

func (h *VerifyHandler) handle(cmd VerifyCommand) gin.HandlerFunc {
	return func(c *gin.Context) {
		var receipt entity.Receipt
		if err := c.ShouldBindJSON(&receipt); err != nil {
			response.BadRequest(c)
			return
		}

		outcome := cmd.Execute(c.Request.Context(), &receipt)
		if outcome.IsValid && outcome.ValidatedReceipt != nil {
			response.OK(c, outcome.ValidatedReceipt)
			return
		}

		response.BadRequest(c)
	}
}
