package handlers

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/taskflowhq/taskflow/internal/provider"
	"github.com/taskflowhq/taskflow/internal/services"
	"github.com/taskflowhq/taskflow/pkg/logger"
	"github.com/taskflowhq/taskflow/pkg/response"
)

// WebhookHandler receives identity-provider deliveries. The endpoint is
// unauthenticated; the HMAC signature is the only gate, so it must be
// configured in production.
type WebhookHandler struct {
	sync   *services.SyncService
	secret string
}

func NewWebhookHandler(sync *services.SyncService, secret string) *WebhookHandler {
	return &WebhookHandler{sync: sync, secret: secret}
}

func (h *WebhookHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		response.Fail(c, response.NewValidation("unreadable body"))
		return
	}

	sig := c.GetHeader("X-Webhook-Signature")
	if err := provider.VerifyWebhookSignature(h.secret, body, sig); err != nil {
		if errors.Is(err, provider.ErrBadSignature) {
			logger.Warn().Str("ip", c.ClientIP()).Msg("webhook signature rejected")
			response.Fail(c, response.NewUnauthorized())
			return
		}
		response.Fail(c, err)
		return
	}

	event, err := provider.ParseWebhookEvent(body)
	if err != nil {
		response.Fail(c, response.NewValidation("malformed webhook body"))
		return
	}

	switch event.Type {
	case provider.EventUserCreated, provider.EventUserUpdated:
		if _, _, err := h.sync.UpsertUser(event.User); err != nil {
			response.Fail(c, err)
			return
		}
	case provider.EventUserDeleted:
		if err := h.sync.DeleteUser(event.User.ID); err != nil {
			response.Fail(c, err)
			return
		}
	default:
		// Unknown event types are acknowledged so the provider does not
		// retry them forever.
		logger.Debug().Str("type", event.Type).Msg("ignoring webhook event")
	}

	response.OK(c, gin.H{"received": true})
}
