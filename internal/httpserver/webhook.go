package httpserver

import (
	"errors"
	"net/http"

	"storefront-checkout/internal/domain"

	"github.com/gin-gonic/gin"
)

type inboundMessage struct {
	Phone      string `json:"phone"`
	SenderName string `json:"senderName"`
}

// whatsappWebhook receives inbound messages from the gateway. It always
// answers 200 so the gateway does not retry; the outcome is in the body.
func (h *handler) whatsappWebhook(c *gin.Context) {
	var msg inboundMessage
	if err := c.ShouldBindJSON(&msg); err != nil {
		h.logger.Warn().Err(err).Msg("malformed webhook payload")
		c.JSON(http.StatusOK, gin.H{"success": false, "message": "malformed payload"})
		return
	}
	res, err := h.clients.HandleInbound(c.Request.Context(), msg.Phone, msg.SenderName)
	if err != nil {
		h.logger.Warn().Err(err).Msg("webhook message not handled")
		msg := "message could not be processed"
		if errors.Is(err, domain.ErrValidation) {
			msg = err.Error()
		}
		c.JSON(http.StatusOK, gin.H{"success": false, "message": msg})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "welcomeSent": res.Welcome, "clientId": res.Client.ID})
}
