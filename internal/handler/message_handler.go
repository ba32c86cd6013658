package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/upstander-api/internal/dto"
	"github.com/noah-isme/upstander-api/internal/models"
	appErrors "github.com/noah-isme/upstander-api/pkg/errors"
	"github.com/noah-isme/upstander-api/pkg/response"
)

type messageAppender interface {
	AppendMessage(ctx context.Context, reportID, text string, sender models.MessageSender, actor *models.JWTClaims) (*models.ConversationMessage, error)
}

// MessageHandler serves the shared message endpoint used by both parties.
type MessageHandler struct {
	reports messageAppender
}

// NewMessageHandler constructs a MessageHandler.
func NewMessageHandler(reports messageAppender) *MessageHandler {
	return &MessageHandler{reports: reports}
}

// Post godoc
// @Summary Append a conversation message
// @Description Reporter messages need only the report id. Admin messages need a bearer token from the report's school.
// @Tags Messages
// @Accept json
// @Produce json
// @Param payload body dto.PostMessageRequest true "Message"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Router /messages [post]
func (h *MessageHandler) Post(c *gin.Context) {
	var req dto.PostMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid message payload"))
		return
	}
	var actor *models.JWTClaims
	if req.Sender == models.SenderAdmin {
		if actor = claimsFromContext(c); actor == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			return
		}
	}

	msg, err := h.reports.AppendMessage(c.Request.Context(), req.ReportID, req.Text, req.Sender, actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, dto.NewMessageResponse(*msg), nil)
}
