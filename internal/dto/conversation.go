package dto

import (
	"time"

	"github.com/noah-isme/upstander-api/internal/models"
)

// PostMessageRequest captures POST /messages payload.
type PostMessageRequest struct {
	ReportID string               `json:"reportId" validate:"required"`
	Text     string               `json:"text" validate:"notblank,max=5000"`
	Sender   models.MessageSender `json:"sender" validate:"required,message_sender"`
}

// MessageTextRequest is used where the sender is implied by the route. The
// service validates it as a PostMessageRequest.
type MessageTextRequest struct {
	Text string `json:"text"`
}

// MessageQuery binds the short-poll cursor.
type MessageQuery struct {
	Since string `form:"since"`
}

// MessageResponse is a conversation message as exposed to either party.
type MessageResponse struct {
	ID     string               `json:"id"`
	Sender models.MessageSender `json:"sender"`
	Text   string               `json:"text"`
	SentAt time.Time            `json:"sentAt"`
}

// NewMessageResponse converts a stored message.
func NewMessageResponse(m models.ConversationMessage) MessageResponse {
	return MessageResponse{ID: m.ID, Sender: m.Sender, Text: m.Text, SentAt: m.SentAt}
}

// NewMessageResponses converts a thread, never returning nil.
func NewMessageResponses(messages []models.ConversationMessage) []MessageResponse {
	out := make([]MessageResponse, 0, len(messages))
	for _, m := range messages {
		out = append(out, NewMessageResponse(m))
	}
	return out
}
