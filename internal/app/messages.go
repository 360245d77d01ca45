package app

import (
	"context"
	"net/http"
	"strconv"

	"github.com/jsamuelsen/go-chatkit/internal/chatkit"
	"github.com/jsamuelsen/go-chatkit/internal/domain"
)

// SendMessageParams describes a single-part message.
type SendMessageParams struct {
	SenderID   string
	RoomID     string
	Text       string
	Attachment *domain.Attachment
}

// SendMultipartMessageParams describes a message made of parts.
type SendMultipartMessageParams struct {
	SenderID string
	RoomID   string
	Parts    []domain.MessagePart
}

// SendMessage posts a text message as p.SenderID.
func (s *ChatKit) SendMessage(ctx context.Context, p SendMessageParams) (domain.MessageID, error) {
	if err := validateSend(p.SenderID, p.RoomID); err != nil {
		return domain.MessageID{}, err
	}

	if p.Text == "" && p.Attachment == nil {
		return domain.MessageID{}, domain.NewValidationError("text", "cannot be empty without an attachment")
	}

	body := map[string]any{
		"sender_id": p.SenderID,
		"text":      p.Text,
	}
	if p.Attachment != nil {
		body["attachment"] = p.Attachment
	}

	return run[domain.MessageID](ctx, s, call{
		op:       "sending message",
		method:   http.MethodPost,
		service:  chatkit.ServiceAPI,
		endpoint: "/rooms/" + seg(p.RoomID) + "/messages",
		body:     body,
		userID:   p.SenderID,
		su:       true,
	})
}

// SendMultipartMessage posts a multipart message as p.SenderID.
func (s *ChatKit) SendMultipartMessage(ctx context.Context, p SendMultipartMessageParams) (domain.MessageID, error) {
	if err := validateSend(p.SenderID, p.RoomID); err != nil {
		return domain.MessageID{}, err
	}

	if len(p.Parts) == 0 {
		return domain.MessageID{}, domain.NewValidationError("parts", "cannot be empty")
	}

	return run[domain.MessageID](ctx, s, call{
		op:       "sending multipart message",
		method:   http.MethodPost,
		service:  chatkit.ServiceChatkitV4,
		endpoint: "/rooms/" + seg(p.RoomID) + "/messages",
		body:     map[string]any{"parts": p.Parts},
		userID:   p.SenderID,
		su:       true,
	})
}

// DeleteMessage deletes one message.
func (s *ChatKit) DeleteMessage(ctx context.Context, messageID int64) error {
	return exec(ctx, s, call{
		op:       "deleting message",
		method:   http.MethodDelete,
		service:  chatkit.ServiceAPI,
		endpoint: "/messages/" + strconv.FormatInt(messageID, 10),
		su:       true,
	})
}

func validateSend(senderID, roomID string) error {
	if senderID == "" {
		return domain.NewValidationError("sender_id", "cannot be empty")
	}

	if roomID == "" {
		return domain.NewValidationError("room_id", "cannot be empty")
	}

	return nil
}
