package transport

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/fastygo/citydesk/domain"
)

var validate = validator.New()

type SessionRequest struct {
	UserID string `json:"user_id" validate:"required,max=64"`
	TTL    int    `json:"ttl_seconds" validate:"gte=0,lte=604800"`
}

type RefreshRequest struct {
	TTL int `json:"ttl_seconds" validate:"gte=0,lte=604800"`
}

type CreateRequestRequest struct {
	CategoryID string `json:"category_id" validate:"required,max=64"`
	Subject    string `json:"subject" validate:"required,max=200"`
	Message    string `json:"message" validate:"required,max=4000"`
}

// SendMessageRequest carries no validation tags: a closed request must answer
// CLOSED whatever the content, so content rules are applied after that check.
type SendMessageRequest struct {
	Content string `json:"content"`
}

type MarkReadRequest struct {
	MessageIDs []string `json:"message_ids" validate:"required,max=500,dive,required"`
}

// FocusRequest selects the request shown in the actor's chat window. An
// empty id clears the selection.
type FocusRequest struct {
	RequestID string `json:"request_id" validate:"max=64"`
}

// Decode unmarshals a JSON body into dst and validates its tags. Every
// failure is reported as an INVALID domain error.
func Decode(body []byte, dst interface{}) error {
	if len(body) == 0 {
		return domain.ErrInvalidPayload
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return domain.WrapError(domain.ErrCodeInvalid, "malformed json", err)
	}
	if err := validate.Struct(dst); err != nil {
		return domain.WrapError(domain.ErrCodeInvalid, describe(err), err)
	}
	return nil
}

func describe(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return "invalid payload"
	}
	fields := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields = append(fields, strings.ToLower(fe.Field())+" failed "+fe.Tag())
	}
	return "invalid payload: " + strings.Join(fields, ", ")
}
