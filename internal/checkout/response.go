package checkout

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ParseResult is the outcome of ParseSessionResponse: either ParsedSession
// or RejectedResponse.
type ParseResult interface {
	isParseResult()
}

// ParsedSession is a provider response that passed validation.
type ParsedSession struct {
	SessionID      string
	CheckoutURL    string
	UnmatchedItems []UnmatchedItem
}

// RejectedResponse is a provider response that failed validation.
type RejectedResponse struct {
	Reason string
}

func (ParsedSession) isParseResult()    {}
func (RejectedResponse) isParseResult() {}

type wireUnmatched struct {
	Name   string   `json:"name" validate:"required"`
	Qty    *float64 `json:"qty"`
	Unit   string   `json:"unit"`
	Reason string   `json:"reason"`
}

type wireSession struct {
	SessionID      *string         `json:"sessionId" validate:"required"`
	CheckoutURL    *string         `json:"checkoutUrl" validate:"required,http_url"`
	UnmatchedItems []wireUnmatched `json:"unmatchedItems" validate:"omitempty,dive"`
}

var responseValidator = validator.New(validator.WithRequiredStructEnabled())

// ParseSessionResponse validates a raw provider response body. It never
// returns a partially trusted session.
func ParseSessionResponse(body []byte) ParseResult {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return RejectedResponse{Reason: "response is not a JSON object"}
	}

	var wire wireSession
	if err := json.Unmarshal(trimmed, &wire); err != nil {
		return RejectedResponse{Reason: fmt.Sprintf("malformed JSON: %v", err)}
	}
	if err := responseValidator.Struct(wire); err != nil {
		return RejectedResponse{Reason: describeValidation(err)}
	}
	if strings.TrimSpace(*wire.SessionID) == "" {
		return RejectedResponse{Reason: "sessionId is empty"}
	}

	out := ParsedSession{
		SessionID:      *wire.SessionID,
		CheckoutURL:    *wire.CheckoutURL,
		UnmatchedItems: make([]UnmatchedItem, 0, len(wire.UnmatchedItems)),
	}
	for _, u := range wire.UnmatchedItems {
		out.UnmatchedItems = append(out.UnmatchedItems, UnmatchedItem(u))
	}
	return out
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}

type wireError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// providerMessage extracts the provider's own error message, if any.
func providerMessage(body []byte) string {
	var w wireError
	if err := json.Unmarshal(body, &w); err != nil {
		return ""
	}
	if msg := strings.TrimSpace(w.Error); msg != "" {
		return msg
	}
	return strings.TrimSpace(w.Message)
}
