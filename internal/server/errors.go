package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"meal-planner/internal/checkout"
)

var registerTagNames sync.Once

// useJSONFieldNames makes validation errors report json field names.
func useJSONFieldNames() {
	registerTagNames.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
	})
}

// bindingMessage turns a binding error into a short readable message.
func bindingMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "Invalid request body."
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Namespace()
		if _, rest, ok := strings.Cut(field, "."); ok {
			field = rest
		}
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", field))
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s must have at least %s entries", field, fe.Param()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s", field, fe.Param()))
		case "gte":
			msgs = append(msgs, fmt.Sprintf("%s must be %s or more", field, fe.Param()))
		case "lte":
			msgs = append(msgs, fmt.Sprintf("%s must be %s or less", field, fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", field))
		}
	}
	return strings.Join(msgs, "; ")
}

// writeCheckoutError maps err onto the checkout response contract.
func writeCheckoutError(c *gin.Context, err error) {
	ce, ok := checkout.AsError(err)
	if !ok {
		slog.Error("checkout request failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error."})
		return
	}

	switch ce.Kind {
	case checkout.KindValidation, checkout.KindNotFound:
		c.JSON(ce.Status(), gin.H{"error": ce.Message})
	case checkout.KindRateLimited:
		c.Header("Retry-After", strconv.Itoa(retryAfterSeconds(ce.RetryAfter)))
		c.JSON(ce.Status(), gin.H{
			"error":        ce.Message,
			"code":         ce.Code(),
			"retryAfterMs": ce.RetryAfter.Milliseconds(),
		})
	default:
		c.JSON(ce.Status(), gin.H{"error": ce.Message, "code": ce.Code()})
	}
}
