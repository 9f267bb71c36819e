package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/Mithun-VK/trading-chatbot/internal/apperr"
	"github.com/Mithun-VK/trading-chatbot/internal/domain/dto"
	"github.com/Mithun-VK/trading-chatbot/internal/logger"
)

// RetryAfterSeconds is advertised on 429 answers caused by the upstream provider.
const RetryAfterSeconds = "60"

// ErrorHandler renders the last error attached with c.Error as a dto.ErrorResponse.
//
// Mapping:
//   - validator.ValidationErrors and malformed JSON → 400 with per-field details.
//   - *apperr.Error → apperr.HTTPStatus (429 answers carry Retry-After).
//   - context.DeadlineExceeded → 504.
//   - anything else → 500 without internal details.
//
// Handlers that already wrote a response are left alone.
func ErrorHandler(c *gin.Context) {
	c.Next()

	if c.Writer.Written() {
		return
	}
	if len(c.Errors) == 0 {
		if errors.Is(c.Request.Context().Err(), context.DeadlineExceeded) {
			AbortWithError(c, http.StatusGatewayTimeout, "request timed out", nil)
		}
		return
	}

	err := c.Errors.Last().Err

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		AbortWithError(c, http.StatusBadRequest, "invalid request", errors.New(describeValidation(ve)))
		return
	}
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		AbortWithError(c, http.StatusBadRequest, "invalid request body", err)
		return
	}

	var ae *apperr.Error
	if errors.As(err, &ae) {
		status := apperr.HTTPStatus(ae)
		if ae.Kind == apperr.RateLimited {
			c.Header("Retry-After", RetryAfterSeconds)
		}
		if status >= http.StatusInternalServerError {
			logger.L().Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
		}
		var detail error
		if ae.Kind != apperr.Internal && ae.Err != nil {
			detail = ae.Err
		}
		AbortWithError(c, status, ae.Message, detail)
		return
	}

	if errors.Is(err, context.DeadlineExceeded) {
		AbortWithError(c, http.StatusGatewayTimeout, "request timed out", nil)
		return
	}

	logger.L().Error().Err(err).Str("path", c.Request.URL.Path).Msg("unhandled error")
	AbortWithError(c, http.StatusInternalServerError, "internal server error", nil)
}

// AbortWithError stops the chain and writes a dto.ErrorResponse with status.
func AbortWithError(c *gin.Context, status int, message string, err error) {
	c.AbortWithStatusJSON(status, dto.NewErrorResponse(message, err))
}

func describeValidation(ve validator.ValidationErrors) string {
	parts := make([]string, 0, len(ve))
	for _, fe := range ve {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s failed on '%s=%s'", fe.Field(), fe.Tag(), fe.Param()))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s failed on '%s'", fe.Field(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}
