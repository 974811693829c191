package server

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"google.golang.org/grpc/codes"

	"github.com/joseph-ayodele/jobapply/internal/common"
	"github.com/joseph-ayodele/jobapply/internal/credits"
)

// HTTPStatus maps an error class to its HTTP status.
func HTTPStatus(code codes.Code) int {
	switch code {
	case codes.OK:
		return http.StatusOK
	case codes.InvalidArgument:
		return http.StatusBadRequest
	case codes.NotFound:
		return http.StatusNotFound
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	case codes.ResourceExhausted:
		return http.StatusPaymentRequired
	case codes.FailedPrecondition:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func errorCode(err error, code codes.Code) string {
	var ae *common.AppError
	if errors.As(err, &ae) && ae.Code != "" {
		return ae.Code
	}
	if _, ok := credits.IsInsufficient(err); ok {
		return "INSUFFICIENT_CREDITS"
	}
	return code.String()
}

func respondError(c *gin.Context, logger *slog.Logger, err error) {
	code := common.CodeOf(err)
	status := HTTPStatus(code)
	body := gin.H{"error": common.MessageOf(err), "code": errorCode(err, code)}
	if ie, ok := credits.IsInsufficient(err); ok {
		body["needed"] = ie.Needed
		body["have"] = ie.Have
	}
	if common.IsValidation(err) && logger != nil {
		logger.Info("http.validation_failed", "route", c.FullPath(), "error", err)
	}
	if status >= http.StatusInternalServerError {
		var ae *common.AppError
		if !errors.As(err, &ae) {
			body["error"] = "internal error"
		}
		if logger != nil {
			logger.Error("http.error", "route", c.FullPath(), "error", err)
		}
	}
	c.AbortWithStatusJSON(status, body)
}

// bindOptionalJSON decodes the body into dst unless it is empty.
func bindOptionalJSON(c *gin.Context, dst any) error {
	if c.Request.ContentLength == 0 {
		return nil
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return common.NewAppError("INVALID_BODY", "invalid request body: "+err.Error(), common.ErrInvalidInput)
	}
	return nil
}
