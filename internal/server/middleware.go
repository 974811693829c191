package server

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/jobapply/internal/common"
)

const (
	HeaderUserID    = "X-User-ID"
	HeaderRequestID = "X-Request-ID"
)

// RequestID propagates the caller's request id or mints one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(HeaderRequestID))
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(HeaderRequestID, id)
		c.Request = c.Request.WithContext(common.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

func AccessLog(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		level := slog.LevelInfo
		if c.Writer.Status() >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.Log(c.Request.Context(), level, "http.request",
			"method", c.Request.Method,
			"route", c.FullPath(),
			"status", c.Writer.Status(),
			"req_id", common.RequestIDFromContext(c.Request.Context()),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	}
}

func Recovery(logger *slog.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, rec any) {
		logger.Error("http.panic", "route", c.FullPath(), "panic", rec)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error", "code": "INTERNAL"})
	})
}

// RequireUser reads the caller identity from X-User-ID. Authentication
// happens upstream.
func RequireUser(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(strings.TrimSpace(c.GetHeader(HeaderUserID)))
		if err != nil || id == uuid.Nil {
			logger.Warn("http.unauthenticated", "route", c.FullPath())
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": HeaderUserID + " header must carry a user UUID",
				"code":  "UNAUTHENTICATED",
			})
			return
		}
		c.Request = c.Request.WithContext(common.WithUserID(c.Request.Context(), id))
		c.Next()
	}
}

func userID(c *gin.Context) uuid.UUID {
	id, _ := common.UserIDFromContext(c.Request.Context())
	return id
}

// pathUUID parses the :name path parameter, writing a 400 on failure.
func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := common.ParseUUID(name, c.Param(name))
	if err != nil {
		respondError(c, nil, err)
		return uuid.Nil, false
	}
	return id, true
}
