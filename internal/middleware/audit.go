package middleware

import (
	"net/http"
	"strings"
	"time"

	"simledger/internal/common"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// AuditMiddleware writes one structured log line per ledger-mutating request
// with the operator who made it.
type AuditMiddleware struct {
	logger *zap.Logger
}

func NewAuditMiddleware(logger *zap.Logger) *AuditMiddleware {
	return &AuditMiddleware{logger: logger.Named("audit")}
}

func (m *AuditMiddleware) AuditRequest() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			method := c.Request().Method
			path := c.Path()
			if !shouldAudit(method, path, err) {
				return err
			}

			ctx := c.Request().Context()
			actor, _ := common.GetActorFromContext(ctx)
			role, _ := common.GetRoleFromContext(ctx)

			fields := []zap.Field{
				zap.String("method", method),
				zap.String("path", path),
				zap.String("uri", c.Request().RequestURI),
				zap.String("actor", actor),
				zap.String("role", role),
				zap.String("ip", c.RealIP()),
				zap.Int("status", c.Response().Status),
				zap.Duration("elapsed", time.Since(start)),
			}
			if sessionID, ok := common.GetSessionIDFromContext(ctx); ok {
				fields = append(fields, zap.String("session_id", sessionID))
			}
			if err != nil {
				fields = append(fields, zap.Error(err))
			}

			m.logger.Info("operator request", fields...)
			return err
		}
	}
}

// shouldAudit keeps writes and failures; reads of health and metrics never are.
func shouldAudit(method, path string, reqErr error) bool {
	if strings.HasPrefix(path, "/health") || path == "/metrics" {
		return false
	}
	if reqErr != nil {
		return true
	}
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}
