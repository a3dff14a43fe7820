package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/hra/hra/internal/platform/auth"
)

// AuditEntry represents an audit log entry produced by the middleware.
// It captures who accessed what, when, from where, and the action type.
type AuditEntry struct {
	UserID       string
	UserRoles    []string
	ResourceType string
	SubjectID    string
	Action       string // read, create, update, delete
	IPAddress    string
	UserAgent    string
	Path         string
	Method       string
	IsBreakGlass bool
	BreakGlassReason string
	Timestamp    time.Time
	RequestID    string
	StatusCode   int
}

// AuditRecorder is the interface that the audit middleware uses to persist
// audit entries, so tests can provide a mock implementation.
type AuditRecorder interface {
	RecordAccess(entry AuditEntry) error
}

// AuditRecorderFunc is a function adapter for AuditRecorder.
type AuditRecorderFunc func(entry AuditEntry) error

func (f AuditRecorderFunc) RecordAccess(entry AuditEntry) error {
	return f(entry)
}

// Audit returns Echo middleware that intercepts requests to /v1/*, extracts
// the authenticated user from JWT claims, determines the accessed resource
// from the URL path, and logs access to clinical risk data.
//
// If no AuditRecorder is provided, it falls back to structured zerolog logging.
// Break-glass detection: if the X-Break-Glass header is present, the access is
// logged as an emergency override.
func Audit(logger zerolog.Logger, recorders ...AuditRecorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			path := req.URL.Path

			// Only audit API routes
			if !isAuditablePath(path) {
				return next(c)
			}

			// Execute the handler first so we capture the response status
			err := next(c)

			// Build audit entry
			entry := AuditEntry{
				Timestamp: time.Now().UTC(),
				Path:      path,
				Method:    req.Method,
				IPAddress: c.RealIP(),
				UserAgent: req.UserAgent(),
				StatusCode: c.Response().Status,
			}

			// Extract authenticated user from JWT claims via context
			ctx := req.Context()
			entry.UserID = auth.UserIDFromContext(ctx)
			entry.UserRoles = auth.RolesFromContext(ctx)

			// Request ID from middleware chain
			if rid, ok := c.Get("request_id").(string); ok {
				entry.RequestID = rid
			}

			// Determine action type from HTTP method
			entry.Action = httpMethodToAction(req.Method)

			// Extract resource type from path
			entry.ResourceType = extractResourceType(path)

			// Extract subject ID from path or query params
			entry.SubjectID = extractSubjectID(c)

			// Break-glass detection
			if bgReason := req.Header.Get("X-Break-Glass"); bgReason != "" {
				entry.IsBreakGlass = true
				entry.BreakGlassReason = bgReason
			}

			// Record the audit entry
			if len(recorders) > 0 && recorders[0] != nil {
				if recErr := recorders[0].RecordAccess(entry); recErr != nil {
					logger.Error().Err(recErr).
						Str("request_id", entry.RequestID).
						Msg("failed to record audit entry")
				}
			}

			// Always emit a structured log for audit trail
			evt := logger.Info()
			if entry.IsBreakGlass {
				evt = logger.Warn()
			}
			evt.
				Str("type", "access_audit").
				Str("request_id", entry.RequestID).
				Str("user_id", entry.UserID).
				Strs("user_roles", entry.UserRoles).
				Str("resource_type", entry.ResourceType).
				Str("subject_id", entry.SubjectID).
				Str("action", entry.Action).
				Str("method", entry.Method).
				Str("path", entry.Path).
				Str("remote_ip", entry.IPAddress).
				Int("status", entry.StatusCode).
				Bool("break_glass", entry.IsBreakGlass).
				Str("break_glass_reason", entry.BreakGlassReason).
				Msg("subject_data_access")

			return err
		}
	}
}

// isAuditablePath returns true if the path is under /v1/.
func isAuditablePath(path string) bool {
	return strings.HasPrefix(path, "/v1/")
}

// httpMethodToAction maps HTTP methods to audit action codes.
func httpMethodToAction(method string) string {
	switch method {
	case http.MethodGet, http.MethodHead:
		return "read"
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	default:
		return "read"
	}
}

// extractResourceType parses the accessed resource from a URL path.
//
// Supported patterns:
//   - /v1/assessments          -> assessments
//   - /v1/questionnaires/123   -> questionnaires
//   - /v1/subjects/123/risk-trends -> risk-trends
func extractResourceType(path string) string {
	if !strings.HasPrefix(path, "/v1/") {
		return "unknown"
	}
	segments := strings.Split(strings.TrimPrefix(path, "/v1/"), "/")
	if len(segments) == 0 || segments[0] == "" {
		return "unknown"
	}
	// Subject-scoped routes name the resource after the subject ID segment.
	if segments[0] == "subjects" && len(segments) >= 3 && segments[2] != "" {
		return segments[2]
	}
	return segments[0]
}

// extractSubjectID attempts to find a subject identifier in the request.
// It checks the URL path for /subjects/<id> patterns and query params for
// subject=<id>.
func extractSubjectID(c echo.Context) string {
	path := c.Request().URL.Path

	if strings.HasPrefix(path, "/v1/subjects/") {
		segments := strings.Split(strings.TrimPrefix(path, "/v1/subjects/"), "/")
		if len(segments) > 0 && isUUIDLike(segments[0]) {
			return segments[0]
		}
	}

	if subject := c.QueryParam("subject"); subject != "" {
		return subject
	}

	return ""
}

// isUUIDLike checks if a string looks like a UUID (basic length/format check).
func isUUIDLike(s string) bool {
	if len(s) < 1 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}
