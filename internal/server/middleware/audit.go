package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/opsdesk/opsdesk/internal/domain"
)

// ContextKeyAuditBody stores the captured request body for audit details.
const ContextKeyAuditBody contextKey = "audit_body"

// maxAuditBody caps how much of a request body is copied into an audit
// record's detail blob. The handler still receives the full stream.
const maxAuditBody = 64 << 10

// Enqueuer accepts audit entries for asynchronous persistence.
// *audit.Recorder satisfies this interface.
type Enqueuer interface {
	Enqueue(e *domain.AuditEntry) bool
}

// CaptureBody tees the request body into a capped buffer so the audit
// observer can include it in the detail blob after the response is written.
func CaptureBody() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			capture := &bytes.Buffer{}
			if r.Body != nil {
				r.Body = &teeBody{
					reader: io.TeeReader(r.Body, &capWriter{buf: capture}),
					closer: r.Body,
				}
			}

			ctx := context.WithValue(r.Context(), ContextKeyAuditBody, capture)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AuditObserver returns a per-operation interceptor parameterized with an
// action name and resource type at route-registration time. It runs after
// the handler has produced its response; if and only if the final status is
// in the 2xx class it enqueues an audit entry. The caller never waits on the
// write and a retried request that succeeds twice yields two records.
func AuditObserver(rec Enqueuer, action, resource string) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		next(ctx)

		status := ctx.Status()
		if status < 200 || status >= 300 {
			return
		}

		tc, ok := TenantContextFrom(ctx.Context())
		if !ok {
			return
		}

		resourceID := ctx.Param("id")
		if resourceID == "" {
			resourceID = domain.ResourceUnknown
		}

		details := map[string]any{
			"method":      ctx.Method(),
			"path":        ctx.URL().Path,
			"status_code": status,
		}
		if capture, capOK := ctx.Context().Value(ContextKeyAuditBody).(*bytes.Buffer); capOK && capture.Len() > 0 {
			var body any
			if err := json.Unmarshal(capture.Bytes(), &body); err == nil {
				details["body"] = body
			} else {
				details["body"] = capture.String()
			}
		}

		userAgent := ctx.Header("User-Agent")
		if userAgent == "" {
			userAgent = domain.ResourceUnknown
		}

		rec.Enqueue(&domain.AuditEntry{
			ID:         uuid.New(),
			TenantID:   tc.TenantID,
			UserID:     tc.UserID,
			Action:     action,
			Resource:   resource,
			ResourceID: resourceID,
			Details:    details,
			IPAddress:  ctx.RemoteAddr(),
			UserAgent:  userAgent,
			CreatedAt:  time.Now().UTC(),
		})
	}
}

type teeBody struct {
	reader io.Reader
	closer io.Closer
}

func (b *teeBody) Read(p []byte) (int, error) { return b.reader.Read(p) }
func (b *teeBody) Close() error               { return b.closer.Close() }

// capWriter keeps the first maxAuditBody bytes and silently discards the
// rest so oversized uploads cannot bloat audit records.
type capWriter struct {
	buf *bytes.Buffer
}

func (w *capWriter) Write(p []byte) (int, error) {
	n := len(p)
	if remaining := maxAuditBody - w.buf.Len(); remaining > 0 {
		if len(p) > remaining {
			p = p[:remaining]
		}
		w.buf.Write(p)
	}
	return n, nil
}
