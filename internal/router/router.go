package router

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/vbruno96/tabnews-clone/internal/activation"
	"github.com/vbruno96/tabnews-clone/internal/authorization"
	"github.com/vbruno96/tabnews-clone/internal/controller"
	"github.com/vbruno96/tabnews-clone/internal/migration"
	"github.com/vbruno96/tabnews-clone/internal/session"
	"github.com/vbruno96/tabnews-clone/internal/status"
	"github.com/vbruno96/tabnews-clone/internal/user"
	"github.com/vbruno96/tabnews-clone/pkg/utilities"
)

const apiPrefix = "/api/v1"

// Handlers groups the endpoint owners mounted by RegisterRoutes.
type Handlers struct {
	Controller *controller.Controller
	Users      *user.Handler
	Sessions   *session.Handler
	Activation *activation.Handler
	Migrations *migration.Handler
	Status     *status.Handler
}

// loggingResponseWriter wraps http.ResponseWriter to capture status and size.
type loggingResponseWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.status = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Write(b []byte) (int, error) {
	if lrw.status == 0 {
		lrw.status = http.StatusOK
	}
	n, err := lrw.ResponseWriter.Write(b)
	lrw.size += n
	return n, err
}

// LoggingMiddleware tags every request with a request id and logs it once
// the response is written. A valid incoming X-Request-Id is reused.
func LoggingMiddleware(logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			id := r.Header.Get(utilities.RequestIDHeader)
			if !utilities.ValidRequestID(id) {
				id = utilities.NewKSUID()
			}
			w.Header().Set(utilities.RequestIDHeader, id)
			r = r.WithContext(utilities.WithRequestID(r.Context(), id))

			lrw := &loggingResponseWriter{ResponseWriter: w}
			next.ServeHTTP(lrw, r)
			code := lrw.status
			if code == 0 {
				code = http.StatusOK
			}
			logger.Debugw("http request",
				"request_id", id,
				"method", r.Method,
				"path", r.URL.Path,
				"remote", r.RemoteAddr,
				"status", code,
				"duration_ms", float64(time.Since(start).Microseconds())/1000.0,
				"size", lrw.size,
			)
		})
	}
}

// SecurityHeadersMiddleware returns a middleware that sets common HTTP security headers.
func SecurityHeadersMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "no-referrer-when-downgrade")
			w.Header().Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")
			if w.Header().Get("Content-Security-Policy") == "" {
				w.Header().Set("Content-Security-Policy", "default-src 'self'; object-src 'none'; base-uri 'self';")
			}
			// HSTS only over TLS
			if r.TLS != nil {
				w.Header().Set("Strict-Transport-Security", "max-age=2592000; includeSubDomains")
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RegisterRoutes mounts the /api/v1 routes. Methods are dispatched by the
// controller so unknown methods get the JSON 405 envelope.
func RegisterRoutes(logger *zap.SugaredLogger, h Handlers) http.Handler {
	mux := http.NewServeMux()
	c := h.Controller

	mux.Handle(apiPrefix+"/users", c.Handle(controller.Methods{
		http.MethodPost: {Feature: authorization.CreateUser, Handler: h.Users.Signup},
	}))
	mux.Handle(apiPrefix+"/users/{username}", c.Handle(controller.Methods{
		http.MethodGet:   {Feature: authorization.ReadUser, Handler: h.Users.Get},
		http.MethodPatch: {Feature: authorization.UpdateUser, Handler: h.Users.Update},
	}))
	mux.Handle(apiPrefix+"/sessions", c.Handle(controller.Methods{
		http.MethodPost:   {Feature: authorization.CreateSession, Handler: h.Sessions.Create},
		http.MethodDelete: {Handler: h.Sessions.Delete},
	}))
	mux.Handle(apiPrefix+"/user", c.Handle(controller.Methods{
		http.MethodGet: {Feature: authorization.ReadSession, Handler: h.Sessions.Self},
	}))
	mux.Handle(apiPrefix+"/activations/{token_id}", c.Handle(controller.Methods{
		http.MethodPatch: {Feature: authorization.ReadActivationToken, Handler: h.Activation.Activate},
	}))
	mux.Handle(apiPrefix+"/migrations", c.Handle(controller.Methods{
		http.MethodGet:  {Feature: authorization.ReadMigrations, Handler: h.Migrations.List},
		http.MethodPost: {Feature: authorization.CreateMigrations, Handler: h.Migrations.Run},
	}))
	mux.Handle(apiPrefix+"/status", c.Handle(controller.Methods{
		http.MethodGet: {Feature: authorization.ReadStatus, Handler: h.Status.Get},
	}))

	return LoggingMiddleware(logger)(SecurityHeadersMiddleware()(mux))
}
