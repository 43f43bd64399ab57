// Package controller binds an HTTP request to its caller, gates it by
// feature and turns handler errors into the public JSON envelope.
package controller

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"maps"
	"net/http"
	"slices"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vbruno96/tabnews-clone/internal/apierror"
	"github.com/vbruno96/tabnews-clone/internal/authorization"
	sessentity "github.com/vbruno96/tabnews-clone/internal/session/entity"
	userentity "github.com/vbruno96/tabnews-clone/internal/user/entity"
	"github.com/vbruno96/tabnews-clone/pkg/utilities"
)

type SessionFinder interface {
	FindOneValidByToken(ctx context.Context, token string) (*sessentity.Session, error)
}

type UserFinder interface {
	FindOneByID(ctx context.Context, id uuid.UUID) (*userentity.User, error)
}

// HandlerFunc is an endpoint body. A returned error is answered by OnError.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// Endpoint is one method of a route. An empty Feature means no gate.
type Endpoint struct {
	Feature string
	Handler HandlerFunc
}

// Methods maps HTTP methods to endpoints of a single route.
type Methods map[string]Endpoint

type Controller struct {
	sessions      SessionFinder
	users         UserFinder
	logger        *zap.SugaredLogger
	secureCookies bool
}

// New builds a Controller. secureCookies adds the Secure attribute to the
// session cookie and is enabled in production.
func New(sessions SessionFinder, users UserFinder, logger *zap.SugaredLogger, secureCookies bool) *Controller {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Controller{sessions: sessions, users: users, logger: logger, secureCookies: secureCookies}
}

// Handle dispatches by method, resolves the caller, applies the feature gate
// and runs the endpoint.
func (c *Controller) Handle(m Methods) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ep, ok := m[r.Method]
		if !ok {
			e := apierror.NewMethodNotAllowedError(apierror.Options{})
			WriteJSON(w, e.StatusCode, e)
			return
		}
		if err := c.serve(w, r, ep); err != nil {
			c.OnError(w, r, err)
		}
	})
}

func (c *Controller) serve(w http.ResponseWriter, r *http.Request, ep Endpoint) error {
	caller, err := c.ResolveCaller(r)
	if err != nil {
		return err
	}
	r = r.WithContext(WithCaller(r.Context(), caller))
	if ep.Feature != "" {
		if err := CanRequest(caller, ep.Feature); err != nil {
			return err
		}
	}
	return ep.Handler(w, r)
}

// ResolveCaller returns Anonymous when the request has no session cookie,
// otherwise the owner of the valid session.
func (c *Controller) ResolveCaller(r *http.Request) (authorization.Caller, error) {
	token := SessionToken(r)
	if token == "" {
		return authorization.Anonymous{}, nil
	}
	s, err := c.sessions.FindOneValidByToken(r.Context(), token)
	if err != nil {
		return nil, err
	}
	u, err := c.users.FindOneByID(r.Context(), s.UserID)
	if err != nil {
		return nil, err
	}
	return authorization.Authenticated{User: u}, nil
}

// CanRequest fails with ForbiddenError when caller lacks feature.
func CanRequest(caller authorization.Caller, feature string) error {
	ok, err := authorization.Can(caller, feature, nil)
	if err != nil {
		return err
	}
	if !ok {
		return apierror.NewForbiddenError(apierror.Options{
			Message: "Você não possui permissão para executar esta ação.",
			Action:  `Verifique se o seu usuário possui a feature "` + feature + `"`,
		})
	}
	return nil
}

// OnError answers whitelisted errors as they are and everything else as a
// logged InternalServerError.
func (c *Controller) OnError(w http.ResponseWriter, r *http.Request, err error) {
	if apierror.IsPublic(err) {
		e, _ := apierror.As(err)
		if e.Name == apierror.KindUnauthorized {
			c.ClearSessionCookie(w)
		}
		WriteJSON(w, e.StatusCode, e)
		return
	}

	public := apierror.NewInternalServerError(apierror.Options{Cause: err})
	fields := []any{
		"error", err,
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", utilities.RequestIDFromContext(r.Context()),
	}
	if e, ok := apierror.As(err); ok && e.Context != nil {
		fields = append(fields, "context", e.Context)
	}
	c.logger.Errorw("internal server error", fields...)
	WriteJSON(w, public.StatusCode, public)
}

type callerKey struct{}

func WithCaller(ctx context.Context, caller authorization.Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

// CallerFromContext returns the caller bound by Handle, or nil.
func CallerFromContext(ctx context.Context) authorization.Caller {
	caller, _ := ctx.Value(callerKey{}).(authorization.Caller)
	return caller
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// invalidFieldsAction names the offending fields by their JSON keys. The rule
// text stays in the error cause.
func invalidFieldsAction(err error) string {
	var errs validation.Errors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return "Ajuste os dados enviados e tente novamente."
	}
	fields := slices.Sorted(maps.Keys(errs))
	return "Verifique os campos: " + strings.Join(fields, ", ") + "."
}

// DecodeJSON reads the body into dst and runs its ozzo validation rules.
// Malformed bodies and rule violations are ValidationErrors.
func DecodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return apierror.NewValidationError(apierror.Options{
			Message: "O corpo da requisição não é um JSON válido.",
			Cause:   err,
		})
	}
	if v, ok := dst.(validation.Validatable); ok {
		if err := v.Validate(); err != nil {
			return apierror.NewValidationError(apierror.Options{
				Message: "Os dados enviados são inválidos.",
				Action:  invalidFieldsAction(err),
				Cause:   err,
			})
		}
	}
	return nil
}
