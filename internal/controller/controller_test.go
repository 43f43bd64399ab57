package controller

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/vbruno96/tabnews-clone/internal/apierror"
	"github.com/vbruno96/tabnews-clone/internal/authorization"
	sessentity "github.com/vbruno96/tabnews-clone/internal/session/entity"
	userentity "github.com/vbruno96/tabnews-clone/internal/user/entity"
)

type fakeSessions struct {
	byToken map[string]*sessentity.Session
}

func (f *fakeSessions) FindOneValidByToken(_ context.Context, token string) (*sessentity.Session, error) {
	if s, ok := f.byToken[token]; ok && s.ExpiresAt.After(time.Now()) {
		return s, nil
	}
	return nil, apierror.NewUnauthorizedError(apierror.Options{
		Message: "Usuário não possui sessão ativa.",
		Action:  "Verifique se este usuário está logado e tente novamente.",
	})
}

type fakeUsers struct {
	byID map[uuid.UUID]*userentity.User
}

func (f *fakeUsers) FindOneByID(_ context.Context, id uuid.UUID) (*userentity.User, error) {
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, apierror.NewNotFoundError(apierror.Options{})
}

type fixture struct {
	ctrl  *Controller
	logs  *observer.ObservedLogs
	token string
	user  *userentity.User
}

func newFixture(t *testing.T, secure bool) fixture {
	t.Helper()
	u := &userentity.User{
		ID:       uuid.New(),
		Username: "activated",
		Features: append([]string(nil), authorization.ActivatedFeatures...),
	}
	token := strings.Repeat("ab", 48)
	sessions := &fakeSessions{byToken: map[string]*sessentity.Session{
		token: {ID: uuid.New(), Token: token, UserID: u.ID, ExpiresAt: time.Now().Add(time.Hour)},
	}}
	users := &fakeUsers{byID: map[uuid.UUID]*userentity.User{u.ID: u}}

	core, logs := observer.New(zapcore.DebugLevel)
	ctrl := New(sessions, users, zap.New(core).Sugar(), secure)
	return fixture{ctrl: ctrl, logs: logs, token: token, user: u}
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func okHandler(w http.ResponseWriter, r *http.Request) error {
	WriteJSON(w, http.StatusOK, map[string]string{"ok": "yes"})
	return nil
}

func TestHandle_MethodNotAllowed(t *testing.T) {
	fx := newFixture(t, false)
	h := fx.ctrl.Handle(Methods{http.MethodGet: {Handler: okHandler}})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/v1/status", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	body := decodeError(t, rec)
	assert.Equal(t, "MethodNotAllowedError", body["name"])
	assert.EqualValues(t, 405, body["status_code"])
}

func TestHandle_AnonymousForbiddenOnGatedEndpoint(t *testing.T) {
	fx := newFixture(t, false)
	h := fx.ctrl.Handle(Methods{http.MethodGet: {Feature: authorization.ReadMigrations, Handler: okHandler}})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/migrations", nil))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, map[string]any{
		"name":        "ForbiddenError",
		"message":     "Você não possui permissão para executar esta ação.",
		"action":      `Verifique se o seu usuário possui a feature "read:migrations"`,
		"status_code": float64(403),
	}, decodeError(t, rec))
	assert.Empty(t, rec.Header().Get("Set-Cookie"))
}

func TestHandle_NonexistentSessionClearsCookie(t *testing.T) {
	fx := newFixture(t, false)
	h := fx.ctrl.Handle(Methods{http.MethodGet: {Feature: authorization.ReadSession, Handler: okHandler}})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/user", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: strings.Repeat("f", 96)})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "UnauthorizedError", body["name"])
	assert.Equal(t, "Usuário não possui sessão ativa.", body["message"])
	assert.Equal(t, "session_id=invalid; Path=/; Max-Age=-1; HttpOnly", rec.Header().Get("Set-Cookie"))
}

func TestHandle_AuthenticatedCallerInContext(t *testing.T) {
	fx := newFixture(t, false)
	var got authorization.Caller
	h := fx.ctrl.Handle(Methods{http.MethodGet: {
		Feature: authorization.ReadSession,
		Handler: func(w http.ResponseWriter, r *http.Request) error {
			got = CallerFromContext(r.Context())
			return okHandler(w, r)
		},
	}})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/user", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: fx.token})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	auth, ok := got.(authorization.Authenticated)
	require.True(t, ok)
	assert.Equal(t, fx.user.ID, auth.User.ID)
}

func TestHandle_AnonymousCallerWithoutCookie(t *testing.T) {
	fx := newFixture(t, false)
	var got authorization.Caller
	h := fx.ctrl.Handle(Methods{http.MethodPost: {
		Feature: authorization.CreateUser,
		Handler: func(w http.ResponseWriter, r *http.Request) error {
			got = CallerFromContext(r.Context())
			return nil
		},
	}})

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/v1/users", nil))
	assert.Equal(t, authorization.Anonymous{}, got)
}

func TestOnError_WhitelistPassesThrough(t *testing.T) {
	fx := newFixture(t, false)
	tests := []struct {
		err    error
		status int
		name   string
	}{
		{apierror.NewValidationError(apierror.Options{Message: "bad"}), 400, "ValidationError"},
		{apierror.NewNotFoundError(apierror.Options{}), 404, "NotFoundError"},
		{apierror.NewForbiddenError(apierror.Options{}), 403, "ForbiddenError"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			fx.ctrl.OnError(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.name, decodeError(t, rec)["name"])
			assert.Empty(t, rec.Header().Get("Set-Cookie"))
		})
	}
	assert.Zero(t, fx.logs.Len())
}

func TestOnError_OtherErrorsBecomeInternal(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"plain", errors.New("db error: connection refused")},
		{"service", apierror.NewServiceError(apierror.Options{Message: "Não foi possível enviar o email."})},
		{"programmer", apierror.NewInternalServerError(apierror.Options{Cause: errors.New("unknown feature"), Context: "x"})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newFixture(t, false)
			rec := httptest.NewRecorder()
			fx.ctrl.OnError(rec, httptest.NewRequest(http.MethodGet, "/api/v1/users", nil), tt.err)

			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.Equal(t, map[string]any{
				"name":        "InternalServerError",
				"message":     "Um erro interno não esperado aconteceu.",
				"action":      "Entre em contato com o suporte.",
				"status_code": float64(500),
			}, decodeError(t, rec))

			entries := fx.logs.FilterMessage("internal server error").All()
			require.Len(t, entries, 1)
			assert.Equal(t, "/api/v1/users", entries[0].ContextMap()["path"])
		})
	}
}

func TestHandle_HandlerErrorGoesToOnError(t *testing.T) {
	fx := newFixture(t, false)
	h := fx.ctrl.Handle(Methods{http.MethodGet: {Handler: func(http.ResponseWriter, *http.Request) error {
		return apierror.NewUnauthorizedError(apierror.Options{Message: "Dados de autenticação não conferem"})
	}}})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Header().Get("Set-Cookie"), "Max-Age=-1")
}

func TestSessionCookies(t *testing.T) {
	fx := newFixture(t, false)
	rec := httptest.NewRecorder()
	fx.ctrl.SetSessionCookie(rec, "tok")
	assert.Equal(t, "session_id=tok; Path=/; Max-Age=2592000; HttpOnly", rec.Header().Get("Set-Cookie"))

	secure := newFixture(t, true)
	rec = httptest.NewRecorder()
	secure.ctrl.SetSessionCookie(rec, "tok")
	assert.Equal(t, "session_id=tok; Path=/; Max-Age=2592000; HttpOnly; Secure", rec.Header().Get("Set-Cookie"))

	rec = httptest.NewRecorder()
	secure.ctrl.ClearSessionCookie(rec)
	assert.Equal(t, "session_id=invalid; Path=/; Max-Age=-1; HttpOnly; Secure", rec.Header().Get("Set-Cookie"))
}

type signup struct {
	Email string `json:"email"`
}

func (s signup) Validate() error {
	return validation.ValidateStruct(&s, validation.Field(&s.Email, validation.Required))
}

func TestDecodeJSON(t *testing.T) {
	var dst signup
	err := DecodeJSON(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":`)), &dst)
	assert.ErrorIs(t, err, apierror.Validation)

	err = DecodeJSON(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`)), &dst)
	e, ok := apierror.As(err)
	require.True(t, ok)
	assert.Equal(t, apierror.KindValidation, e.Name)
	assert.Equal(t, "Os dados enviados são inválidos.", e.Message)
	assert.Equal(t, "Verifique os campos: email.", e.Action)
	assert.ErrorContains(t, e.Cause, "email: cannot be blank")

	err = DecodeJSON(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@b.c"}`)), &dst)
	require.NoError(t, err)
	assert.Equal(t, "a@b.c", dst.Email)
}
