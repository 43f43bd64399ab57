package session

import (
	"context"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vbruno96/tabnews-clone/internal/apierror"
	"github.com/vbruno96/tabnews-clone/internal/authorization"
	"github.com/vbruno96/tabnews-clone/internal/controller"
	userentity "github.com/vbruno96/tabnews-clone/internal/user/entity"
)

type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (*userentity.User, error)
}

type UserFinder interface {
	FindOneByID(ctx context.Context, id uuid.UUID) (*userentity.User, error)
}

// Handler exposes login, logout and the current-user endpoint.
type Handler struct {
	svc    *Service
	auth   Authenticator
	users  UserFinder
	ctrl   *controller.Controller
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, auth Authenticator, users UserFinder, ctrl *controller.Controller, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, auth: auth, users: users, ctrl: ctrl, logger: logger}
}

// LoginRequest is the POST /sessions body.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

// Create logs a user in and sets the session cookie.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) error {
	var req LoginRequest
	if err := controller.DecodeJSON(r, &req); err != nil {
		return err
	}

	u, err := h.auth.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	ok, err := authorization.Can(authorization.Authenticated{User: u}, authorization.CreateSession, nil)
	if err != nil {
		return err
	}
	if !ok {
		return apierror.NewForbiddenError(apierror.Options{
			Message: "Você não possui permissão para fazer login.",
			Action:  "Contate o suporte caso você acredite que isto seja um erro.",
		})
	}

	s, err := h.svc.Create(r.Context(), u.ID)
	if err != nil {
		return err
	}
	h.ctrl.SetSessionCookie(w, s.Token)
	h.logger.Debugw("session created", "user_id", u.ID, "session_id", s.ID)

	out, err := authorization.FilterOutput(authorization.Authenticated{User: u}, authorization.ReadSession, s)
	if err != nil {
		return err
	}
	controller.WriteJSON(w, http.StatusCreated, out)
	return nil
}

// Delete expires the session carried by the cookie and clears it.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) error {
	s, err := h.svc.FindOneValidByToken(r.Context(), controller.SessionToken(r))
	if err != nil {
		return err
	}
	expired, err := h.svc.ExpireByID(r.Context(), s.ID)
	if err != nil {
		return err
	}
	h.ctrl.ClearSessionCookie(w)

	out, err := authorization.FilterOutput(controller.CallerFromContext(r.Context()), authorization.ReadSession, expired)
	if err != nil {
		return err
	}
	controller.WriteJSON(w, http.StatusOK, out)
	return nil
}

// Self renews the session and returns the caller's own profile.
func (h *Handler) Self(w http.ResponseWriter, r *http.Request) error {
	s, err := h.svc.FindOneValidByToken(r.Context(), controller.SessionToken(r))
	if err != nil {
		return err
	}
	renewed, err := h.svc.Renew(r.Context(), s.ID)
	if err != nil {
		return err
	}
	h.ctrl.SetSessionCookie(w, renewed.Token)

	u, err := h.users.FindOneByID(r.Context(), s.UserID)
	if err != nil {
		return err
	}

	w.Header().Set("Cache-Control", "no-store, no-cache, max-age=0, must-revalidate")
	out, err := authorization.FilterOutput(controller.CallerFromContext(r.Context()), authorization.ReadUserSelf, u)
	if err != nil {
		return err
	}
	controller.WriteJSON(w, http.StatusOK, out)
	return nil
}
