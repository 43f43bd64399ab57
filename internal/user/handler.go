package user

import (
	"context"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/google/uuid"
	"go.uber.org/zap"

	actentity "github.com/vbruno96/tabnews-clone/internal/activation/entity"
	"github.com/vbruno96/tabnews-clone/internal/apierror"
	"github.com/vbruno96/tabnews-clone/internal/authorization"
	"github.com/vbruno96/tabnews-clone/internal/controller"
	"github.com/vbruno96/tabnews-clone/internal/user/entity"
)

// Activator issues the activation token and mails it after registration.
type Activator interface {
	Create(ctx context.Context, userID uuid.UUID) (*actentity.Token, error)
	SendEmailToUser(ctx context.Context, u *entity.User, tokenID uuid.UUID) error
}

// Handler exposes HTTP endpoints for registration and profiles.
type Handler struct {
	svc        *UserService
	activation Activator
	logger     *zap.SugaredLogger
}

func NewHandler(svc *UserService, activation Activator, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, activation: activation, logger: logger}
}

// SignupRequest is the POST /users body.
type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r SignupRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.Length(1, 30)),
		validation.Field(&r.Email, validation.Required, validation.Length(3, 254), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(1, 72)),
	)
}

// UpdateRequest is the PATCH /users/{username} body. Absent fields stay as they are.
type UpdateRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

func (r UpdateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.NilOrNotEmpty, validation.Length(1, 30)),
		validation.Field(&r.Email, validation.NilOrNotEmpty, validation.Length(3, 254), is.Email),
		validation.Field(&r.Password, validation.NilOrNotEmpty, validation.Length(1, 72)),
	)
}

// Signup registers a user and mails the activation link.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) error {
	var req SignupRequest
	if err := controller.DecodeJSON(r, &req); err != nil {
		return err
	}

	u, err := h.svc.Create(r.Context(), CreateInput{Username: req.Username, Email: req.Email, Password: req.Password})
	if err != nil {
		return err
	}
	tok, err := h.activation.Create(r.Context(), u.ID)
	if err != nil {
		return err
	}
	if err := h.activation.SendEmailToUser(r.Context(), u, tok.ID); err != nil {
		return err
	}
	h.logger.Infow("user registered", "user_id", u.ID)

	out, err := authorization.FilterOutput(controller.CallerFromContext(r.Context()), authorization.ReadUser, u)
	if err != nil {
		return err
	}
	controller.WriteJSON(w, http.StatusCreated, out)
	return nil
}

// Get returns the public profile of {username}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) error {
	u, err := h.svc.FindOneByUsername(r.Context(), r.PathValue("username"))
	if err != nil {
		return err
	}
	out, err := authorization.FilterOutput(controller.CallerFromContext(r.Context()), authorization.ReadUser, u)
	if err != nil {
		return err
	}
	controller.WriteJSON(w, http.StatusOK, out)
	return nil
}

// Update patches {username}. Only the owner may do it.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) error {
	username := r.PathValue("username")
	caller := controller.CallerFromContext(r.Context())

	var req UpdateRequest
	if err := controller.DecodeJSON(r, &req); err != nil {
		return err
	}

	target, err := h.svc.FindOneByUsername(r.Context(), username)
	if err != nil {
		return err
	}
	ok, err := authorization.Can(caller, authorization.UpdateUser, target)
	if err != nil {
		return err
	}
	if !ok {
		return apierror.NewForbiddenError(apierror.Options{
			Message: "Você não possui permissão para atualizar outro usuário.",
			Action:  "Verifique se você possui a feature necessária para atualizar outro usuário.",
		})
	}

	updated, err := h.svc.Update(r.Context(), username, UpdateInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}

	out, err := authorization.FilterOutput(caller, authorization.ReadUser, updated)
	if err != nil {
		return err
	}
	controller.WriteJSON(w, http.StatusOK, out)
	return nil
}
