package activation

import (
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vbruno96/tabnews-clone/internal/authorization"
	"github.com/vbruno96/tabnews-clone/internal/controller"
)

type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Activate consumes the token in the path: lookup, promote the owner, then mark used.
func (h *Handler) Activate(w http.ResponseWriter, r *http.Request) error {
	id, err := uuid.Parse(r.PathValue("token_id"))
	if err != nil {
		return errTokenNotFound(err)
	}

	valid, err := h.svc.FindOneValidID(r.Context(), id)
	if err != nil {
		return err
	}
	if _, err := h.svc.ActivateUserByUserID(r.Context(), valid.UserID); err != nil {
		return err
	}
	used, err := h.svc.MarkTokenAsUsed(r.Context(), id)
	if err != nil {
		return err
	}
	h.logger.Infow("user activated", "user_id", valid.UserID, "token_id", id)

	out, err := authorization.FilterOutput(controller.CallerFromContext(r.Context()), authorization.ReadActivationToken, used)
	if err != nil {
		return err
	}
	controller.WriteJSON(w, http.StatusOK, out)
	return nil
}
