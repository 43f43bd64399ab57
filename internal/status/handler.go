package status

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/vbruno96/tabnews-clone/internal/authorization"
	"github.com/vbruno96/tabnews-clone/internal/controller"
)

// Handler contains dependencies for handling the status endpoint.
type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) error {
	st, err := h.svc.Get(r.Context())
	if err != nil {
		return err
	}
	out, err := authorization.FilterOutput(controller.CallerFromContext(r.Context()), authorization.ReadStatus, st)
	if err != nil {
		return err
	}
	controller.WriteJSON(w, http.StatusOK, out)
	return nil
}
