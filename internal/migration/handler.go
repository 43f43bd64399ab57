package migration

import (
	"context"
	"net/http"

	"github.com/vbruno96/tabnews-clone/internal/authorization"
	"github.com/vbruno96/tabnews-clone/internal/controller"
)

type Runner interface {
	ListPending(ctx context.Context) ([]Migration, error)
	RunPending(ctx context.Context) ([]Migration, error)
}

type Handler struct {
	runner Runner
}

func NewHandler(runner Runner) *Handler {
	return &Handler{runner: runner}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) error {
	pending, err := h.runner.ListPending(r.Context())
	if err != nil {
		return err
	}
	out, err := authorization.FilterOutput(controller.CallerFromContext(r.Context()), authorization.ReadMigrations, pending)
	if err != nil {
		return err
	}
	controller.WriteJSON(w, http.StatusOK, out)
	return nil
}

// Run answers 201 when something was applied and 200 otherwise.
func (h *Handler) Run(w http.ResponseWriter, r *http.Request) error {
	applied, err := h.runner.RunPending(r.Context())
	if err != nil {
		return err
	}
	out, err := authorization.FilterOutput(controller.CallerFromContext(r.Context()), authorization.ReadMigrations, applied)
	if err != nil {
		return err
	}
	status := http.StatusOK
	if len(applied) > 0 {
		status = http.StatusCreated
	}
	controller.WriteJSON(w, status, out)
	return nil
}
