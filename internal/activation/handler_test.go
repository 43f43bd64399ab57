package activation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vbruno96/tabnews-clone/internal/authorization"
	"github.com/vbruno96/tabnews-clone/internal/controller"
)

func newMux(fx fixture) *http.ServeMux {
	ctrl := controller.New(nil, nil, zap.NewNop().Sugar(), false)
	h := NewHandler(fx.svc, zap.NewNop().Sugar())
	mux := http.NewServeMux()
	mux.Handle("/api/v1/activations/{token_id}", ctrl.Handle(controller.Methods{
		http.MethodPatch: {Feature: authorization.ReadActivationToken, Handler: h.Activate},
	}))
	return mux
}

func patch(mux http.Handler, id string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/api/v1/activations/"+id, nil))
	return rec
}

func TestActivate_ThenReplayIsNotFound(t *testing.T) {
	fx := newFixture()
	mux := newMux(fx)
	tok, err := fx.svc.Create(context.Background(), fx.user.ID)
	require.NoError(t, err)

	rec := patch(mux, tok.ID.String())
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, tok.ID.String(), body["id"])
	assert.Equal(t, fx.user.ID.String(), body["user_id"])
	assert.NotNil(t, body["used_at"])
	assert.Equal(t, []string{"create:session", "read:session", "update:user"}, fx.users.users[fx.user.ID].Features)

	rec = patch(mux, tok.ID.String())
	assert.Equal(t, http.StatusNotFound, rec.Code)
	body = nil
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "O token de ativação utilizado não foi encontrado no sistema ou expirou.", body["message"])
}

func TestActivate_UnknownAndMalformedTokens(t *testing.T) {
	fx := newFixture()
	mux := newMux(fx)

	assert.Equal(t, http.StatusNotFound, patch(mux, uuid.NewString()).Code)
	assert.Equal(t, http.StatusNotFound, patch(mux, "not-a-uuid").Code)
	assert.Equal(t, []string{"read:activation_token"}, fx.users.users[fx.user.ID].Features)
}

func TestActivate_WrongMethod(t *testing.T) {
	fx := newFixture()
	rec := httptest.NewRecorder()
	newMux(fx).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/activations/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
