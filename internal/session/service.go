package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/vbruno96/tabnews-clone/internal/apierror"
	"github.com/vbruno96/tabnews-clone/internal/controller"
	"github.com/vbruno96/tabnews-clone/internal/session/entity"
	sessionrepo "github.com/vbruno96/tabnews-clone/internal/session/repo"
)

const (
	// Expiration is the sliding lifetime of a session, shared with the cookie.
	Expiration = controller.SessionExpiration

	ExpirationInMilliseconds = int64(Expiration / time.Millisecond)

	MaxAgeSeconds = controller.SessionMaxAge

	tokenBytes = 48
)

type Repository interface {
	Create(ctx context.Context, token string, userID uuid.UUID, expiresAt time.Time) (*entity.Session, error)
	FindValidByToken(ctx context.Context, token string) (*entity.Session, error)
	Renew(ctx context.Context, id uuid.UUID, expiresAt time.Time) (*entity.Session, error)
	ExpireByID(ctx context.Context, id uuid.UUID) (*entity.Session, error)
}

// Service issues, looks up, renews and expires sessions.
type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(db *sqlx.DB, r Repository) *Service {
	if r == nil {
		r = sessionrepo.NewSessionRepo(db)
	}
	return &Service{repo: r, now: time.Now}
}

// NewToken returns 48 random bytes hex encoded (96 chars).
func NewToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func (s *Service) expiresAt() time.Time {
	return s.now().UTC().Add(Expiration)
}

func (s *Service) Create(ctx context.Context, userID uuid.UUID) (*entity.Session, error) {
	token, err := NewToken()
	if err != nil {
		return nil, apierror.NewInternalServerError(apierror.Options{Cause: err})
	}
	return s.repo.Create(ctx, token, userID, s.expiresAt())
}

func errNoActiveSession(cause error) error {
	return apierror.NewUnauthorizedError(apierror.Options{
		Message: "Usuário não possui sessão ativa.",
		Action:  "Verifique se este usuário está logado e tente novamente.",
		Cause:   cause,
	})
}

// FindOneValidByToken fails with UnauthorizedError for unknown or expired tokens.
func (s *Service) FindOneValidByToken(ctx context.Context, token string) (*entity.Session, error) {
	found, err := s.repo.FindValidByToken(ctx, token)
	if err != nil {
		if errors.Is(err, sessionrepo.ErrNotFound) {
			return nil, errNoActiveSession(err)
		}
		return nil, err
	}
	return found, nil
}

// Renew slides expires_at to now plus Expiration.
func (s *Service) Renew(ctx context.Context, id uuid.UUID) (*entity.Session, error) {
	renewed, err := s.repo.Renew(ctx, id, s.expiresAt())
	if err != nil {
		if errors.Is(err, sessionrepo.ErrNotFound) {
			return nil, errNoActiveSession(err)
		}
		return nil, err
	}
	return renewed, nil
}

func (s *Service) ExpireByID(ctx context.Context, id uuid.UUID) (*entity.Session, error) {
	expired, err := s.repo.ExpireByID(ctx, id)
	if err != nil {
		if errors.Is(err, sessionrepo.ErrNotFound) {
			return nil, errNoActiveSession(err)
		}
		return nil, err
	}
	return expired, nil
}
