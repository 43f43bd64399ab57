package activation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/vbruno96/tabnews-clone/internal/activation/entity"
	actrepo "github.com/vbruno96/tabnews-clone/internal/activation/repo"
	"github.com/vbruno96/tabnews-clone/internal/apierror"
	"github.com/vbruno96/tabnews-clone/internal/authorization"
	"github.com/vbruno96/tabnews-clone/internal/email"
	userentity "github.com/vbruno96/tabnews-clone/internal/user/entity"
)

// Expiration is how long an activation link stays usable.
const Expiration = 15 * time.Minute

const (
	emailFrom    = "FinTab <contato@fintab.com.br>"
	emailSubject = "Ative seu cadastro no FinTab!"
)

type Repository interface {
	Create(ctx context.Context, userID uuid.UUID, expiresAt time.Time) (*entity.Token, error)
	FindValidByID(ctx context.Context, id uuid.UUID) (*entity.Token, error)
	MarkUsed(ctx context.Context, id uuid.UUID) (*entity.Token, error)
	FindLatestByUserID(ctx context.Context, userID uuid.UUID) (*entity.Token, error)
}

// FeatureSetter is the part of the user store activation promotes through.
type FeatureSetter interface {
	SetFeatures(ctx context.Context, id uuid.UUID, features []string) (*userentity.User, error)
}

type Service struct {
	repo   Repository
	users  FeatureSetter
	mailer email.Sender
	origin string
	now    func() time.Time
}

// NewService builds the activation service. origin is the public web
// address used in the emailed link.
func NewService(db *sqlx.DB, r Repository, users FeatureSetter, mailer email.Sender, origin string) *Service {
	if r == nil {
		r = actrepo.NewTokenRepo(db)
	}
	return &Service{repo: r, users: users, mailer: mailer, origin: origin, now: time.Now}
}

func errTokenNotFound(cause error) error {
	return apierror.NewNotFoundError(apierror.Options{
		Message: "O token de ativação utilizado não foi encontrado no sistema ou expirou.",
		Action:  "Faça um novo cadastro.",
		Cause:   cause,
	})
}

func mapRepoError(err error) error {
	if errors.Is(err, actrepo.ErrNotFound) {
		return errTokenNotFound(err)
	}
	return err
}

func (s *Service) Create(ctx context.Context, userID uuid.UUID) (*entity.Token, error) {
	return s.repo.Create(ctx, userID, s.now().UTC().Add(Expiration))
}

func (s *Service) FindOneValidID(ctx context.Context, id uuid.UUID) (*entity.Token, error) {
	t, err := s.repo.FindValidByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return t, nil
}

// MarkTokenAsUsed consumes the token. A second call for the same token
// fails with NotFoundError.
func (s *Service) MarkTokenAsUsed(ctx context.Context, id uuid.UUID) (*entity.Token, error) {
	t, err := s.repo.MarkUsed(ctx, id)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return t, nil
}

func (s *Service) FindOneByUserID(ctx context.Context, userID uuid.UUID) (*entity.Token, error) {
	t, err := s.repo.FindLatestByUserID(ctx, userID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return t, nil
}

// ActivateUserByUserID grants the features of an activated account.
func (s *Service) ActivateUserByUserID(ctx context.Context, userID uuid.UUID) (*userentity.User, error) {
	return s.users.SetFeatures(ctx, userID, authorization.ActivatedFeatures)
}

// Link is the activation address sent to the user.
func (s *Service) Link(tokenID uuid.UUID) string {
	return s.origin + "/cadastro/ativar/" + tokenID.String()
}

func (s *Service) SendEmailToUser(ctx context.Context, u *userentity.User, tokenID uuid.UUID) error {
	return s.mailer.Send(ctx, email.Envelope{
		From:    emailFrom,
		To:      u.Email,
		Subject: emailSubject,
		Text: fmt.Sprintf("%s, clique no link abaixo para ativar seu cadastro no FinTab.\n\n%s\n\nAtenciosamente,\nEquipe FinTab",
			u.Username, s.Link(tokenID)),
	})
}
