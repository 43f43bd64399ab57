package user

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/vbruno96/tabnews-clone/internal/apierror"
	"github.com/vbruno96/tabnews-clone/internal/password"
	"github.com/vbruno96/tabnews-clone/internal/user/entity"
	userrepo "github.com/vbruno96/tabnews-clone/internal/user/repo"
)

// Repository is the persistence surface the service needs.
type Repository interface {
	Create(ctx context.Context, username, email, passwordHash string) (*entity.User, error)
	GetByUsername(ctx context.Context, username string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	Update(ctx context.Context, u *entity.User) (*entity.User, error)
	SetFeatures(ctx context.Context, id uuid.UUID, features []string) (*entity.User, error)
}

// CreateInput holds the registration values.
type CreateInput struct {
	Username string
	Email    string
	Password string
}

// UpdateInput is a partial update; nil fields are left untouched.
type UpdateInput struct {
	Username *string
	Email    *string
	Password *string
}

// UserService owns the user lifecycle: creation, lookup, profile update and features.
type UserService struct {
	repo   Repository
	hasher password.Hasher
}

func NewUserService(db *sqlx.DB, r Repository, hasher password.Hasher) *UserService {
	if r == nil {
		r = userrepo.NewUserRepo(db)
	}
	if hasher == nil {
		hasher = password.NewBcrypt(password.DefaultCost)
	}
	return &UserService{repo: r, hasher: hasher}
}

func errDuplicateUsername() error {
	return apierror.NewValidationError(apierror.Options{
		Message: "O username informado já está sendo utilizado",
		Action:  "Utilize outro username para realizar esta operação.",
	})
}

func errDuplicateEmail() error {
	return apierror.NewValidationError(apierror.Options{
		Message: "O email informado já está sendo utilizado",
		Action:  "Utilize outro email para realizar esta operação.",
	})
}

func errNotFound(field string) error {
	return apierror.NewNotFoundError(apierror.Options{
		Message: "O " + field + " informado não foi encontrado no sistema.",
		Action:  "Verifique se o " + field + " está digitado corretamente.",
	})
}

// Create registers a user after checking username and email are free.
func (s *UserService) Create(ctx context.Context, in CreateInput) (*entity.User, error) {
	if err := s.validateUniqueUsername(ctx, in.Username, uuid.Nil); err != nil {
		return nil, err
	}
	if err := s.validateUniqueEmail(ctx, in.Email, uuid.Nil); err != nil {
		return nil, err
	}
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, apierror.NewInternalServerError(apierror.Options{Cause: err})
	}
	u, err := s.repo.Create(ctx, in.Username, in.Email, hash)
	if err != nil {
		return nil, mapRepoError(err, "id")
	}
	return u, nil
}

func (s *UserService) FindOneByUsername(ctx context.Context, username string) (*entity.User, error) {
	u, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, mapRepoError(err, "username")
	}
	return u, nil
}

func (s *UserService) FindOneByEmail(ctx context.Context, email string) (*entity.User, error) {
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, mapRepoError(err, "email")
	}
	return u, nil
}

func (s *UserService) FindOneByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "id")
	}
	return u, nil
}

// Update loads the user by username and applies the provided fields.
// A new username or email must not belong to another user.
func (s *UserService) Update(ctx context.Context, username string, in UpdateInput) (*entity.User, error) {
	current, err := s.FindOneByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	next := *current
	if in.Username != nil {
		if err := s.validateUniqueUsername(ctx, *in.Username, current.ID); err != nil {
			return nil, err
		}
		next.Username = *in.Username
	}
	if in.Email != nil {
		if err := s.validateUniqueEmail(ctx, *in.Email, current.ID); err != nil {
			return nil, err
		}
		next.Email = *in.Email
	}
	if in.Password != nil {
		hash, err := s.hasher.Hash(*in.Password)
		if err != nil {
			return nil, apierror.NewInternalServerError(apierror.Options{Cause: err})
		}
		next.Password = hash
	}

	updated, err := s.repo.Update(ctx, &next)
	if err != nil {
		return nil, mapRepoError(err, "username")
	}
	return updated, nil
}

// SetFeatures replaces the user's features.
func (s *UserService) SetFeatures(ctx context.Context, id uuid.UUID, features []string) (*entity.User, error) {
	u, err := s.repo.SetFeatures(ctx, id, features)
	if err != nil {
		return nil, mapRepoError(err, "id")
	}
	return u, nil
}

// AddFeatures unions features into the user's set, keeping the existing
// order and appending new entries in the given order.
func (s *UserService) AddFeatures(ctx context.Context, id uuid.UUID, features []string) (*entity.User, error) {
	current, err := s.FindOneByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.SetFeatures(ctx, id, mergeFeatures(current.Features, features))
}

func mergeFeatures(existing, added []string) []string {
	out := make([]string, 0, len(existing)+len(added))
	seen := make(map[string]struct{}, len(existing)+len(added))
	for _, list := range [][]string{existing, added} {
		for _, f := range list {
			if _, ok := seen[f]; ok {
				continue
			}
			seen[f] = struct{}{}
			out = append(out, f)
		}
	}
	return out
}

// validateUniqueUsername fails when username belongs to a user other than self.
func (s *UserService) validateUniqueUsername(ctx context.Context, username string, self uuid.UUID) error {
	found, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return nil
		}
		return err
	}
	if found.ID != self {
		return errDuplicateUsername()
	}
	return nil
}

func (s *UserService) validateUniqueEmail(ctx context.Context, email string, self uuid.UUID) error {
	found, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return nil
		}
		return err
	}
	if found.ID != self {
		return errDuplicateEmail()
	}
	return nil
}

func mapRepoError(err error, field string) error {
	switch {
	case errors.Is(err, userrepo.ErrNotFound):
		return errNotFound(field)
	case errors.Is(err, userrepo.ErrDuplicateUsername):
		return errDuplicateUsername()
	case errors.Is(err, userrepo.ErrDuplicateEmail):
		return errDuplicateEmail()
	}
	return err
}
