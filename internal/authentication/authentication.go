// Package authentication verifies email and password credentials.
package authentication

import (
	"context"
	"errors"

	"github.com/vbruno96/tabnews-clone/internal/apierror"
	"github.com/vbruno96/tabnews-clone/internal/password"
	"github.com/vbruno96/tabnews-clone/internal/user/entity"
)

type UserFinder interface {
	FindOneByEmail(ctx context.Context, email string) (*entity.User, error)
}

type Service struct {
	users  UserFinder
	hasher password.Hasher
}

func NewService(users UserFinder, hasher password.Hasher) *Service {
	if hasher == nil {
		hasher = password.NewBcrypt(password.DefaultCost)
	}
	return &Service{users: users, hasher: hasher}
}

func errMismatch(cause error) error {
	return apierror.NewUnauthorizedError(apierror.Options{
		Message: "Dados de autenticação não conferem",
		Action:  "Verifique se os dados enviados estão corretos.",
		Cause:   cause,
	})
}

var errWrongPassword = errors.New("password does not match")

// Authenticate returns the user owning email when plain matches its hash.
// Unknown email and wrong password produce the same UnauthorizedError.
func (s *Service) Authenticate(ctx context.Context, email, plain string) (*entity.User, error) {
	u, err := s.users.FindOneByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apierror.NotFound) {
			return nil, errMismatch(err)
		}
		return nil, err
	}
	if !s.hasher.Compare(plain, u.Password) {
		return nil, errMismatch(errWrongPassword)
	}
	return u, nil
}
