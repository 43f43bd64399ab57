package authorization

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	actentity "github.com/vbruno96/tabnews-clone/internal/activation/entity"
	"github.com/vbruno96/tabnews-clone/internal/apierror"
	sessentity "github.com/vbruno96/tabnews-clone/internal/session/entity"
	userentity "github.com/vbruno96/tabnews-clone/internal/user/entity"
)

// UserOutput is the public view of a user.
type UserOutput struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Features  []string  `json:"features"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SelfOutput is what a user sees about itself. The password hash is never included.
type SelfOutput struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Features  []string  `json:"features"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type SessionOutput struct {
	ID        uuid.UUID `json:"id"`
	Token     string    `json:"token"`
	UserID    uuid.UUID `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ActivationTokenOutput struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	UsedAt    *time.Time `json:"used_at"`
	ExpiresAt time.Time  `json:"expires_at"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func projectUser(u *userentity.User) UserOutput {
	return UserOutput{
		ID:        u.ID,
		Username:  u.Username,
		Features:  u.Features,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func projectSelf(u *userentity.User) SelfOutput {
	return SelfOutput{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Features:  u.Features,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func projectSession(s *sessentity.Session) SessionOutput {
	return SessionOutput{
		ID:        s.ID,
		Token:     s.Token,
		UserID:    s.UserID,
		ExpiresAt: s.ExpiresAt,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

func projectActivationToken(t *actentity.Token) ActivationTokenOutput {
	return ActivationTokenOutput{
		ID:        t.ID,
		UserID:    t.UserID,
		UsedAt:    t.UsedAt,
		ExpiresAt: t.ExpiresAt,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

// FilterOutput projects resource through the filter keyed by feature.
// Slices are projected element by element. A resource the filter does not
// know how to project is a programmer error.
func FilterOutput(caller Caller, feature string, resource any) (any, error) {
	if _, err := validate(caller, feature); err != nil {
		return nil, err
	}
	if resource == nil {
		return nil, programmerError("nil resource for "+feature, feature)
	}

	switch feature {
	case ReadUser:
		return project(feature, resource, projectUser)
	case ReadUserSelf:
		return project(feature, resource, projectSelf)
	case ReadSession:
		return project(feature, resource, projectSession)
	case ReadActivationToken:
		return project(feature, resource, projectActivationToken)
	case ReadMigrations, ReadStatus:
		return resource, nil
	}
	return nil, programmerError("no output filter for "+feature, feature)
}

func project[T any, O any](feature string, resource any, fn func(*T) O) (any, error) {
	switch r := resource.(type) {
	case *T:
		if r == nil {
			return nil, programmerError("nil resource for "+feature, feature)
		}
		return fn(r), nil
	case T:
		return fn(&r), nil
	case []*T:
		out := make([]O, 0, len(r))
		for _, item := range r {
			if item == nil {
				continue
			}
			out = append(out, fn(item))
		}
		return out, nil
	case []T:
		out := make([]O, 0, len(r))
		for i := range r {
			out = append(out, fn(&r[i]))
		}
		return out, nil
	}
	return nil, apierror.NewInternalServerError(apierror.Options{
		Cause: fmt.Errorf("authorization: cannot project %T with %s", resource, feature),
	})
}
