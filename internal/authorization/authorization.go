// Package authorization holds the feature table and answers two questions
// for a caller: may it perform an action, and which fields of a resource
// may it see.
package authorization

import (
	"fmt"
	"slices"

	"github.com/vbruno96/tabnews-clone/internal/apierror"
	userentity "github.com/vbruno96/tabnews-clone/internal/user/entity"
)

const (
	CreateUser          = "create:user"
	CreateSession       = "create:session"
	ReadSession         = "read:session"
	ReadActivationToken = "read:activation_token"
	UpdateUser          = "update:user"
	ReadUser            = "read:user"
	ReadUserSelf        = "read:user:self"
	ReadStatus          = "read:status"
	ReadMigrations      = "read:migrations"
	CreateMigrations    = "create:migrations"
)

// features lists every known feature. Implicit ones are granted to everybody
// and only key the output filter.
var features = map[string]struct{ implicit bool }{
	CreateUser:          {},
	CreateSession:       {},
	ReadSession:         {},
	ReadActivationToken: {},
	UpdateUser:          {},
	ReadUser:            {implicit: true},
	ReadUserSelf:        {implicit: true},
	ReadStatus:          {implicit: true},
	ReadMigrations:      {},
	CreateMigrations:    {},
}

// ActivatedFeatures is the set a user receives once the activation token is consumed.
var ActivatedFeatures = []string{CreateSession, ReadSession, UpdateUser}

// AnonymousFeatures is what a request without a session cookie may do.
var AnonymousFeatures = []string{ReadActivationToken, CreateSession, CreateUser}

// Caller is the party bound to a request: Anonymous or Authenticated.
type Caller interface {
	features() ([]string, error)
}

// Anonymous is a caller without a session.
type Anonymous struct{}

func (Anonymous) features() ([]string, error) { return AnonymousFeatures, nil }

// Authenticated is a caller resolved from a valid session.
type Authenticated struct {
	User *userentity.User
}

func (a Authenticated) features() ([]string, error) {
	if a.User == nil {
		return nil, programmerError("authenticated caller without user", nil)
	}
	if a.User.Features == nil {
		return nil, programmerError("user without features", a.User.ID)
	}
	return a.User.Features, nil
}

func programmerError(msg string, ctx any) error {
	return apierror.NewInternalServerError(apierror.Options{
		Cause:   fmt.Errorf("authorization: %s", msg),
		Context: ctx,
	})
}

// validate performs the checks shared by Can and FilterOutput.
func validate(caller Caller, feature string) ([]string, error) {
	if caller == nil {
		return nil, programmerError("nil caller", nil)
	}
	granted, err := caller.features()
	if err != nil {
		return nil, err
	}
	if _, ok := features[feature]; !ok {
		return nil, programmerError("unknown feature "+feature, feature)
	}
	return granted, nil
}

// Can reports whether caller may use feature on resource. Resource only
// matters for update:user, where the target must be the caller itself.
func Can(caller Caller, feature string, resource any) (bool, error) {
	granted, err := validate(caller, feature)
	if err != nil {
		return false, err
	}
	if features[feature].implicit {
		return true, nil
	}
	if !slices.Contains(granted, feature) {
		return false, nil
	}
	if feature == UpdateUser && resource != nil {
		return ownsResource(caller, resource), nil
	}
	return true, nil
}

func ownsResource(caller Caller, resource any) bool {
	auth, ok := caller.(Authenticated)
	if !ok {
		return false
	}
	target, ok := resource.(*userentity.User)
	if !ok || target == nil {
		return false
	}
	return target.ID == auth.User.ID
}
