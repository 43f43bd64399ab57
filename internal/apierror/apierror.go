// Package apierror defines the closed set of error kinds returned by the API.
// Every kind serializes to the same public envelope:
//
//	{"name": "...", "message": "...", "action": "...", "status_code": 400}
//
// Cause and Context are kept for server-side logs only.
package apierror

import (
	"errors"
	"net/http"
)

// Kind names an error kind. The value doubles as the public "name" field.
type Kind string

const (
	KindValidation       Kind = "ValidationError"
	KindUnauthorized     Kind = "UnauthorizedError"
	KindForbidden        Kind = "ForbiddenError"
	KindNotFound         Kind = "NotFoundError"
	KindMethodNotAllowed Kind = "MethodNotAllowedError"
	KindService          Kind = "ServiceError"
	KindInternal         Kind = "InternalServerError"
)

type defaults struct {
	status  int
	message string
	action  string
}

var kinds = map[Kind]defaults{
	KindValidation: {
		status:  http.StatusBadRequest,
		message: "Um erro de validação ocorreu.",
		action:  "Ajuste os dados enviados e tente novamente.",
	},
	KindUnauthorized: {
		status:  http.StatusUnauthorized,
		message: "Usuário não autenticado.",
		action:  "Faça novamente o login para continuar.",
	},
	KindForbidden: {
		status:  http.StatusForbidden,
		message: "Acesso negado.",
		action:  "Verifique as features necessárias antes de continuar.",
	},
	KindNotFound: {
		status:  http.StatusNotFound,
		message: "Não foi possível encontrar este recurso no sistema.",
		action:  "Verifique se os parâmetros enviados na consulta estão certos.",
	},
	KindMethodNotAllowed: {
		status:  http.StatusMethodNotAllowed,
		message: "Método não permitido para este endpoint.",
		action:  "Verifique se o método HTTP enviado é válido para este endpoint.",
	},
	KindService: {
		status:  http.StatusServiceUnavailable,
		message: "Serviço indisponível no momento.",
		action:  "Verifique se o serviço está disponível.",
	},
	KindInternal: {
		status:  http.StatusInternalServerError,
		message: "Um erro interno não esperado aconteceu.",
		action:  "Entre em contato com o suporte.",
	},
}

// Options carries the optional constructor arguments shared by all kinds.
type Options struct {
	Message string
	Action  string
	Cause   error
	Context any
}

// Error is the single concrete error type behind every kind.
type Error struct {
	Name       Kind   `json:"name"`
	Message    string `json:"message"`
	Action     string `json:"action"`
	StatusCode int    `json:"status_code"`

	Cause   error `json:"-"`
	Context any   `json:"-"`
}

// New builds an error of the given kind, filling message and action from
// the kind defaults when empty. Unknown kinds are treated as internal.
func New(kind Kind, o Options) *Error {
	d, ok := kinds[kind]
	if !ok {
		kind = KindInternal
		d = kinds[KindInternal]
	}
	e := &Error{
		Name:       kind,
		Message:    o.Message,
		Action:     o.Action,
		StatusCode: d.status,
		Cause:      o.Cause,
		Context:    o.Context,
	}
	if e.Message == "" {
		e.Message = d.message
	}
	if e.Action == "" {
		e.Action = d.action
	}
	return e
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return string(e.Name) + ": " + e.Message + ": " + e.Cause.Error()
	}
	return string(e.Name) + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches any *Error of the same kind, so errors.Is(err, apierror.NotFound)
// works regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Name == e.Name
}

// Sentinels for errors.Is matching.
var (
	Validation       = &Error{Name: KindValidation}
	Unauthorized     = &Error{Name: KindUnauthorized}
	Forbidden        = &Error{Name: KindForbidden}
	NotFound         = &Error{Name: KindNotFound}
	MethodNotAllowed = &Error{Name: KindMethodNotAllowed}
	Service          = &Error{Name: KindService}
	Internal         = &Error{Name: KindInternal}
)

func NewValidationError(o Options) *Error       { return New(KindValidation, o) }
func NewUnauthorizedError(o Options) *Error     { return New(KindUnauthorized, o) }
func NewForbiddenError(o Options) *Error        { return New(KindForbidden, o) }
func NewNotFoundError(o Options) *Error         { return New(KindNotFound, o) }
func NewMethodNotAllowedError(o Options) *Error { return New(KindMethodNotAllowed, o) }
func NewServiceError(o Options) *Error          { return New(KindService, o) }
func NewInternalServerError(o Options) *Error   { return New(KindInternal, o) }

// As returns the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsPublic reports whether err may be returned to the client as is.
// Only validation, not-found, unauthorized and forbidden errors qualify.
func IsPublic(err error) bool {
	e, ok := As(err)
	if !ok {
		return false
	}
	switch e.Name {
	case KindValidation, KindNotFound, KindUnauthorized, KindForbidden:
		return true
	}
	return false
}
