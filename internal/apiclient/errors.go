package apiclient

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
)

// Error taxonomy. Every failure returned by Client matches exactly one of
// these with errors.Is.
var (
	ErrValidation     = errors.New("validation error")
	ErrSessionExpired = errors.New("session expired")
	ErrNotFound       = errors.New("not found")
	ErrServer         = errors.New("server error")
	ErrTimeout        = errors.New("timeout")
	ErrNetwork        = errors.New("network unavailable")
)

var kinds = []error{ErrValidation, ErrSessionExpired, ErrNotFound, ErrServer, ErrTimeout, ErrNetwork}

// Error is a classified API failure.
type Error struct {
	Op      string // operation, e.g. "create pledge"
	Kind    error  // one of the taxonomy sentinels
	Status  int    // HTTP status, 0 when no response was received
	Message string // server or validation message, may be empty
	Err     error  // underlying cause, may be nil
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.Error()
	}
	if e.Op == "" {
		return msg
	}
	return e.Op + ": " + msg
}

// Unwrap exposes both the taxonomy kind and the underlying cause.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Validation builds a local precondition failure. No network call is made
// for these.
func Validation(op, message string) error {
	return &Error{Op: op, Kind: ErrValidation, Message: message}
}

// KindOf returns the taxonomy sentinel err belongs to, or nil.
func KindOf(err error) error {
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// Describe returns the message shown to users for err.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *Error
	hasMessage := errors.As(err, &apiErr) && apiErr.Message != ""

	switch KindOf(err) {
	case ErrValidation:
		if hasMessage {
			return apiErr.Message
		}
		return "Dados inválidos."
	case ErrSessionExpired:
		return "Sessão expirada ou não autorizada. Faça login novamente."
	case ErrNotFound:
		return "Recurso não encontrado."
	case ErrServer:
		return "Erro interno do servidor."
	case ErrTimeout:
		return "Timeout na requisição."
	case ErrNetwork:
		return "Erro de conexão com o servidor."
	default:
		return err.Error()
	}
}

// classifyStatus maps an HTTP error status onto the taxonomy.
func classifyStatus(status int) error {
	switch {
	case status == http.StatusUnauthorized:
		return ErrSessionExpired
	case status == http.StatusNotFound:
		return ErrNotFound
	case status >= 500:
		return ErrServer
	default:
		return ErrValidation
	}
}

// classifyTransport maps an error from http.Client.Do onto the taxonomy.
func classifyTransport(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout
	}
	if strings.Contains(err.Error(), "Client.Timeout exceeded") {
		return ErrTimeout
	}
	return ErrNetwork
}
