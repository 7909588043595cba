package model

import "fmt"

// Kind discriminates the error families of §7: callers use errors.Is
// against the sentinel Kind values below rather than matching on
// message text.
type Kind int

const (
	// KindOsCommand marks a failed or empty external command
	// invocation. Fatal for the current tick.
	KindOsCommand Kind = iota
	// KindObjCreate marks an attempt to create a model object with
	// a missing identity. A programming error; fatal to the daemon.
	KindObjCreate
	// KindInconsistency marks disagreement between the model and
	// the observed switch topology. Fatal.
	KindInconsistency
	// KindModelChanged marks a PMD or port set that differs from
	// the previous sample window. Recoverable.
	KindModelChanged
	// KindParse marks a regex/parse failure or a "NOT AVAIL" stat.
	// Recoverable.
	KindParse
	// KindShutdown marks a requested graceful shutdown.
	KindShutdown
)

func (k Kind) String() string {
	switch k {
	case KindOsCommand:
		return "os_command_error"
	case KindObjCreate:
		return "obj_create_error"
	case KindInconsistency:
		return "inconsistency_error"
	case KindModelChanged:
		return "model_changed_error"
	case KindParse:
		return "parse_error"
	case KindShutdown:
		return "shutdown_request"
	default:
		return "unknown_error"
	}
}

// Error is the single error type raised by the model and collector
// packages. Its Kind selects recovery behavior in the decision loop.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error with the same Kind, so
// callers can write errors.Is(err, model.ErrModelChanged) style
// checks against the sentinels below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func newErr(k Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: k, Msg: fmt.Sprintf(format, args...)}
}

func wrapErr(k Kind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: k, Msg: fmt.Sprintf(format, args...), Err: err}
}

// Sentinels used with errors.Is(err, model.ErrXxx).
var (
	ErrOsCommand     = &Error{Kind: KindOsCommand}
	ErrObjCreate     = &Error{Kind: KindObjCreate}
	ErrInconsistency = &Error{Kind: KindInconsistency}
	ErrModelChanged  = &Error{Kind: KindModelChanged}
	ErrParse         = &Error{Kind: KindParse}
	ErrShutdown      = &Error{Kind: KindShutdown}
)

// NewOsCommandError builds a KindOsCommand error.
func NewOsCommandError(err error, format string, args ...interface{}) *Error {
	return wrapErr(KindOsCommand, err, format, args...)
}

// NewObjCreateError builds a KindObjCreate error.
func NewObjCreateError(format string, args ...interface{}) *Error {
	return newErr(KindObjCreate, format, args...)
}

// NewInconsistencyError builds a KindInconsistency error.
func NewInconsistencyError(format string, args ...interface{}) *Error {
	return newErr(KindInconsistency, format, args...)
}

// NewModelChangedError builds a KindModelChanged error.
func NewModelChangedError(format string, args ...interface{}) *Error {
	return newErr(KindModelChanged, format, args...)
}

// NewParseError builds a KindParse error.
func NewParseError(format string, args ...interface{}) *Error {
	return newErr(KindParse, format, args...)
}

// NewShutdownRequest builds a KindShutdown error.
func NewShutdownRequest(format string, args ...interface{}) *Error {
	return newErr(KindShutdown, format, args...)
}

// Recoverable reports whether the decision loop may catch this error,
// clear the model, and retry the sample window in place, rather than
// letting it escape to the shutdown path.
func Recoverable(err error) bool {
	e, ok := err.(*Error)
	if !ok {
		return false
	}
	return e.Kind == KindModelChanged || e.Kind == KindParse
}
