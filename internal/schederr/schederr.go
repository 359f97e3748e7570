// Package schederr defines the scheduler's error kinds and a helper to
// classify a wrapped error back to its kind, so the control interface can
// report stable error codes regardless of how deep the error originated.
package schederr

import "errors"

// Sentinel errors, one per kind named in the configuration and registry
// contracts. Wrap with fmt.Errorf("...: %w", ErrX) at the point of failure.
var (
	// ErrConfigInvalid marks a malformed entry, unknown type, missing
	// mandatory field, invalid value, or unknown referenced name.
	ErrConfigInvalid = errors.New("invalid configuration")

	// ErrNotFound marks a registry lookup for an unknown name.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists marks an add on a name that is already taken.
	ErrAlreadyExists = errors.New("already exists")

	// ErrWouldBlock marks a control operation on a busy condition called
	// with wait=false.
	ErrWouldBlock = errors.New("would block")

	// ErrUnsupported marks an operation not valid for the given object,
	// e.g. assigning a non-bucket condition to an event.
	ErrUnsupported = errors.New("unsupported")

	// ErrListenerFailure marks an event subscription or teardown failure.
	ErrListenerFailure = errors.New("listener failure")

	// ErrTaskFailure marks a task that returned Failure or Error. Never
	// fatal to the scheduler; absorbed by the owning condition's retry
	// policy.
	ErrTaskFailure = errors.New("task failure")
)

// Kind identifies one of the seven error kinds from the error design.
type Kind int

const (
	KindUnknown Kind = iota
	KindConfigInvalid
	KindNotFound
	KindAlreadyExists
	KindWouldBlock
	KindUnsupported
	KindListenerFailure
	KindTaskFailure
)

// KindOf classifies err against the sentinel set via errors.Is, walking the
// wrap chain. Returns KindUnknown if err does not wrap any known sentinel.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrConfigInvalid):
		return KindConfigInvalid
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrAlreadyExists):
		return KindAlreadyExists
	case errors.Is(err, ErrWouldBlock):
		return KindWouldBlock
	case errors.Is(err, ErrUnsupported):
		return KindUnsupported
	case errors.Is(err, ErrListenerFailure):
		return KindListenerFailure
	case errors.Is(err, ErrTaskFailure):
		return KindTaskFailure
	default:
		return KindUnknown
	}
}

// String renders a Kind for logging.
func (k Kind) String() string {
	switch k {
	case KindConfigInvalid:
		return "ConfigInvalid"
	case KindNotFound:
		return "NotFound"
	case KindAlreadyExists:
		return "AlreadyExists"
	case KindWouldBlock:
		return "WouldBlock"
	case KindUnsupported:
		return "Unsupported"
	case KindListenerFailure:
		return "ListenerFailure"
	case KindTaskFailure:
		return "TaskFailure"
	default:
		return "Unknown"
	}
}
