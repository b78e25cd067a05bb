package condcache

import (
	"errors"
	"fmt"
)

var (
	ErrTransport             = errors.New("condcache: transport failed")
	ErrDecode                = errors.New("condcache: decode failed")
	ErrUnexpectedNotModified = errors.New("condcache: not modified returned for an unconditional read")

	// ErrMalformedResponse is wrapped when a transport returns a Status
	// outside StatusBody/StatusNotModified. Classified as KindTransport.
	ErrMalformedResponse = errors.New("condcache: malformed transport response")
	// ErrObjectNotFound is wrapped by transports when the object does not exist.
	ErrObjectNotFound = errors.New("condcache: object not found")

	errNilTransport = errors.New("nil transport")
	errNilDecoder   = errors.New("nil decoder")
)

// Kind classifies a FetchError.
type Kind uint8

const (
	KindTransport Kind = iota + 1
	KindDecode
	KindUnexpectedNotModified
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindDecode:
		return "decode"
	case KindUnexpectedNotModified:
		return "unexpected_not_modified"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindTransport:
		return ErrTransport
	case KindDecode:
		return ErrDecode
	case KindUnexpectedNotModified:
		return ErrUnexpectedNotModified
	default:
		return nil
	}
}

// FetchError is returned by Load and Refresh. The caller's previous handle,
// if any, is unaffected.
//
// errors.Is matches both the kind sentinel (ErrTransport, ErrDecode,
// ErrUnexpectedNotModified) and anything in the wrapped cause.
type FetchError struct {
	Kind   Kind
	Bucket string
	Key    string
	Err    error
}

func (e *FetchError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("fetch %s/%s: %s", e.Bucket, e.Key, e.Kind)
	}
	return fmt.Sprintf("fetch %s/%s: %s: %v", e.Bucket, e.Key, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if s := e.Kind.sentinel(); s != nil {
		errs = append(errs, s)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}
