package gateway

import (
	"errors"
	"fmt"
)

// Kind classifies why a request failed.
type Kind int

const (
	// KindNetwork is a transport error reaching the remote service.
	KindNetwork Kind = iota + 1
	// KindRemote is a non-2xx response.
	KindRemote
	// KindDecode is a payload that did not match the expected shape.
	KindDecode
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindRemote:
		return "remote"
	case KindDecode:
		return "decode"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Sentinels matched by errors.Is against a *Failure of the same kind.
var (
	ErrNetwork = errors.New("network failure")
	ErrRemote  = errors.New("remote failure")
	ErrDecode  = errors.New("decode failure")
)

// Failure is the only error type a Gateway hands back.
type Failure struct {
	Kind       Kind
	StatusCode int // set for KindRemote
	Message    string
	Err        error
}

func (f *Failure) Error() string {
	switch {
	case f.Kind == KindRemote && f.Err != nil:
		return fmt.Sprintf("%s (status %d): %v", f.Message, f.StatusCode, f.Err)
	case f.Kind == KindRemote:
		return fmt.Sprintf("%s (status %d)", f.Message, f.StatusCode)
	case f.Err != nil:
		return fmt.Sprintf("%s: %v", f.Message, f.Err)
	default:
		return f.Message
	}
}

// Unwrap exposes both the kind sentinel and the underlying cause.
func (f *Failure) Unwrap() []error {
	errs := []error{f.sentinel()}
	if f.Err != nil {
		errs = append(errs, f.Err)
	}
	return errs
}

func (f *Failure) sentinel() error {
	switch f.Kind {
	case KindNetwork:
		return ErrNetwork
	case KindRemote:
		return ErrRemote
	default:
		return ErrDecode
	}
}

func networkFailure(msg string, err error) *Failure {
	return &Failure{Kind: KindNetwork, Message: msg, Err: err}
}

func remoteFailure(msg string, status int) *Failure {
	return &Failure{Kind: KindRemote, StatusCode: status, Message: msg}
}

func decodeFailure(msg string, err error) *Failure {
	return &Failure{Kind: KindDecode, Message: msg, Err: err}
}

// KindOf returns the failure kind of err, or 0 when err is not a *Failure.
func KindOf(err error) Kind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return 0
}
