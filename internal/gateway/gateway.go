// Package gateway is the asynchronous request/response boundary to the
// autopilot daemon. Every failure is reported as a *Failure.
package gateway

import (
	"context"
	"encoding/json"
	"net/url"
)

// Request describes one call to the remote service.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any // JSON encoded when non-nil
}

// Result is what a Request resolves to: a raw JSON body on success, a
// *Failure otherwise.
type Result struct {
	Body []byte
	Err  error
}

// Completion receives the Result of a Request exactly once, from any
// goroutine.
type Completion func(Result)

// Gateway issues requests without blocking the caller. It keeps no state
// between calls; deduplication is the caller's job.
type Gateway interface {
	Request(ctx context.Context, req Request, done Completion)
}

// Decode unmarshals a successful Result into T. A failed Result is returned
// as is; a body of the wrong shape becomes a KindDecode failure.
func Decode[T any](res Result) (T, error) {
	var out T
	if res.Err != nil {
		return out, res.Err
	}
	if err := json.Unmarshal(res.Body, &out); err != nil {
		return out, decodeFailure("decode response", err)
	}
	return out, nil
}
