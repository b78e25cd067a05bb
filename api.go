package condcache

import (
	"context"
	"fmt"
)

// Identity addresses one object in the remote store.
type Identity struct {
	Bucket string
	Key    string
}

func (id Identity) String() string { return id.Bucket + "/" + id.Key }

// Request is a single (possibly conditional) read.
// IfNoneMatch is absent for unconditional reads.
type Request struct {
	Bucket      string
	Key         string
	IfNoneMatch Token
}

// Status is the outcome class of a successful transport round-trip.
type Status uint8

const (
	// StatusBody carries the full object body and its token.
	StatusBody Status = iota + 1
	// StatusNotModified means the store still holds the version named by IfNoneMatch.
	StatusNotModified
)

func (s Status) String() string {
	switch s {
	case StatusBody:
		return "body"
	case StatusNotModified:
		return "not_modified"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

// Response is what a Transport returns when the read itself succeeded.
// Body and ETag are meaningful only for StatusBody.
type Response struct {
	Status Status
	Body   []byte
	ETag   Token
}

// Transport performs conditional reads against a remote store.
//
// Fetch returns StatusNotModified only when req.IfNoneMatch is present and still
// names the current version; the comparison is owned by the store. Every other
// failure (network, auth, missing object) is returned as an error. Missing
// objects should wrap ErrObjectNotFound.
//
// Implementations own connection handling, retries and timeouts, and must be
// safe for concurrent use.
type Transport interface {
	Fetch(ctx context.Context, req Request) (Response, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, req Request) (Response, error)

func (f TransportFunc) Fetch(ctx context.Context, req Request) (Response, error) {
	return f(ctx, req)
}
