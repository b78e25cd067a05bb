// Package memory is an in-process object store implementing
// condcache.Transport. Tokens are derived from an xxhash of the body, so
// rewriting identical bytes keeps the same token, as a content-hashing store
// would. Intended for tests, examples and local development.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/unkn0wn-root/condcache"
)

type object struct {
	body []byte
	etag condcache.Token
}

type Store struct {
	mu       sync.Mutex
	objects  map[condcache.Identity]object
	failures map[condcache.Identity][]error
	requests []condcache.Request
}

var _ condcache.Transport = (*Store)(nil)

func New() *Store {
	return &Store{
		objects:  make(map[condcache.Identity]object),
		failures: make(map[condcache.Identity][]error),
	}
}

// ETagOf returns the token Put assigns to body.
func ETagOf(body []byte) condcache.Token {
	return condcache.NewToken(strconv.Quote(strconv.FormatUint(xxhash.Sum64(body), 16)))
}

// Put stores a copy of body and returns its token.
func (s *Store) Put(bucket, key string, body []byte) condcache.Token {
	tag := ETagOf(body)
	s.put(bucket, key, body, tag)
	return tag
}

// PutWithETag stores body under an explicit token. An empty etag stores the
// object without one.
func (s *Store) PutWithETag(bucket, key string, body []byte, etag string) {
	s.put(bucket, key, body, condcache.NewToken(etag))
}

func (s *Store) put(bucket, key string, body []byte, tag condcache.Token) {
	s.mu.Lock()
	s.objects[condcache.Identity{Bucket: bucket, Key: key}] = object{body: bytes.Clone(body), etag: tag}
	s.mu.Unlock()
}

func (s *Store) Delete(bucket, key string) {
	s.mu.Lock()
	delete(s.objects, condcache.Identity{Bucket: bucket, Key: key})
	s.mu.Unlock()
}

// FailNext makes the next Fetch of bucket/key return err. Calls queue.
func (s *Store) FailNext(bucket, key string, err error) {
	id := condcache.Identity{Bucket: bucket, Key: key}
	s.mu.Lock()
	s.failures[id] = append(s.failures[id], err)
	s.mu.Unlock()
}

// Requests returns a copy of every request received so far.
func (s *Store) Requests() []condcache.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]condcache.Request, len(s.requests))
	copy(out, s.requests)
	return out
}

func (s *Store) Fetch(ctx context.Context, req condcache.Request) (condcache.Response, error) {
	if err := ctx.Err(); err != nil {
		return condcache.Response{}, err
	}
	id := condcache.Identity{Bucket: req.Bucket, Key: req.Key}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)

	if q := s.failures[id]; len(q) > 0 {
		err := q[0]
		if len(q) == 1 {
			delete(s.failures, id)
		} else {
			s.failures[id] = q[1:]
		}
		return condcache.Response{}, err
	}

	obj, ok := s.objects[id]
	if !ok {
		return condcache.Response{}, fmt.Errorf("%w: %s", condcache.ErrObjectNotFound, id)
	}
	if req.IfNoneMatch.Valid() && req.IfNoneMatch == obj.etag {
		return condcache.Response{Status: condcache.StatusNotModified}, nil
	}
	return condcache.Response{
		Status: condcache.StatusBody,
		Body:   bytes.Clone(obj.body),
		ETag:   obj.etag,
	}, nil
}
