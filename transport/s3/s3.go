// Package s3 implements condcache.Transport on top of AWS S3 (or any
// S3-compatible endpoint) using conditional GetObject requests.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	"github.com/unkn0wn-root/condcache"
)

var (
	ErrNilClient = errors.New("s3 transport: nil client")
	ErrTooLarge  = errors.New("s3 transport: object exceeds MaxBytes")
)

// Client is the subset of *s3.Client the transport uses.
type Client interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

var _ Client = (*s3.Client)(nil)

type Config struct {
	Client Client
	// Prefix is prepended to every object key.
	Prefix string
	// MaxBytes caps the body read per request; 0 disables the cap.
	MaxBytes int64
}

// Transport issues GetObject with If-None-Match set to the handle's ETag and
// maps a 304 response to StatusNotModified.
type Transport struct {
	client   Client
	prefix   string
	maxBytes int64
}

var _ condcache.Transport = (*Transport)(nil)

func New(cfg Config) (*Transport, error) {
	if cfg.Client == nil {
		return nil, ErrNilClient
	}
	return &Transport{client: cfg.Client, prefix: cfg.Prefix, maxBytes: cfg.MaxBytes}, nil
}

func (t *Transport) fullKey(key string) string {
	if t.prefix == "" {
		return key
	}
	return t.prefix + key
}

func (t *Transport) Fetch(ctx context.Context, req condcache.Request) (condcache.Response, error) {
	if err := ctx.Err(); err != nil {
		return condcache.Response{}, err
	}

	in := &s3.GetObjectInput{
		Bucket: aws.String(req.Bucket),
		Key:    aws.String(t.fullKey(req.Key)),
	}
	if req.IfNoneMatch.Valid() {
		in.IfNoneMatch = aws.String(req.IfNoneMatch.String())
	}

	out, err := t.client.GetObject(ctx, in)
	if err != nil {
		var responseErr *smithyhttp.ResponseError
		if errors.As(err, &responseErr) {
			switch responseErr.HTTPStatusCode() {
			case http.StatusNotModified:
				return condcache.Response{Status: condcache.StatusNotModified}, nil
			case http.StatusNotFound:
				return condcache.Response{}, fmt.Errorf("%w: %s/%s: %w", condcache.ErrObjectNotFound, req.Bucket, req.Key, err)
			}
		}
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return condcache.Response{}, fmt.Errorf("%w: %s/%s: %w", condcache.ErrObjectNotFound, req.Bucket, req.Key, err)
		}
		return condcache.Response{}, fmt.Errorf("get object %s/%s: %w", req.Bucket, req.Key, err)
	}
	defer out.Body.Close()

	body, err := t.readBody(out.Body)
	if err != nil {
		return condcache.Response{}, fmt.Errorf("read object %s/%s: %w", req.Bucket, req.Key, err)
	}

	return condcache.Response{
		Status: condcache.StatusBody,
		Body:   body,
		ETag:   condcache.NewToken(aws.ToString(out.ETag)),
	}, nil
}

func (t *Transport) readBody(r io.Reader) ([]byte, error) {
	if t.maxBytes <= 0 {
		return io.ReadAll(r)
	}
	b, err := io.ReadAll(io.LimitReader(r, t.maxBytes))
	if err != nil {
		return nil, err
	}
	var one [1]byte
	n, err := io.ReadFull(r, one[:])
	if n > 0 {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, t.maxBytes)
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return b, nil
}
