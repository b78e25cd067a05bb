package s3

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/condcache"
	"github.com/unkn0wn-root/condcache/codec"
)

type fakeObject struct {
	etag string
	body string
}

// fakeS3 serves path-style GetObject with If-None-Match support.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string]fakeObject // "/bucket/key"
	seen    []string              // If-None-Match per request
}

func (f *fakeS3) put(bucket, key, etag, body string) {
	f.mu.Lock()
	f.objects["/"+bucket+"/"+key] = fakeObject{etag: etag, body: body}
	f.mu.Unlock()
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, r.Header.Get("If-None-Match"))

	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if strings.HasSuffix(r.URL.Path, "/boom") {
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><Error><Code>AccessDenied</Code><Message>denied</Message></Error>`))
		return
	}
	obj, ok := f.objects[r.URL.Path]
	if !ok {
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`))
		return
	}
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == obj.etag {
		w.Header().Set("ETag", obj.etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", obj.etag)
	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(obj.body))
}

func (f *fakeS3) preconditions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.seen...)
}

func newTestTransport(t *testing.T, cfg Config) (*Transport, *fakeS3) {
	t.Helper()
	ctx := context.Background()

	fake := &fakeS3{objects: make(map[string]fakeObject)}
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	awsCfg, err := config.LoadDefaultConfig(
		ctx,
		config.WithRegion("us-east-1"),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("test", "test", "")),
		config.WithRetryMaxAttempts(1),
	)
	require.NoError(t, err)

	cfg.Client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
		o.BaseEndpoint = aws.String(server.URL)
	})
	tr, err := New(cfg)
	require.NoError(t, err)
	return tr, fake
}

func TestFetchBodyAndNotModified(t *testing.T) {
	ctx := context.Background()
	tr, fake := newTestTransport(t, Config{})
	fake.put("test-bucket", "hello.txt", `"123"`, "hello")

	resp, err := tr.Fetch(ctx, condcache.Request{Bucket: "test-bucket", Key: "hello.txt"})
	require.NoError(t, err)
	assert.Equal(t, condcache.StatusBody, resp.Status)
	assert.Equal(t, "hello", string(resp.Body))
	assert.Equal(t, `"123"`, resp.ETag.String())

	resp, err = tr.Fetch(ctx, condcache.Request{Bucket: "test-bucket", Key: "hello.txt", IfNoneMatch: resp.ETag})
	require.NoError(t, err)
	assert.Equal(t, condcache.StatusNotModified, resp.Status)

	assert.Equal(t, []string{"", `"123"`}, fake.preconditions())
}

func TestHandleRoundTripOverS3(t *testing.T) {
	ctx := context.Background()
	tr, fake := newTestTransport(t, Config{})
	fake.put("test-bucket", "hello.txt", `"123"`, "hello")

	h, err := condcache.Load(ctx, "test-bucket", "hello.txt", codec.String{}, tr)
	require.NoError(t, err)
	c, ok := h.Content()
	require.True(t, ok)
	assert.Equal(t, "hello", c.Body())

	next, err := h.Refresh(ctx, tr)
	require.NoError(t, err)
	assert.Nil(t, next)

	fake.put("test-bucket", "hello.txt", `"125"`, "bye")
	next, err = h.Refresh(ctx, tr)
	require.NoError(t, err)
	require.NotNil(t, next)
	c, _ = next.Content()
	assert.Equal(t, "bye", c.Body())
	assert.Equal(t, `"125"`, c.ETag().String())
}

func TestFetchNotFound(t *testing.T) {
	tr, _ := newTestTransport(t, Config{})
	_, err := tr.Fetch(context.Background(), condcache.Request{Bucket: "test-bucket", Key: "missing"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, condcache.ErrObjectNotFound), "got %v", err)
}

func TestFetchServiceErrorIsOpaque(t *testing.T) {
	tr, _ := newTestTransport(t, Config{})
	_, err := tr.Fetch(context.Background(), condcache.Request{Bucket: "test-bucket", Key: "boom"})
	require.Error(t, err)
	assert.False(t, errors.Is(err, condcache.ErrObjectNotFound))
	assert.Contains(t, err.Error(), "get object test-bucket/boom")
}

func TestPrefixAndMaxBytes(t *testing.T) {
	ctx := context.Background()
	tr, fake := newTestTransport(t, Config{Prefix: "cfg/", MaxBytes: 4})
	fake.put("test-bucket", "cfg/small", `"1"`, "abcd")
	fake.put("test-bucket", "cfg/large", `"2"`, "abcde")

	resp, err := tr.Fetch(ctx, condcache.Request{Bucket: "test-bucket", Key: "small"})
	require.NoError(t, err)
	assert.Equal(t, "abcd", string(resp.Body))

	_, err = tr.Fetch(ctx, condcache.Request{Bucket: "test-bucket", Key: "large"})
	require.ErrorIs(t, err, ErrTooLarge)
}

func TestMaxBytesAtInt64Limit(t *testing.T) {
	ctx := context.Background()
	tr, fake := newTestTransport(t, Config{MaxBytes: math.MaxInt64})
	fake.put("test-bucket", "hello.txt", `"e1"`, "hello world")

	resp, err := tr.Fetch(ctx, condcache.Request{Bucket: "test-bucket", Key: "hello.txt"})
	require.NoError(t, err)
	assert.Equal(t, condcache.StatusBody, resp.Status)
	assert.Equal(t, "hello world", string(resp.Body))
	assert.Equal(t, `"e1"`, resp.ETag.String())
}

func TestReadBodyLimits(t *testing.T) {
	for _, tc := range []struct {
		name    string
		max     int64
		in      string
		want    string
		tooLong bool
	}{
		{"unlimited", 0, "abcdef", "abcdef", false},
		{"exact", 3, "abc", "abc", false},
		{"over by one", 3, "abcd", "", true},
		{"max int64", math.MaxInt64, "abcdef", "abcdef", false},
		{"empty", 3, "", "", false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			tr := &Transport{maxBytes: tc.max}
			b, err := tr.readBody(strings.NewReader(tc.in))
			if tc.tooLong {
				require.ErrorIs(t, err, ErrTooLarge)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, string(b))
		})
	}
}

func TestNewRequiresClient(t *testing.T) {
	_, err := New(Config{})
	require.ErrorIs(t, err, ErrNilClient)
}
