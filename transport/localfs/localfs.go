// Package localfs serves objects from a directory tree laid out as
// <root>/<bucket>/<key>. The token is a weak ETag built from size and
// modification time, the way static file servers derive one, so a not
// modified answer costs a stat and no read.
//
// Weak tokens cannot see a rewrite that keeps the size and lands within the
// filesystem's mtime granularity; such a change is reported as not modified.
package localfs

import (
	"context"
	"errors"
	"fmt"
	"io"
	iofs "io/fs"
	"os"
	"path/filepath"

	"github.com/unkn0wn-root/condcache"
)

var ErrInvalidPath = errors.New("localfs: bucket or key escapes root")

type Transport struct {
	root string
}

var _ condcache.Transport = (*Transport)(nil)

func New(root string) *Transport {
	return &Transport{root: root}
}

// ETag returns the token Fetch reports for fi.
func ETag(fi iofs.FileInfo) condcache.Token {
	return condcache.NewToken(fmt.Sprintf(`W/"%x-%x"`, fi.Size(), fi.ModTime().UnixNano()))
}

func (t *Transport) path(bucket, key string) (string, error) {
	k := filepath.FromSlash(key)
	if bucket == "" || !filepath.IsLocal(bucket) || !filepath.IsLocal(k) {
		return "", fmt.Errorf("%w: %s/%s", ErrInvalidPath, bucket, key)
	}
	return filepath.Join(t.root, bucket, k), nil
}

func (t *Transport) Fetch(ctx context.Context, req condcache.Request) (condcache.Response, error) {
	if err := ctx.Err(); err != nil {
		return condcache.Response{}, err
	}
	p, err := t.path(req.Bucket, req.Key)
	if err != nil {
		return condcache.Response{}, err
	}

	f, err := os.Open(p)
	if errors.Is(err, iofs.ErrNotExist) {
		return condcache.Response{}, fmt.Errorf("%w: %s/%s", condcache.ErrObjectNotFound, req.Bucket, req.Key)
	}
	if err != nil {
		return condcache.Response{}, fmt.Errorf("open %s/%s: %w", req.Bucket, req.Key, err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return condcache.Response{}, fmt.Errorf("stat %s/%s: %w", req.Bucket, req.Key, err)
	}
	if fi.IsDir() {
		return condcache.Response{}, fmt.Errorf("%w: %s/%s is a directory", condcache.ErrObjectNotFound, req.Bucket, req.Key)
	}

	tag := ETag(fi)
	if req.IfNoneMatch.Valid() && req.IfNoneMatch == tag {
		return condcache.Response{Status: condcache.StatusNotModified}, nil
	}

	body, err := io.ReadAll(f)
	if err != nil {
		return condcache.Response{}, fmt.Errorf("read %s/%s: %w", req.Bucket, req.Key, err)
	}
	return condcache.Response{Status: condcache.StatusBody, Body: body, ETag: tag}, nil
}
