// Package redis implements condcache.Transport for objects kept in Redis.
//
// Each object is a hash at "<prefix>:<bucket>:<key>" with the fields
//
//	etag  the validation token assigned by the writer
//	body  the raw object bytes
//
// The conditional read runs as one Lua script so the token comparison and the
// body read observe the same version.
package redis

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/unkn0wn-root/condcache"
)

const (
	FieldETag = "etag"
	FieldBody = "body"

	defaultPrefix = "obj"
)

var ErrNilClient = errors.New("redis transport: nil client")

// KEYS[1] object hash, ARGV[1] If-None-Match ("" when absent).
// nil => missing, {etag} => not modified, {etag, body} => body.
var fetchScript = goredis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return false
end
local tag = redis.call('HGET', KEYS[1], 'etag') or ''
if ARGV[1] ~= '' and tag == ARGV[1] then
	return {tag}
end
local body = redis.call('HGET', KEYS[1], 'body') or ''
return {tag, body}
`)

type Config struct {
	Client goredis.UniversalClient
	Prefix string // "" => "obj"
}

type Transport struct {
	rdb    goredis.UniversalClient
	prefix string
}

var _ condcache.Transport = (*Transport)(nil)

func New(cfg Config) (*Transport, error) {
	if cfg.Client == nil {
		return nil, ErrNilClient
	}
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Transport{rdb: cfg.Client, prefix: prefix}, nil
}

// ObjectKey returns the Redis key holding bucket/key.
func (t *Transport) ObjectKey(bucket, key string) string {
	return t.prefix + ":" + bucket + ":" + key
}

func (t *Transport) Fetch(ctx context.Context, req condcache.Request) (condcache.Response, error) {
	k := t.ObjectKey(req.Bucket, req.Key)
	res, err := fetchScript.Run(ctx, t.rdb, []string{k}, req.IfNoneMatch.String()).Slice()
	if errors.Is(err, goredis.Nil) {
		return condcache.Response{}, fmt.Errorf("%w: %s/%s", condcache.ErrObjectNotFound, req.Bucket, req.Key)
	}
	if err != nil {
		return condcache.Response{}, fmt.Errorf("redis fetch %s: %w", k, err)
	}

	switch len(res) {
	case 1:
		return condcache.Response{Status: condcache.StatusNotModified}, nil
	case 2:
		tag, ok1 := res[0].(string)
		body, ok2 := res[1].(string)
		if !ok1 || !ok2 {
			return condcache.Response{}, fmt.Errorf("redis fetch %s: unexpected reply types %T, %T", k, res[0], res[1])
		}
		return condcache.Response{
			Status: condcache.StatusBody,
			Body:   []byte(body),
			ETag:   condcache.NewToken(tag),
		}, nil
	default:
		return condcache.Response{}, fmt.Errorf("redis fetch %s: unexpected reply length %d", k, len(res))
	}
}
