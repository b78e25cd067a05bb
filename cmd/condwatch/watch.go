package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/unkn0wn-root/condcache"
	"github.com/unkn0wn-root/condcache/codec"
)

// watcher polls one object. Decode and transport failures are logged and
// the last good handle is kept.
type watcher[V any] struct {
	log      *zap.Logger
	tr       condcache.Transport
	interval time.Duration
	rounds   int
	opts     []condcache.Option
	show     func(V) zap.Field
}

func (w watcher[V]) run(ctx context.Context, obj objectConfig, dec codec.Decoder[V]) error {
	h := condcache.New(obj.Bucket, obj.Key, dec, w.opts...)
	l := w.log.With(zap.String("object", h.Identity().String()), zap.String("format", obj.Format))

	tick := time.NewTicker(w.interval)
	defer tick.Stop()

	for round := 1; ; round++ {
		next, err := h.Refresh(ctx, w.tr)
		switch {
		case errors.Is(err, context.Canceled):
			return nil
		case err != nil:
			l.Warn("refresh failed", zap.Error(err), zap.Bool("have_value", h.Fetched()))
		case next == nil:
			l.Debug("not modified")
		default:
			h = next
			c, _ := h.Content()
			l.Info("object updated", zap.String("etag", c.ETag().String()), w.show(c.Body()))
		}

		if w.rounds > 0 && round >= w.rounds {
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		case <-tick.C:
		}
	}
}

func valueField[V any](v V) zap.Field { return zap.String("value", fmt.Sprint(v)) }

// runObject picks the decoder for obj.Format and runs its watch loop.
func runObject(ctx context.Context, base watcher[any], obj objectConfig) error {
	switch obj.Format {
	case "json":
		return base.run(ctx, obj, codec.JSON[any]{})
	case "cbor":
		dec, err := codec.NewCBOR[any](false)
		if err != nil {
			return err
		}
		return base.run(ctx, obj, dec)
	case "msgpack":
		return base.run(ctx, obj, codec.Msgpack[any]{})
	case "yaml":
		return base.run(ctx, obj, codec.YAML[any]{})
	case "toml":
		return retype[map[string]any](base, valueField[map[string]any]).run(ctx, obj, codec.TOML[map[string]any]{})
	case "text":
		return retype[string](base, func(s string) zap.Field { return zap.String("value", s) }).run(ctx, obj, codec.String{})
	case "bytes":
		return retype[[]byte](base, func(b []byte) zap.Field { return zap.Int("size", len(b)) }).run(ctx, obj, codec.Bytes{})
	default:
		return fmt.Errorf("unknown format %q", obj.Format)
	}
}

func retype[V any](w watcher[any], show func(V) zap.Field) watcher[V] {
	return watcher[V]{
		log:      w.log,
		tr:       w.tr,
		interval: w.interval,
		rounds:   w.rounds,
		opts:     w.opts,
		show:     show,
	}
}
