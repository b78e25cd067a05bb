// Command condwatch polls remote objects and logs every new version.
//
//	condwatch -config condwatch.toml
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/unkn0wn-root/condcache"
	asynchook "github.com/unkn0wn-root/condcache/hooks/async"
	zaplog "github.com/unkn0wn-root/condcache/log/zap"
	pr "github.com/unkn0wn-root/condcache/provider"
	"github.com/unkn0wn-root/condcache/provider/bigcache"
	redisprovider "github.com/unkn0wn-root/condcache/provider/redis"
	"github.com/unkn0wn-root/condcache/provider/ristretto"
	"github.com/unkn0wn-root/condcache/sloghooks"
	"github.com/unkn0wn-root/condcache/transport/localfs"
	"github.com/unkn0wn-root/condcache/transport/mirror"
	redistransport "github.com/unkn0wn-root/condcache/transport/redis"
	s3transport "github.com/unkn0wn-root/condcache/transport/s3"
)

func main() {
	path := flag.String("config", "condwatch.toml", "path to TOML config")
	flag.Parse()

	if err := run(*path); err != nil {
		fmt.Fprintln(os.Stderr, "condwatch:", err)
		os.Exit(1)
	}
}

func run(path string) error {
	cfg, err := loadConfig(path)
	if err != nil {
		return err
	}

	log, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var rdb *goredis.Client
	if cfg.Source == "redis" || cfg.Mirror.Kind == "redis" {
		rdb = goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr})
		defer func() { _ = rdb.Close() }()
	}

	opts := []condcache.Option{condcache.WithLogger(zaplog.ZapLogger{L: log})}
	var hooks condcache.Hooks
	if cfg.EventLog {
		ah := asynchook.New(sloghooks.New(slog.New(slog.NewJSONHandler(os.Stderr, nil)), sloghooks.Options{NotModifiedEvery: 100}), 1, 1024)
		defer ah.Close()
		hooks = ah
		opts = append(opts, condcache.WithHooks(hooks))
	}

	tr, err := newTransport(ctx, cfg, rdb)
	if err != nil {
		return err
	}
	if cfg.Mirror.Kind != "" {
		m, err := newMirror(ctx, cfg, tr, rdb, log, hooks)
		if err != nil {
			return err
		}
		defer func() { _ = m.Close(context.Background()) }()
		tr = m
	}

	base := watcher[any]{log: log, tr: tr, interval: cfg.Interval, rounds: cfg.Rounds, opts: opts, show: valueField[any]}

	log.Info("condwatch starting", zap.String("source", cfg.Source), zap.String("mirror", cfg.Mirror.Kind), zap.Int("objects", len(cfg.Objects)))

	var wg sync.WaitGroup
	errs := make(chan error, len(cfg.Objects))
	for _, obj := range cfg.Objects {
		wg.Add(1)
		go func(obj objectConfig) {
			defer wg.Done()
			if err := runObject(ctx, base, obj); err != nil {
				errs <- fmt.Errorf("%s/%s: %w", obj.Bucket, obj.Key, err)
			}
		}(obj)
	}
	wg.Wait()
	close(errs)
	return <-errs
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log_level: %w", err)
	}
	zc := zap.NewProductionConfig()
	zc.Level = lvl
	return zc.Build()
}

func newTransport(ctx context.Context, cfg watchConfig, rdb *goredis.Client) (condcache.Transport, error) {
	switch cfg.Source {
	case "s3":
		loadOpts := []func(*config.LoadOptions) error{config.WithRegion(cfg.S3.Region)}
		if cfg.S3.AccessKey != "" {
			loadOpts = append(loadOpts, config.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(cfg.S3.AccessKey, cfg.S3.SecretKey, "")))
		}
		awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		client := awss3.NewFromConfig(awsCfg, func(o *awss3.Options) {
			o.UsePathStyle = cfg.S3.PathStyle
			if cfg.S3.Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.S3.Endpoint)
			}
		})
		return s3transport.New(s3transport.Config{Client: client, Prefix: cfg.S3.Prefix, MaxBytes: cfg.S3.MaxBytes})
	case "redis":
		return redistransport.New(redistransport.Config{Client: rdb, Prefix: cfg.RedisKeys})
	case "localfs":
		return localfs.New(cfg.Root), nil
	default:
		return nil, fmt.Errorf("unknown source %q", cfg.Source)
	}
}

func newMirror(ctx context.Context, cfg watchConfig, upstream condcache.Transport, rdb *goredis.Client, log *zap.Logger, hooks condcache.Hooks) (*mirror.Transport, error) {
	var (
		store pr.Provider
		err   error
	)
	switch cfg.Mirror.Kind {
	case "ristretto":
		store, err = ristretto.New(ristretto.Config{NumCounters: 100_000, MaxCost: 64 << 20, BufferItems: 64})
	case "bigcache":
		store, err = bigcache.New(ctx, bigcache.Config{LifeWindow: cfg.Mirror.TTL})
	case "redis":
		store, err = redisprovider.New(redisprovider.Config{Client: rdb})
	default:
		return nil, fmt.Errorf("unknown mirror kind %q", cfg.Mirror.Kind)
	}
	if err != nil {
		return nil, fmt.Errorf("mirror store: %w", err)
	}
	return mirror.New(mirror.Config{
		Namespace: cfg.Mirror.Namespace,
		Upstream:  upstream,
		Store:     store,
		TTL:       cfg.Mirror.TTL,
		Logger:    zaplog.ZapLogger{L: log.Named("mirror")},
		Hooks:     hooks,
	})
}
