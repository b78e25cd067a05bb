package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

var formats = map[string]bool{
	"json": true, "cbor": true, "msgpack": true, "yaml": true,
	"toml": true, "text": true, "bytes": true,
}

type watchConfig struct {
	Interval  time.Duration
	Rounds    int // 0 => until interrupted
	Source    string
	LogLevel  string
	EventLog  bool
	S3        s3Config
	RedisAddr string
	RedisKeys string
	Root      string
	Mirror    mirrorConfig
	Objects   []objectConfig
}

type s3Config struct {
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	PathStyle bool
	Prefix    string
	MaxBytes  int64
}

type mirrorConfig struct {
	Kind      string // "", ristretto, bigcache, redis
	Namespace string
	TTL       time.Duration
}

type objectConfig struct {
	Bucket string `toml:"bucket"`
	Key    string `toml:"key"`
	Format string `toml:"format"`
}

func defaultConfig() watchConfig {
	return watchConfig{
		Interval:  30 * time.Second,
		Source:    "s3",
		LogLevel:  "info",
		S3:        s3Config{Region: "us-east-1"},
		RedisAddr: "127.0.0.1:6379",
		Root:      ".",
		Mirror:    mirrorConfig{Namespace: "condwatch", TTL: time.Hour},
	}
}

type fileConfig struct {
	Interval string         `toml:"interval"`
	Rounds   int            `toml:"rounds"`
	Source   string         `toml:"source"`
	LogLevel string         `toml:"log_level"`
	EventLog bool           `toml:"event_log"`
	S3       fileS3         `toml:"s3"`
	Redis    fileRedis      `toml:"redis"`
	LocalFS  fileLocalFS    `toml:"localfs"`
	Mirror   fileMirror     `toml:"mirror"`
	Objects  []objectConfig `toml:"object"`
}

type fileS3 struct {
	Region    string `toml:"region"`
	Endpoint  string `toml:"endpoint"`
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
	PathStyle bool   `toml:"path_style"`
	Prefix    string `toml:"prefix"`
	MaxBytes  int64  `toml:"max_bytes"`
}

type fileRedis struct {
	Addr   string `toml:"addr"`
	Prefix string `toml:"prefix"`
}

type fileLocalFS struct {
	Root string `toml:"root"`
}

type fileMirror struct {
	Kind      string `toml:"kind"`
	Namespace string `toml:"namespace"`
	TTL       string `toml:"ttl"`
}

func loadConfig(path string) (watchConfig, error) {
	cfg := defaultConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return watchConfig{}, fmt.Errorf("load condwatch config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return watchConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}

	if meta.IsDefined("interval") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Interval))
		if err != nil {
			return watchConfig{}, fmt.Errorf("parse interval: %w", err)
		}
		cfg.Interval = d
	}
	if meta.IsDefined("rounds") {
		cfg.Rounds = raw.Rounds
	}
	if meta.IsDefined("source") {
		cfg.Source = strings.ToLower(strings.TrimSpace(raw.Source))
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}
	if meta.IsDefined("event_log") {
		cfg.EventLog = raw.EventLog
	}

	if meta.IsDefined("s3", "region") {
		cfg.S3.Region = strings.TrimSpace(raw.S3.Region)
	}
	if meta.IsDefined("s3", "endpoint") {
		cfg.S3.Endpoint = strings.TrimSpace(raw.S3.Endpoint)
	}
	if meta.IsDefined("s3", "access_key") {
		cfg.S3.AccessKey = raw.S3.AccessKey
	}
	if meta.IsDefined("s3", "secret_key") {
		cfg.S3.SecretKey = raw.S3.SecretKey
	}
	if meta.IsDefined("s3", "path_style") {
		cfg.S3.PathStyle = raw.S3.PathStyle
	}
	if meta.IsDefined("s3", "prefix") {
		cfg.S3.Prefix = raw.S3.Prefix
	}
	if meta.IsDefined("s3", "max_bytes") {
		cfg.S3.MaxBytes = raw.S3.MaxBytes
	}

	if meta.IsDefined("redis", "addr") {
		cfg.RedisAddr = strings.TrimSpace(raw.Redis.Addr)
	}
	if meta.IsDefined("redis", "prefix") {
		cfg.RedisKeys = strings.TrimSpace(raw.Redis.Prefix)
	}
	if meta.IsDefined("localfs", "root") {
		cfg.Root = raw.LocalFS.Root
	}

	if meta.IsDefined("mirror", "kind") {
		cfg.Mirror.Kind = strings.ToLower(strings.TrimSpace(raw.Mirror.Kind))
	}
	if meta.IsDefined("mirror", "namespace") {
		cfg.Mirror.Namespace = strings.TrimSpace(raw.Mirror.Namespace)
	}
	if meta.IsDefined("mirror", "ttl") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Mirror.TTL))
		if err != nil {
			return watchConfig{}, fmt.Errorf("parse mirror.ttl: %w", err)
		}
		cfg.Mirror.TTL = d
	}

	for _, o := range raw.Objects {
		o.Bucket = strings.TrimSpace(o.Bucket)
		o.Key = strings.TrimSpace(o.Key)
		o.Format = strings.ToLower(strings.TrimSpace(o.Format))
		if o.Format == "" {
			o.Format = "bytes"
		}
		cfg.Objects = append(cfg.Objects, o)
	}

	if err := validateConfig(cfg); err != nil {
		return watchConfig{}, err
	}
	return cfg, nil
}

func validateConfig(cfg watchConfig) error {
	if cfg.Interval <= 0 {
		return fmt.Errorf("interval must be positive")
	}
	if cfg.Rounds < 0 {
		return fmt.Errorf("rounds must not be negative")
	}
	switch cfg.Source {
	case "s3", "redis", "localfs":
	default:
		return fmt.Errorf("unknown source %q", cfg.Source)
	}
	switch cfg.Mirror.Kind {
	case "", "ristretto", "bigcache", "redis":
	default:
		return fmt.Errorf("unknown mirror kind %q", cfg.Mirror.Kind)
	}
	if cfg.Mirror.Kind != "" && cfg.Mirror.Namespace == "" {
		return fmt.Errorf("mirror.namespace is required")
	}
	if len(cfg.Objects) == 0 {
		return fmt.Errorf("at least one [[object]] is required")
	}
	for i, o := range cfg.Objects {
		if o.Bucket == "" || o.Key == "" {
			return fmt.Errorf("object[%d]: bucket and key are required", i)
		}
		if !formats[o.Format] {
			return fmt.Errorf("object[%d]: unknown format %q", i, o.Format)
		}
	}
	return nil
}
