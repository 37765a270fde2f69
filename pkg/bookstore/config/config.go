// Package config loads server configuration from the environment and
// assembles a bookstore.Service from it.
package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/hondana/bookstore/pkg/bookstore"
	"github.com/hondana/bookstore/pkg/bookstore/auth"
	ledgermemory "github.com/hondana/bookstore/pkg/bookstore/ledger/memory"
	ledgerpg "github.com/hondana/bookstore/pkg/bookstore/ledger/postgres"
	fsstorage "github.com/hondana/bookstore/pkg/bookstore/storage/fs"
	memorystorage "github.com/hondana/bookstore/pkg/bookstore/storage/memory"
	s3storage "github.com/hondana/bookstore/pkg/bookstore/storage/s3"
)

// ServerConfig represents server configuration for the bookstore service
type ServerConfig struct {
	Port        string `env:"PORT" env-default:"8080"`
	Environment string `env:"ENVIRONMENT" env-default:"development"` // development, production, testing

	// Storage configuration
	StorageBackend string `env:"STORAGE_BACKEND" env-default:"memory"` // "memory", "fs", "s3"

	FSBaseDir   string `env:"FS_BASE_DIR"`
	FSURLPrefix string `env:"FS_URL_PREFIX"`
	FSSecretKey string `env:"FS_SECRET_KEY"`

	S3Region          string `env:"S3_REGION" env-default:"us-east-1"`
	S3Bucket          string `env:"S3_BUCKET"`
	S3AccessKeyID     string `env:"S3_ACCESS_KEY_ID"`
	S3SecretAccessKey string `env:"S3_SECRET_ACCESS_KEY"`
	S3Endpoint        string `env:"S3_ENDPOINT"`
	S3UsePathStyle    bool   `env:"S3_USE_PATH_STYLE" env-default:"false"`
	S3CreateBucket    bool   `env:"S3_CREATE_BUCKET" env-default:"false"`

	// Ledger configuration; empty DATABASE_URL means in-memory receipts
	DatabaseURL string `env:"DATABASE_URL"`

	// Session token verification; empty disables viewer resolution
	JWTSecret string `env:"JWT_SECRET"`

	// Catalog tuning
	SignTTLSeconds int `env:"SIGN_TTL_SECONDS" env-default:"3600"`
	Fanout         int `env:"CATALOG_FANOUT" env-default:"8"`
}

// Load reads the configuration from environment variables and validates it.
func Load() (*ServerConfig, error) {
	var cfg ServerConfig
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}

	switch c.StorageBackend {
	case "memory":
	case "fs":
		if c.FSBaseDir == "" {
			return errors.New("FS_BASE_DIR is required for the fs backend")
		}
		if c.FSURLPrefix == "" || c.FSSecretKey == "" {
			return errors.New("FS_URL_PREFIX and FS_SECRET_KEY are required for fs signed urls")
		}
	case "s3":
		if c.S3Bucket == "" {
			return errors.New("S3_BUCKET is required for the s3 backend")
		}
	default:
		return fmt.Errorf("storage backend must be 'memory', 'fs' or 's3', got %q", c.StorageBackend)
	}

	if c.SignTTLSeconds <= 0 {
		return errors.New("SIGN_TTL_SECONDS must be positive")
	}
	if c.Fanout <= 0 {
		return errors.New("CATALOG_FANOUT must be positive")
	}
	return nil
}

// BuildService creates a bookstore.Service from the configuration.
func (c *ServerConfig) BuildService(ctx context.Context) (bookstore.Service, error) {
	store, err := c.buildBlobStore()
	if err != nil {
		return nil, err
	}

	ledger, err := c.buildLedger(ctx)
	if err != nil {
		return nil, err
	}

	options := []bookstore.Option{
		bookstore.WithBlobStore(store),
		bookstore.WithLedger(ledger),
		bookstore.WithSignTTL(time.Duration(c.SignTTLSeconds) * time.Second),
		bookstore.WithFanout(c.Fanout),
	}
	if c.JWTSecret != "" {
		options = append(options, bookstore.WithVerifier(auth.NewJWTVerifier([]byte(c.JWTSecret))))
	}

	return bookstore.New(options...)
}

func (c *ServerConfig) buildBlobStore() (bookstore.BlobStore, error) {
	switch c.StorageBackend {
	case "memory":
		return memorystorage.New(), nil
	case "fs":
		return fsstorage.New(fsstorage.Config{
			BaseDir:   c.FSBaseDir,
			URLPrefix: c.FSURLPrefix,
			SecretKey: c.FSSecretKey,
		})
	case "s3":
		return s3storage.New(s3storage.Config{
			Region:                 c.S3Region,
			Bucket:                 c.S3Bucket,
			AccessKeyID:            c.S3AccessKeyID,
			SecretAccessKey:        c.S3SecretAccessKey,
			Endpoint:               c.S3Endpoint,
			UsePathStyle:           c.S3UsePathStyle,
			CreateBucketIfNotExist: c.S3CreateBucket,
		})
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", c.StorageBackend)
	}
}

func (c *ServerConfig) buildLedger(ctx context.Context) (bookstore.EntitlementLedger, error) {
	if c.DatabaseURL == "" {
		return ledgermemory.New(), nil
	}
	return ledgerpg.NewFromURL(ctx, c.DatabaseURL)
}
