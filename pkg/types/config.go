package types

import (
	"errors"
	"time"
)

// Config holds backend selection and parameters for the store and the
// collaborators wired around it.
type Config struct {
	Backend   string          `json:"backend" yaml:"backend" mapstructure:"backend"`
	DataDir   string          `json:"data_dir" yaml:"data_dir" mapstructure:"data_dir"`
	Blob      BlobConfig      `json:"blob" yaml:"blob" mapstructure:"blob"`
	Thumbnail ThumbnailConfig `json:"thumbnail" yaml:"thumbnail" mapstructure:"thumbnail"`
	Audit     AuditConfig     `json:"audit" yaml:"audit" mapstructure:"audit"`
	Cache     CacheConfig     `json:"cache" yaml:"cache" mapstructure:"cache"`
	Log       LogConfig       `json:"log" yaml:"log" mapstructure:"log"`
}

// BlobConfig selects where uploaded payloads are kept.
type BlobConfig struct {
	Driver    string `json:"driver" yaml:"driver" mapstructure:"driver"`
	LocalPath string `json:"local_path" yaml:"local_path" mapstructure:"local_path"`
	S3Bucket  string `json:"s3_bucket" yaml:"s3_bucket" mapstructure:"s3_bucket"`
	S3Region  string `json:"s3_region" yaml:"s3_region" mapstructure:"s3_region"`
	S3Prefix  string `json:"s3_prefix" yaml:"s3_prefix" mapstructure:"s3_prefix"`
}

// ThumbnailConfig controls thumbnail generation for image revisions.
type ThumbnailConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	MaxSize int  `json:"max_size" yaml:"max_size" mapstructure:"max_size"`
}

// AuditConfig controls who wiki page edit and delete entries are attributed
// to: the page's original creator or the acting user.
type AuditConfig struct {
	Attribution string `json:"attribution" yaml:"attribution" mapstructure:"attribution"`
}

// CacheConfig sizes the hydrated file artifact cache. Size 0 disables it.
type CacheConfig struct {
	Size int           `json:"size" yaml:"size" mapstructure:"size"`
	TTL  time.Duration `json:"ttl" yaml:"ttl" mapstructure:"ttl"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level  string `json:"level" yaml:"level" mapstructure:"level"`
	Pretty bool   `json:"pretty" yaml:"pretty" mapstructure:"pretty"`
}

// Supported backend names.
const (
	BackendSQLite = "sqlite"
)

// Supported blob drivers.
const (
	BlobDriverLocal = "local"
	BlobDriverS3    = "s3"
)

// Audit attribution modes.
const (
	AttributeCreator = "creator"
	AttributeActor   = "actor"
)

// Config validation errors.
var (
	ErrBackendEmpty       = errors.New("backend must not be empty")
	ErrBackendUnknown     = errors.New("unknown backend")
	ErrBlobDriverUnknown  = errors.New("unknown blob driver")
	ErrBlobBucketEmpty    = errors.New("s3 blob driver requires a bucket")
	ErrAttributionUnknown = errors.New("unknown audit attribution")
	ErrCacheSizeInvalid   = errors.New("cache size must not be negative")
)

var knownBackends = map[string]bool{
	BackendSQLite: true,
}

// Validate checks that the Config is well-formed. Empty blob driver and
// attribution are accepted and mean the defaults (local, creator).
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	switch c.Blob.Driver {
	case "", BlobDriverLocal:
	case BlobDriverS3:
		if c.Blob.S3Bucket == "" {
			return ErrBlobBucketEmpty
		}
	default:
		return ErrBlobDriverUnknown
	}
	switch c.Audit.Attribution {
	case "", AttributeCreator, AttributeActor:
	default:
		return ErrAttributionUnknown
	}
	if c.Cache.Size < 0 {
		return ErrCacheSizeInvalid
	}
	return nil
}

// AttributionMode returns the effective audit attribution mode.
func (c Config) AttributionMode() string {
	if c.Audit.Attribution == "" {
		return AttributeCreator
	}
	return c.Audit.Attribution
}
