package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/collab/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"
	rosterFileName = "roster.yaml"
	envPrefix      = "COLLAB"
)

// Config keys read by the CLI itself; the rest decode into types.Config.
const (
	cfgKeyBackend = "backend"
	cfgKeyDataDir = "data_dir"
	cfgKeyRoster  = "roster"
	cfgKeyUser    = "user"
	cfgKeyProject = "project"
	cfgKeyBaseURL = "base_url"
)

// configFile is the layout written to config.yaml by init.
type configFile struct {
	types.Config `yaml:",inline"`
	Roster       string `yaml:"roster,omitempty"`
	User         string `yaml:"user,omitempty"`
	Project      string `yaml:"project,omitempty"`
	BaseURL      string `yaml:"base_url,omitempty"`
}

// defaultConfig is what init writes when no config.yaml exists.
func defaultConfig(dataDir string) configFile {
	return configFile{Config: types.Config{
		Backend:   types.BackendSQLite,
		DataDir:   dataDir,
		Blob:      types.BlobConfig{Driver: types.BlobDriverLocal},
		Thumbnail: types.ThumbnailConfig{Enabled: true, MaxSize: 128},
		Audit:     types.AuditConfig{Attribution: types.AttributeCreator},
		Cache:     types.CacheConfig{Size: 128, TTL: 5 * time.Minute},
		Log:       types.LogConfig{Level: "warn"},
	}}
}

// loadConfig reads config.yaml from configDir with Viper. Every key can be
// overridden by a COLLAB_ environment variable (COLLAB_BLOB_DRIVER for
// blob.driver). A missing config.yaml is not an error.
func loadConfig(configDir string) (*viper.Viper, error) {
	v := viper.New()
	def := defaultConfig("")
	v.SetDefault(cfgKeyBackend, def.Backend)
	v.SetDefault(cfgKeyDataDir, "")
	v.SetDefault("blob.driver", def.Blob.Driver)
	v.SetDefault("blob.local_path", "")
	v.SetDefault("blob.s3_bucket", "")
	v.SetDefault("blob.s3_region", "")
	v.SetDefault("blob.s3_prefix", "")
	v.SetDefault("thumbnail.enabled", def.Thumbnail.Enabled)
	v.SetDefault("thumbnail.max_size", def.Thumbnail.MaxSize)
	v.SetDefault("audit.attribution", def.Audit.Attribution)
	v.SetDefault("cache.size", def.Cache.Size)
	v.SetDefault("cache.ttl", def.Cache.TTL)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.pretty", false)
	v.SetDefault(cfgKeyRoster, "")
	v.SetDefault(cfgKeyUser, "")
	v.SetDefault(cfgKeyProject, "")
	v.SetDefault(cfgKeyBaseURL, "")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// decodeConfig unmarshals the store settings and validates them.
func decodeConfig(v *viper.Viper) (types.Config, error) {
	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return types.Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// loadDotEnv loads .env from the working directory and then from configDir.
// Variables already set in the environment win; missing files are ignored.
func loadDotEnv(configDir string) {
	for _, path := range []string{".env", filepath.Join(configDir, ".env")} {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
		}
	}
}

// writeConfigIfMissing creates config.yaml from cfg if the file does not
// exist. An existing file is left alone.
func writeConfigIfMissing(path string, cfg configFile) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return false, err
	}
	return true, nil
}
