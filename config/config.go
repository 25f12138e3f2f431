package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// S3Config holds connection settings for the source object store.
// Credentials normally arrive through the environment (S3_ACCESS_KEY,
// S3_SECRET_KEY), not the config file.
type S3Config struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Region    string `mapstructure:"region"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

// SMBConfig holds connection settings for the destination file share.
// Username and password are prompted interactively, never configured.
type SMBConfig struct {
	Server       string `mapstructure:"server"`
	Port         int    `mapstructure:"port"`
	Share        string `mapstructure:"share"`
	Domain       string `mapstructure:"domain"`
	MaxWriteSize string `mapstructure:"max_write_size"`
}

// TransferConfig holds engine tuning knobs.
//
// FetchWindow selects the source-side read policy: "0" requests ranges of
// exactly the effective write unit, any other size (for example "8KB")
// streams smaller reads through the reassembly buffer.
type TransferConfig struct {
	WriteSize   string `mapstructure:"write_size"`
	FetchWindow string `mapstructure:"fetch_window"`
	HistoryPath string `mapstructure:"history_path"`
}

// AppConfig is the root configuration.
type AppConfig struct {
	S3       S3Config       `mapstructure:"s3"`
	SMB      SMBConfig      `mapstructure:"smb"`
	Transfer TransferConfig `mapstructure:"transfer"`
}

var Config *AppConfig

// LoadConfig reads config.yaml from path (if present), applies defaults and
// environment overrides, and populates the package-level Config.
func LoadConfig(path string) error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(path)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("s3.use_ssl", true)
	viper.SetDefault("s3.region", "us-east-1")
	viper.SetDefault("smb.port", 445)
	viper.SetDefault("smb.max_write_size", "1MB")
	viper.SetDefault("transfer.write_size", "64KB")
	viper.SetDefault("transfer.fetch_window", "0")
	viper.SetDefault("transfer.history_path", "")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("could not read config file: %w", err)
		}
	}

	var appConfig AppConfig
	if err := viper.Unmarshal(&appConfig); err != nil {
		return fmt.Errorf("unable to decode config into struct: %w", err)
	}

	Config = &appConfig
	return nil
}

// Validate checks that the object-store section is complete enough to build
// a client.
func (c *S3Config) Validate() error {
	missing := []string{}
	if c.Endpoint == "" {
		missing = append(missing, "s3.endpoint")
	}
	if c.AccessKey == "" {
		missing = append(missing, "s3.access_key / S3_ACCESS_KEY")
	}
	if c.SecretKey == "" {
		missing = append(missing, "s3.secret_key / S3_SECRET_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required settings: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Validate checks the share section.
func (c *SMBConfig) Validate() error {
	if c.Server == "" {
		return fmt.Errorf("smb.server must be set")
	}
	if c.Share == "" {
		return fmt.Errorf("smb.share must be set")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("smb.port must be in range 1-65535, got %d", c.Port)
	}
	return nil
}
