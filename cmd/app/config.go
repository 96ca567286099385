package main

import (
	"fmt"
	"strings"
	"time"

	"QH_quranhabits/internal/quran"
	"QH_quranhabits/internal/repository"
	"QH_quranhabits/internal/service"

	"github.com/spf13/viper"
)

const (
	configPath   = "./"
	configName   = "config"
	configFormat = "yaml"
)

type Config struct {
	Database repository.Config `yaml:"database"`
	Local    LocalConfig       `yaml:"local"`
	Server   ServerConfig      `yaml:"server"`

	Auth  AuthConfig          `yaml:"auth"`
	Quran quran.Config        `yaml:"quran"`
	Email service.EmailConfig `yaml:"email"`

	LogLevel string `yaml:"logLevel"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
}

// LocalConfig selects the on-device cache. Driver is "sqlite" or "memory".
type LocalConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwtSecret"`
	TokenTTL  time.Duration `yaml:"tokenTtl"`
	ResetTTL  time.Duration `yaml:"resetTtl"`
	HashCost  int           `yaml:"hashCost"`
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName(configName)
	viper.AddConfigPath(configPath)
	viper.SetConfigType(configFormat)

	viper.AutomaticEnv()
	viper.SetEnvPrefix("APP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("local.driver", "sqlite")
	viper.SetDefault("local.path", "qh-local.db")
	viper.SetDefault("auth.tokenTtl", 7*24*time.Hour)
	viper.SetDefault("auth.resetTtl", time.Hour)
	viper.SetDefault("logLevel", "info")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
