package configs

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	App struct {
		Name     string `koanf:"name" validate:"required"`
		LogFile  string `koanf:"log_file"`
		LogLevel string `koanf:"log_level"`
	} `koanf:"app"`

	Server struct {
		BaseURL        string        `koanf:"base_url" validate:"required,url"`
		AttemptTimeout time.Duration `koanf:"attempt_timeout" validate:"required"`
	} `koanf:"server"`

	Storage struct {
		Path string `koanf:"path" validate:"required"`
	} `koanf:"storage"`

	Cache struct {
		Backend string `koanf:"backend" validate:"oneof=sqlite redis"`
	} `koanf:"cache"`

	Sync struct {
		MaxAttempts int           `koanf:"max_attempts" validate:"min=1"`
		BackoffBase time.Duration `koanf:"backoff_base" validate:"required"`
		BackoffMax  time.Duration `koanf:"backoff_max" validate:"required"`
		Interval    time.Duration `koanf:"interval"`
	} `koanf:"sync"`

	Redis struct {
		Addr     string `koanf:"addr"`
		Password string `koanf:"password"`
	} `koanf:"redis"`
}

func Load(pathDir, envName string) (Config, error) {
	k := koanf.New(".")
	// 1) base
	if err := k.Load(file.Provider(fmt.Sprintf("%s/base.yaml", pathDir)), yaml.Parser()); err != nil {
		return Config{}, fmt.Errorf("load base: %w", err)
	}

	// 2) env override (dev/staging/prod). Optional: allow missing for local runs.
	_ = k.Load(file.Provider(fmt.Sprintf("%s/%s.yaml", pathDir, envName)), yaml.Parser())

	// 3) environment variables override (prefix POSCORE_, nested with __)
	// e.g. POSCORE_SERVER__BASE_URL, POSCORE_REDIS__PASSWORD
	if err := k.Load(env.Provider("POSCORE_", ".", func(s string) string {
		s = strings.TrimPrefix(s, "POSCORE_")
		s = strings.ReplaceAll(s, "__", ".")
		return strings.ToLower(s)
	}), nil); err != nil {
		return Config{}, fmt.Errorf("env overlay: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.Cache.Backend == "redis" && c.Redis.Addr == "" {
		return fmt.Errorf("config: redis.addr required when cache.backend is redis")
	}
	if c.Sync.BackoffMax < c.Sync.BackoffBase {
		return fmt.Errorf("config: sync.backoff_max must be >= sync.backoff_base")
	}
	return nil
}
