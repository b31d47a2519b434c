package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Mode       string        `mapstructure:"mode"`
	Port       int           `mapstructure:"port"`
	StaticPath string        `mapstructure:"static_path"`
	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`
	Secret     string        `mapstructure:"secret"`
	LogLevel   string        `mapstructure:"log_level"`

	Database  DatabaseConfig  `mapstructure:"database"`
	Occupancy OccupancyConfig `mapstructure:"occupancy"`
	Observer  ObserverConfig  `mapstructure:"observer"`
	Media     MediaConfig     `mapstructure:"media"`
	Rate      RateConfig      `mapstructure:"rate"`
	Identity  IdentityConfig  `mapstructure:"identity"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type OccupancyConfig struct {
	ReapInterval  time.Duration `mapstructure:"reap_interval"`
	GracePeriod   time.Duration `mapstructure:"grace_period"`
	MirrorTimeout time.Duration `mapstructure:"mirror_timeout"`
}

type ObserverConfig struct {
	SendBuffer int    `mapstructure:"send_buffer"`
	SlowPolicy string `mapstructure:"slow_policy"`
}

type MediaConfig struct {
	APIKey    string        `mapstructure:"api_key"`
	APISecret string        `mapstructure:"api_secret"`
	ServerURL string        `mapstructure:"server_url"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

// RateConfig limits participant mutations per client token.
type RateConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

// IdentityConfig names the headers the upstream proxy sets.
type IdentityConfig struct {
	UserHeader string `mapstructure:"user_header"`
	NameHeader string `mapstructure:"name_header"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("static_path", "./web")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("log_level", "info")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "vocably.db")

	v.SetDefault("occupancy.reap_interval", "60s")
	v.SetDefault("occupancy.grace_period", "5m")
	v.SetDefault("occupancy.mirror_timeout", "5s")

	v.SetDefault("observer.send_buffer", 16)
	v.SetDefault("observer.slow_policy", "drop")

	v.SetDefault("media.token_ttl", "6h")

	v.SetDefault("rate.rps", 5)
	v.SetDefault("rate.burst", 10)

	v.SetDefault("identity.user_header", "X-Auth-Request-User")
	v.SetDefault("identity.name_header", "X-Auth-Request-Preferred-Username")
}

// Flags returns the command-line overrides understood by Load.
func Flags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("vocably", pflag.ContinueOnError)
	fs.String("config", "", "path to a YAML config file (default: config/config.$CONFIG_ENV.yaml)")
	fs.Int("port", 0, "HTTP listen port")
	fs.String("mode", "", "gin mode: debug, release or test")
	fs.String("log-level", "", "zerolog level")
	fs.String("db-driver", "", "database driver: postgres or sqlite")
	fs.String("db-dsn", "", "database connection string")
	fs.Duration("grace-period", 0, "how long an empty, unwatched room survives")
	fs.BoolP("help", "h", false, "show help")
	return fs
}

var flagKeys = map[string]string{
	"port":         "port",
	"mode":         "mode",
	"log-level":    "log_level",
	"db-driver":    "database.driver",
	"db-dsn":       "database.dsn",
	"grace-period": "occupancy.grace_period",
}

// Load reads defaults, then the YAML file, then VOCABLY_* environment
// variables, then flags that were set explicitly.
func Load(args []string) (*Config, error) {
	fs := Flags()
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if help, _ := fs.GetBool("help"); help {
		return nil, pflag.ErrHelp
	}

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)

	v.SetEnvPrefix("VOCABLY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for name, key := range flagKeys {
		f := fs.Lookup(name)
		if f == nil || !f.Changed {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return nil, fmt.Errorf("bind flag %s: %w", name, err)
		}
	}

	fileName, _ := fs.GetString("config")
	if fileName == "" {
		env := os.Getenv("CONFIG_ENV")
		if env == "" {
			env = "dev"
		}
		fileName = fmt.Sprintf("config/config.%s.yaml", env)
	}
	v.SetConfigFile(fileName)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config %s: %w", fileName, err)
		}
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).
		Str("db_driver", cfg.Database.Driver).Dur("grace", cfg.Occupancy.GracePeriod).Msg("config ready")
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Port <= 0 || c.Port > 65535:
		return fmt.Errorf("invalid port %d", c.Port)
	case c.Occupancy.GracePeriod <= 0:
		return errors.New("occupancy.grace_period must be positive")
	case c.Occupancy.ReapInterval <= 0:
		return errors.New("occupancy.reap_interval must be positive")
	case c.Observer.SendBuffer <= 0:
		return errors.New("observer.send_buffer must be positive")
	}
	return nil
}
