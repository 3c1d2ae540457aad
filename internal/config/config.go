package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const EnvPrefix = "MUSICGLASS"

type RateLimit struct {
	Count    int           `mapstructure:"count"`
	Interval time.Duration `mapstructure:"interval"`
}

type Auth struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	Issuer    string `mapstructure:"issuer"`
	Required  bool   `mapstructure:"required"`
}

type Chat struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type Codes struct {
	Driver string        `mapstructure:"driver"`
	TTL    time.Duration `mapstructure:"ttl"`
}

type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type Config struct {
	Mode       string        `mapstructure:"mode"`
	Port       int           `mapstructure:"port"`
	StaticPath string        `mapstructure:"static_path"`
	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`
	PongWait   time.Duration `mapstructure:"pong_wait"`
	WriteWait  time.Duration `mapstructure:"write_wait"`
	SendBuffer int           `mapstructure:"send_buffer"`
	Secret     string        `mapstructure:"secret"`
	LogLevel   string        `mapstructure:"log_level"`

	RoomCodeLength   int    `mapstructure:"room_code_length"`
	ChatHistoryLimit int    `mapstructure:"chat_history_limit"`
	LikesResetOnPlay bool   `mapstructure:"likes_reset_on_play"`
	Backpressure     string `mapstructure:"backpressure"`

	RateLimit  RateLimit `mapstructure:"rate_limit"`
	Auth       Auth      `mapstructure:"auth"`
	Chat       Chat      `mapstructure:"chat"`
	Codes      Codes     `mapstructure:"codes"`
	Redis      Redis     `mapstructure:"redis"`
	ICEServers []string  `mapstructure:"ice_servers"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("static_path", "./web")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("pong_wait", "60s")
	v.SetDefault("write_wait", "5s")
	v.SetDefault("send_buffer", 64)
	v.SetDefault("secret", "change-me")
	v.SetDefault("log_level", "info")
	v.SetDefault("room_code_length", 6)
	v.SetDefault("chat_history_limit", 50)
	v.SetDefault("likes_reset_on_play", true)
	v.SetDefault("backpressure", "drop")
	v.SetDefault("rate_limit.count", 40)
	v.SetDefault("rate_limit.interval", "1s")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.issuer", "music-glass")
	v.SetDefault("auth.required", false)
	v.SetDefault("chat.driver", "memory")
	v.SetDefault("chat.dsn", "")
	v.SetDefault("codes.driver", "memory")
	v.SetDefault("codes.ttl", "24h")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("ice_servers", []string{"stun:stun.l.google.com:19302"})
}

// Loader owns the viper instance so the file can be watched after Load.
type Loader struct {
	v    *viper.Viper
	file string
}

func NewLoader() *Loader {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)
	v.SetConfigFile(fileName)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	return &Loader{v: v, file: fileName}
}

func (l *Loader) Load() (*Config, error) {
	if err := l.v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", l.file).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", l.file).Msg("loaded config")
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).Str("static", cfg.StaticPath).Msg("config ready")
	return &cfg, nil
}

// Watch re-reads the file on every change and hands the result to onChange.
// Only settings that are safe to swap at runtime should be applied there.
func (l *Loader) Watch(onChange func(*Config)) {
	l.v.OnConfigChange(func(e fsnotify.Event) {
		var cfg Config
		if err := l.v.Unmarshal(&cfg); err != nil {
			log.Error().Err(err).Str("module", "config").Str("file", e.Name).Msg("reload failed")
			return
		}
		if err := cfg.validate(); err != nil {
			log.Error().Err(err).Str("module", "config").Str("file", e.Name).Msg("reload rejected")
			return
		}
		log.Info().Str("module", "config").Str("file", e.Name).Str("op", e.Op.String()).Msg("config reloaded")
		onChange(&cfg)
	})
	l.v.WatchConfig()
}

// MinRoomCodeLength keeps the code space above two billion codes.
const MinRoomCodeLength = 6

func (c *Config) validate() error {
	if c.RoomCodeLength < MinRoomCodeLength {
		return fmt.Errorf("room_code_length %d is below the minimum of %d", c.RoomCodeLength, MinRoomCodeLength)
	}
	return nil
}

// Load is the one-shot form used by tools and tests.
func Load() (*Config, error) {
	return NewLoader().Load()
}

// ApplyLogLevel sets the global zerolog level, keeping the current one when
// the name is not a level.
func ApplyLogLevel(name string) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(name)))
	if err != nil || name == "" {
		log.Warn().Str("module", "config").Str("log_level", name).Msg("unknown log level, keeping current")
		return
	}
	zerolog.SetGlobalLevel(lvl)
}
