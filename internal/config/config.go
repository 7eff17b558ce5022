package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Mode         string        `mapstructure:"mode"`
	Port         int           `mapstructure:"port"`
	ReadLimit    int64         `mapstructure:"read_limit"`
	PingPeriod   time.Duration `mapstructure:"ping_period"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	JWTSecret    string        `mapstructure:"jwt_secret"`

	// RingTimeout bounds how long a call may stay ringing before the
	// sweeper force-ends it. Zero disables the sweep.
	RingTimeout   time.Duration `mapstructure:"ring_timeout"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`

	// ICEServers is handed to clients verbatim (STUN/TURN URLs).
	ICEServers []string `mapstructure:"ice_servers"`

	TypingRateLimit    int           `mapstructure:"typing_rate_limit"`
	TypingRateInterval time.Duration `mapstructure:"typing_rate_interval"`

	// Users seed the in-process directory when no external user store is
	// wired in.
	Users []UserConfig `mapstructure:"users"`
}

type UserConfig struct {
	ID       string `mapstructure:"id"`
	Username string `mapstructure:"username"`
	Avatar   string `mapstructure:"avatar"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("write_timeout", "5s")
	v.SetDefault("ring_timeout", "60s")
	v.SetDefault("sweep_interval", "10s")
	v.SetDefault("ice_servers", []string{"stun:stun.l.google.com:19302"})
	v.SetDefault("typing_rate_limit", 10)
	v.SetDefault("typing_rate_interval", "10s")

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("⚠️ Config file not found (%s), using defaults\n", fileName)
	} else {
		fmt.Printf("✅ Loaded config: %s\n", fileName)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	fmt.Printf("🧩 Mode: %s | Port: %d\n", cfg.Mode, cfg.Port)
	return &cfg, nil
}
