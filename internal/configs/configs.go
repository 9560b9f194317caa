/*
Package configs loads the server configuration.

Values come from, in increasing priority: built-in defaults, an optional YAML
file, MUD_* environment variables and command-line flags. Nested keys map to
environment variables by upper-casing and replacing dots, so network.port is
MUD_NETWORK_PORT.
*/
package configs

import (
	"errors"
	"fmt"
	"strings"
	"time"

	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envVarPrefix = "MUD"

// Config holds every tunable of the server.
type Config struct {
	// development or production; controls log format and origin checks.
	Environment string `mapstructure:"environment"`

	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`

	Network struct {
		Host string `mapstructure:"host"`
		// Telnet listener port.
		Port int `mapstructure:"port"`
		// HTTP port serving /ws, /health and /api/who.
		HTTPPort       int      `mapstructure:"http_port"`
		AllowedOrigins []string `mapstructure:"allowed_origins"`
		// Per-address connection attempts per second, and burst.
		ConnectRate  float64 `mapstructure:"connect_rate"`
		ConnectBurst int     `mapstructure:"connect_burst"`
	} `mapstructure:"network"`

	World struct {
		// Directory of JSON area files; empty uses the built-in world.
		AreasPath string `mapstructure:"areas_path"`
		StartRoom string `mapstructure:"start_room"`
	} `mapstructure:"world"`

	Accounts struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"accounts"`

	Session struct {
		IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
		OutboundBuffer int           `mapstructure:"outbound_buffer"`
		MaxLineLength  int           `mapstructure:"max_line_length"`
		CommandRate    float64       `mapstructure:"command_rate"`
		CommandBurst   int           `mapstructure:"command_burst"`
	} `mapstructure:"session"`

	Names struct {
		MinLength int      `mapstructure:"min_length"`
		MaxLength int      `mapstructure:"max_length"`
		Reserved  []string `mapstructure:"reserved"`
		Blocked   []string `mapstructure:"blocked"`
	} `mapstructure:"names"`
}

// DefaultReservedNames are refused regardless of case.
var DefaultReservedNames = []string{
	"admin", "administrator", "root", "system", "sysop",
	"moderator", "server", "guest", "everyone", "nobody",
}

// DefaultBlockedSubstrings are refused anywhere inside a name, regardless of case.
var DefaultBlockedSubstrings = []string{
	"fuck", "shit", "cunt", "bitch", "asshole", "bastard", "dick", "whore",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")
	v.SetDefault("log.level", "")
	v.SetDefault("network.host", "")
	v.SetDefault("network.port", 4000)
	v.SetDefault("network.http_port", 8080)
	v.SetDefault("network.allowed_origins", []string{})
	v.SetDefault("network.connect_rate", 1.0)
	v.SetDefault("network.connect_burst", 5)
	v.SetDefault("world.areas_path", "")
	v.SetDefault("world.start_room", "start")
	v.SetDefault("accounts.path", "data/accounts.json")
	v.SetDefault("session.idle_timeout", 15*time.Minute)
	v.SetDefault("session.outbound_buffer", 64)
	v.SetDefault("session.max_line_length", 4096)
	v.SetDefault("session.command_rate", 5.0)
	v.SetDefault("session.command_burst", 5)
	v.SetDefault("names.min_length", 3)
	v.SetDefault("names.max_length", 20)
	v.SetDefault("names.reserved", DefaultReservedNames)
	v.SetDefault("names.blocked", DefaultBlockedSubstrings)
}

// flagKeys binds command-line flags to configuration keys.
var flagKeys = map[string]string{
	"env":       "environment",
	"log-level": "log.level",
	"host":      "network.host",
	"port":      "network.port",
	"http-port": "network.http_port",
	"areas":     "world.areas_path",
	"start":     "world.start_room",
	"accounts":  "accounts.path",
	"idle":      "session.idle_timeout",
}

// RegisterFlags declares the server flags on fs.
func RegisterFlags(fs *flag.FlagSet) {
	fs.StringP("config", "c", "", "Path to a YAML configuration file")
	fs.String("env", "", "Runtime environment (development or production)")
	fs.String("log-level", "", "Log level (debug, info, warn, error)")
	fs.String("host", "", "Interface to bind")
	fs.IntP("port", "p", 0, "Telnet port")
	fs.Int("http-port", 0, "HTTP/WebSocket port")
	fs.String("areas", "", "Directory containing world area files")
	fs.String("start", "", "Room new sessions enter")
	fs.String("accounts", "", "Path to the name protection database")
	fs.Duration("idle", 0, "Disconnect sessions idle for this long")
}

// Load parses args into fs and resolves the final configuration.
func Load(fs *flag.FlagSet, args []string) (*Config, error) {
	if fs.Lookup("config") == nil {
		RegisterFlags(fs)
	}
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envVarPrefix)
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

	if path, _ := fs.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) normalize() {
	c.Environment = strings.ToLower(strings.TrimSpace(c.Environment))
	c.Names.Reserved = cleanList(c.Names.Reserved)
	c.Names.Blocked = cleanList(c.Names.Blocked)
	c.Network.AllowedOrigins = cleanList(c.Network.AllowedOrigins)
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// IsDevelopment reports whether the server runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// TelnetAddr is the Telnet listen address.
func (c *Config) TelnetAddr() string {
	return fmt.Sprintf("%s:%d", c.Network.Host, c.Network.Port)
}

// HTTPAddr is the HTTP listen address.
func (c *Config) HTTPAddr() string {
	return fmt.Sprintf("%s:%d", c.Network.Host, c.Network.HTTPPort)
}

// Validate rejects values the server cannot run with.
func (c *Config) Validate() error {
	var problems []error
	if c.Environment != "development" && c.Environment != "production" {
		problems = append(problems, fmt.Errorf("environment must be development or production, got %q", c.Environment))
	}
	if c.Network.Port < 1 || c.Network.Port > 65535 {
		problems = append(problems, fmt.Errorf("network.port %d out of range", c.Network.Port))
	}
	if c.Network.HTTPPort < 1 || c.Network.HTTPPort > 65535 {
		problems = append(problems, fmt.Errorf("network.http_port %d out of range", c.Network.HTTPPort))
	}
	if c.Network.Port == c.Network.HTTPPort {
		problems = append(problems, errors.New("network.port and network.http_port must differ"))
	}
	if c.Session.IdleTimeout < 0 {
		problems = append(problems, errors.New("session.idle_timeout must not be negative"))
	}
	if c.Session.OutboundBuffer < 1 {
		problems = append(problems, errors.New("session.outbound_buffer must be at least 1"))
	}
	if c.Session.MaxLineLength < 64 {
		problems = append(problems, errors.New("session.max_line_length must be at least 64"))
	}
	if c.Names.MinLength < 1 || c.Names.MaxLength < c.Names.MinLength {
		problems = append(problems, fmt.Errorf("names length bounds %d..%d are invalid", c.Names.MinLength, c.Names.MaxLength))
	}
	if strings.TrimSpace(c.World.StartRoom) == "" {
		problems = append(problems, errors.New("world.start_room must not be empty"))
	}
	return errors.Join(problems...)
}
