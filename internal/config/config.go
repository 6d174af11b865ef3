package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	// URLScheme prefixes share links handed out by a host.
	URLScheme   = "localboard://"
	DefaultPort = 8888
	envPrefix   = "LOCALBOARD_"
)

// Config holds everything main needs to start a host or a client.
type Config struct {
	// Addr is the listen address of the coordinator.
	Addr string
	// Link is the localboard:// link to join; empty means run as host.
	Link string
	// Name is shown to the other users instead of the generated label.
	Name string
	// Advertise announces the host over mDNS.
	Advertise bool
	// Discover browses mDNS for hosts, prints them and exits.
	Discover        bool
	DiscoverTimeout time.Duration
	// Headless runs the coordinator without a window.
	Headless  bool
	LogLevel  string
	LogFormat string
}

func Default() *Config {
	return &Config{
		Addr:            fmt.Sprintf(":%d", DefaultPort),
		Advertise:       true,
		DiscoverTimeout: 3 * time.Second,
		LogLevel:        "info",
		LogFormat:       "text",
	}
}

// Load parses args (without the program name). Environment variables named
// LOCALBOARD_<FLAG> provide defaults that explicit flags override.
func Load(args []string, output io.Writer) (*Config, error) {
	cfg := Default()
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	fs := flag.NewFlagSet("localboard", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: localboard [flags] [%shost:port]\n", URLScheme)
		fs.PrintDefaults()
	}
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "address the coordinator listens on")
	fs.StringVar(&cfg.Name, "name", cfg.Name, "display name shown to other users")
	fs.BoolVar(&cfg.Advertise, "advertise", cfg.Advertise, "announce the board on the local network via mDNS")
	fs.BoolVar(&cfg.Discover, "discover", cfg.Discover, "list boards on the local network and exit")
	fs.DurationVar(&cfg.DiscoverTimeout, "discover-timeout", cfg.DiscoverTimeout, "how long -discover listens")
	fs.BoolVar(&cfg.Headless, "headless", cfg.Headless, "run the coordinator without a window")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "text or json")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 1 {
		return nil, fmt.Errorf("expected at most one link, got %d arguments", fs.NArg())
	}
	if link := fs.Arg(0); link != "" {
		if !strings.HasPrefix(link, URLScheme) {
			return nil, fmt.Errorf("link %q must start with %s", link, URLScheme)
		}
		cfg.Link = link
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	var errs []error
	str := func(name string, dst *string) {
		if v, ok := lookup(envPrefix + name); ok {
			*dst = v
		}
	}
	boolean := func(name string, dst *bool) {
		if v, ok := lookup(envPrefix + name); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", envPrefix, name, err))
				return
			}
			*dst = b
		}
	}
	str("ADDR", &c.Addr)
	str("NAME", &c.Name)
	str("LOG_LEVEL", &c.LogLevel)
	str("LOG_FORMAT", &c.LogFormat)
	boolean("ADVERTISE", &c.Advertise)
	boolean("HEADLESS", &c.Headless)
	return errors.Join(errs...)
}

// Validate checks values that flag parsing cannot.
func (c *Config) Validate() error {
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	if c.Addr == "" {
		return errors.New("listen address must not be empty")
	}
	return nil
}

// Port extracts the numeric port from Addr, falling back to DefaultPort.
func (c *Config) Port() int {
	i := strings.LastIndex(c.Addr, ":")
	if i < 0 {
		return DefaultPort
	}
	p, err := strconv.Atoi(c.Addr[i+1:])
	if err != nil || p <= 0 {
		return DefaultPort
	}
	return p
}
