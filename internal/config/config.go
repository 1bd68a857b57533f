package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds process settings. Flags override environment variables.
type Config struct {
	Addr             string
	DatabaseURL      string
	Debug            bool
	AllowedOrigins   []string
	AIMinDelay       time.Duration
	AIMaxDelay       time.Duration
	TournamentTarget int
	MaxPlayers       int
	IdleRoomTTL      time.Duration
	SendTimeout      time.Duration
}

// Load parses args (without the program name) on top of environment defaults.
func Load(args []string) (Config, error) {
	var (
		cfg     Config
		origins string
		err     error
	)

	fs := flag.NewFlagSet("tinyuno", flag.ContinueOnError)
	fs.StringVar(&cfg.Addr, "addr", getenv("ADDR", ":8080"), "listen address")
	fs.StringVar(&cfg.DatabaseURL, "database-url", getenv("DATABASE_URL", ""), "postgres DSN; empty keeps rooms in memory")
	fs.BoolVar(&cfg.Debug, "debug", envBool("DEBUG", &err), "enable debug logging")
	fs.StringVar(&origins, "origins", getenv("ORIGIN_ALLOWLIST", ""), "comma separated websocket origins; empty allows any")
	fs.DurationVar(&cfg.AIMinDelay, "ai-min-delay", envDuration("AI_MIN_DELAY", time.Second, &err), "shortest AI thinking time")
	fs.DurationVar(&cfg.AIMaxDelay, "ai-max-delay", envDuration("AI_MAX_DELAY", 3*time.Second, &err), "longest AI thinking time")
	fs.IntVar(&cfg.TournamentTarget, "tournament-target", envInt("TOURNAMENT_TARGET", 6, &err), "round wins needed to take a tournament")
	fs.IntVar(&cfg.MaxPlayers, "max-players", envInt("MAX_PLAYERS", 4, &err), "default seats per room")
	fs.DurationVar(&cfg.IdleRoomTTL, "idle-room-ttl", envDuration("IDLE_ROOM_TTL", 24*time.Hour, &err), "remove empty rooms idle this long")
	fs.DurationVar(&cfg.SendTimeout, "send-timeout", envDuration("SEND_TIMEOUT", 5*time.Second, &err), "per-message websocket write timeout")
	if err != nil {
		return Config{}, err
	}
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
		}
	}
	return cfg, cfg.Validate()
}

// Validate reports inconsistent settings.
func (c Config) Validate() error {
	var errs []error
	if c.AIMinDelay < 0 || c.AIMinDelay > c.AIMaxDelay {
		errs = append(errs, fmt.Errorf("ai delay range %s..%s is invalid", c.AIMinDelay, c.AIMaxDelay))
	}
	if c.MaxPlayers < 2 || c.MaxPlayers > 10 {
		errs = append(errs, fmt.Errorf("max players %d outside 2..10", c.MaxPlayers))
	}
	if c.TournamentTarget < 1 {
		errs = append(errs, fmt.Errorf("tournament target %d must be at least 1", c.TournamentTarget))
	}
	if c.SendTimeout <= 0 {
		errs = append(errs, errors.New("send timeout must be positive"))
	}
	return errors.Join(errs...)
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envInt(k string, d int, errp *error) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errp = errors.Join(*errp, fmt.Errorf("%s: %w", k, err))
		return d
	}
	return n
}

func envBool(k string, errp *error) bool {
	v := os.Getenv(k)
	if v == "" {
		return false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*errp = errors.Join(*errp, fmt.Errorf("%s: %w", k, err))
	}
	return b
}

func envDuration(k string, d time.Duration, errp *error) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	dur, err := time.ParseDuration(v)
	if err != nil {
		*errp = errors.Join(*errp, fmt.Errorf("%s: %w", k, err))
		return d
	}
	return dur
}
