package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	bind           string
	port           int
	roundDuration  time.Duration
	settleDelay    time.Duration
	maxRounds      int
	maxPlayers     int
	nearbyRadius   float64
	queueFreshness time.Duration
	wordFile       string
	databaseURL    string
	verbose        bool
}

func (c *Config) validate() error {
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.roundDuration <= 0 {
		return errors.New("round duration must be positive")
	}
	if c.maxRounds < 1 {
		return errors.New("at least one round is required")
	}
	if c.maxPlayers < 2 {
		return errors.New("rooms need capacity for at least two players")
	}
	if c.nearbyRadius <= 0 {
		return errors.New("matchmaking radius must be positive")
	}
	if c.queueFreshness <= 0 {
		return errors.New("queue freshness must be positive")
	}
	return nil
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("SKETCHPARTY")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "sketchparty-server",
		Short:         "Realtime drawing-and-guessing game coordinator.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: SKETCHPARTY_BIND)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: SKETCHPARTY_PORT)")
	fs.DurationVar(&cfg.roundDuration, "round-duration", 60*time.Second, "drawing time per round (env: SKETCHPARTY_ROUND_DURATION)")
	fs.DurationVar(&cfg.settleDelay, "settle-delay", 5*time.Second, "pause between rounds (env: SKETCHPARTY_SETTLE_DELAY)")
	fs.IntVar(&cfg.maxRounds, "max-rounds", 3, "full rotations per game (env: SKETCHPARTY_MAX_ROUNDS)")
	fs.IntVar(&cfg.maxPlayers, "max-players", 8, "room capacity (env: SKETCHPARTY_MAX_PLAYERS)")
	fs.Float64Var(&cfg.nearbyRadius, "nearby-radius", 5.0, "matchmaking radius in km (env: SKETCHPARTY_NEARBY_RADIUS)")
	fs.DurationVar(&cfg.queueFreshness, "queue-freshness", 60*time.Second, "matchmaking queue entry lifetime (env: SKETCHPARTY_QUEUE_FRESHNESS)")
	fs.StringVar(&cfg.wordFile, "word-file", "", "CSV of word,tier pairs to replace the builtin bank (env: SKETCHPARTY_WORD_FILE)")
	fs.StringVar(&cfg.databaseURL, "database-url", "", "postgres DSN for game history, empty disables persistence (env: SKETCHPARTY_DATABASE_URL)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "enable debug logging (env: SKETCHPARTY_VERBOSE)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})

	return cmd
}
