package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	bind      string
	port      int
	wordsDir  string
	publicURL string
	botURL    string
	verbose   bool
}

func (c *Config) validate() error {
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.wordsDir == "" {
		return fmt.Errorf("a words directory is required")
	}
	return nil
}

func (c *Config) addr() string {
	return fmt.Sprintf("%s:%d", c.bind, c.port)
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("YORUBA")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "yoruba-server",
		Short:         "Multiplayer Yoruba vocabulary matching game server.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: YORUBA_BIND)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: YORUBA_PORT)")
	fs.StringVar(&cfg.wordsDir, "words-dir", "resources/words", "directory of themed word files (env: YORUBA_WORDS_DIR)")
	fs.StringVar(&cfg.publicURL, "public-url", "http://localhost:8080", "externally reachable base URL, used for invite links (env: YORUBA_PUBLIC_URL)")
	fs.StringVar(&cfg.botURL, "bot-url", "", "phrase generator endpoint for the coach bot (env: YORUBA_BOT_URL)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: YORUBA_VERBOSE)")

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
