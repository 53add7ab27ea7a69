package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type cliConfig struct {
	serverURL  string
	playerName string
	trophies   uint16
	category   string
	difficulty string
	offline    bool
	verbose    bool
}

func (c *cliConfig) validate() error {
	if c.playerName == "" {
		return errors.New("--name is required")
	}
	if c.serverURL == "" {
		return errors.New("--server must not be empty")
	}
	return nil
}

func newCmd(cfg *cliConfig) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("DUELCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "duelctl",
		Short:         "Play a 1v1 trivia duel from the terminal.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		SilenceUsage:  true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return runDuel(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.serverURL, "server", "s", "ws://localhost:8080/ws", "duel server WebSocket URL (env: DUELCTL_SERVER)")
	fs.StringVarP(&cfg.playerName, "name", "n", "", "profile name to play as (env: DUELCTL_NAME)")
	fs.Uint16VarP(&cfg.trophies, "trophies", "t", 0, "current trophy count, used for matchmaking (env: DUELCTL_TROPHIES)")
	fs.StringVar(&cfg.category, "category", "", "Open Trivia DB category id, empty for sports (env: DUELCTL_CATEGORY)")
	fs.StringVar(&cfg.difficulty, "difficulty", "", "question difficulty: easy, medium or hard (env: DUELCTL_DIFFICULTY)")
	fs.BoolVar(&cfg.offline, "offline", false, "use the built-in question set instead of Open Trivia DB (env: DUELCTL_OFFLINE)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display debug logging (env: DUELCTL_VERBOSE)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("duelctl v{{.Version}}\n")

	return cmd
}
