package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/comalice/uimachines/internal/logger"
)

const version = "0.1.0"

// app carries the configuration shared by every subcommand.
type app struct {
	v       *viper.Viper
	cfgFile string
}

func newApp() *app {
	v := viper.New()
	v.SetEnvPrefix("UIMACHINE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	v.SetDefault("log-level", "warn")
	v.SetDefault("log-format", "text")
	v.SetDefault("persist-format", "yaml")
	return &app{v: v}
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "uimachine",
		Short: "Inspect and replay UI widget state machines",
		Long: `uimachine drives the bundled widget machines (tags-input, number-input)
outside a browser: it renders their state graphs as Graphviz DOT and replays
YAML event scripts, printing every published snapshot.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.loadConfig(); err != nil {
				return err
			}
			return logger.Configure(a.v.GetString("log-level"), a.v.GetString("log-format"), cmd.ErrOrStderr())
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "Config file (default ./uimachine.yaml)")
	flags.String("log-level", "", "Log level (debug|info|warn|error) [default: warn]")
	flags.String("log-format", "", "Log format (text|json|logfmt) [default: text]")
	for _, name := range []string{"log-level", "log-format"} {
		_ = a.v.BindPFlag(name, flags.Lookup(name))
	}

	root.AddCommand(a.dotCommand(), a.replayCommand(), a.widgetsCommand())
	return root
}

// loadConfig reads the config file. A missing default file is not an error.
func (a *app) loadConfig() error {
	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
		return a.v.ReadInConfig()
	}
	a.v.SetConfigName("uimachine")
	a.v.SetConfigType("yaml")
	a.v.AddConfigPath(".")
	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return err
		}
	}
	return nil
}

func (a *app) widgetsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "widgets",
		Short: "List the bundled widgets",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			for _, name := range widgetNames() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
		},
	}
}
