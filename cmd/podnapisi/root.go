package main

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Belphemur/PodnapisiClient/internal/client"
	"github.com/Belphemur/PodnapisiClient/internal/config"
	"github.com/Belphemur/PodnapisiClient/internal/metrics"
)

// clientFactory builds the provider client from the effective configuration
type clientFactory func(cfg *config.Config) client.Client

type commandContext struct {
	newClient clientFactory
	domain    string
	verbose   bool
}

// effectiveConfig returns a copy of the loaded configuration with command line overrides applied
func (c *commandContext) effectiveConfig() *config.Config {
	cfg := config.Config{}
	if loaded := config.GetConfig(); loaded != nil {
		cfg = *loaded
	}
	if c.domain != "" {
		cfg.PodnapisiDomain = c.domain
	}
	return &cfg
}

func (c *commandContext) withClient(fn func(client.Client) error) error {
	cl := c.newClient(c.effectiveConfig())
	defer cl.Close()
	return fn(cl)
}

func newRootCommand(newClient clientFactory) *cobra.Command {
	ctx := &commandContext{newClient: newClient}

	rootCmd := &cobra.Command{
		Use:           "podnapisi",
		Short:         "Search and download subtitles from podnapisi.net",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if ctx.verbose {
				config.SetLevel(zerolog.DebugLevel)
			}
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return metrics.WriteTextfile(ctx.effectiveConfig().Metrics.Textfile)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&ctx.domain, "domain", "", "Override the catalog base URL")
	rootCmd.PersistentFlags().BoolVarP(&ctx.verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(newSearchCommand(ctx))
	rootCmd.AddCommand(newFetchCommand(ctx))

	return rootCmd
}
