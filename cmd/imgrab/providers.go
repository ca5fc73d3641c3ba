package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"imgrab/pkg/config"
	"imgrab/pkg/media"
	"imgrab/pkg/media/direct"
	"imgrab/pkg/media/imgur"
)

// newRegistry registers every provider. Order matters: Imgur page links are
// claimed before the direct file fallback sees them.
func newRegistry(cfg *config.Config) (*media.Registry, error) {
	return media.NewRegistry(
		imgur.New(cfg.Imgur.APIBaseURL),
		direct.New(),
	)
}

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List the supported providers in resolution order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := newRegistry(config.DefaultConfig())
		if err != nil {
			return err
		}
		for i, name := range registry.Names() {
			fmt.Fprintf(cmd.OutOrStdout(), "%d. %s\n", i+1, name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(providersCmd)
}
