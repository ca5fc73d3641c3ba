package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"
	"imgrab/pkg/config"
	"imgrab/pkg/media"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <url>...",
	Short: "Show which provider and accessor a URL maps to",
	Long: `Resolve URLs without touching the network. Each line shows the provider,
the accessor variant and the identifier that 'imgrab grab' would use.`,
	Example: `  imgrab resolve https://imgur.com/a/AbCdE https://i.imgur.com/XyZ12.png`,
	Args:    cobra.MinimumNArgs(1),
	RunE:    runResolve,
}

func init() {
	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, collectFlags(cmd))
	if err != nil {
		return err
	}
	registry, err := newRegistry(cfg)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "URL\tPROVIDER\tVARIANT\tID")

	var result *multierror.Error
	for _, raw := range args {
		res, err := registry.Resolve(raw)
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", res.URL, res.Provider.Name(), media.VariantOf(res.Accessor), res.Accessor.ID())
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	return result.ErrorOrNil()
}
