package commands

import (
	"github.com/spf13/cobra"

	"github.com/vargava/xr-emcee-demo/pkg/cli"
	"github.com/vargava/xr-emcee-demo/pkg/gateway"
)

var (
	optionsContext  string
	optionsPersonas string
	optionsOutput   string
	optionsJQ       string
)

var optionsCmd = &cobra.Command{
	Use:   "options",
	Short: "Show available personalities, tones, scenes and gestures",
	Long: `Show the personality, tone, scene and gesture options the bot can be
launched with, in the same shape the gateway serves from /available_options.

Examples:
  emcee options
  emcee options --jq .personalities
  emcee options --personas my-personas.yaml -o json`,
	RunE: runOptions,
}

func init() {
	optionsCmd.Flags().StringVarP(&optionsContext, "context", "c", "", "context name to use")
	optionsCmd.Flags().StringVar(&optionsPersonas, "personas", "", "persona catalog file (YAML or JSON)")
	optionsCmd.Flags().StringVarP(&optionsOutput, "output", "o", "", "output format: yaml, json, raw")
	optionsCmd.Flags().StringVar(&optionsJQ, "jq", "", "jq expression applied to the output")
	rootCmd.AddCommand(optionsCmd)
}

func runOptions(cmd *cobra.Command, args []string) error {
	s, err := resolveSettings(optionsContext)
	if err != nil {
		return err
	}
	if optionsPersonas != "" {
		s.Personas = optionsPersonas
	}
	catalog, err := loadCatalog(s)
	if err != nil {
		return err
	}

	return cli.Output(gateway.AvailableOptions(catalog), cli.OutputOptions{
		Format: cli.OutputFormat(optionsOutput),
		Filter: optionsJQ,
	})
}
