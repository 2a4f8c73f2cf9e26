// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-explainer/internal/explain"
	"github.com/pdiddy/paper-explainer/pkg/types"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the models available to the configured API key",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cfg.AI.Backend == types.AIBackendVertex {
			return types.Errorf(types.ConfigurationError, "models", "model listing needs the gemini backend")
		}
		g, err := explain.NewGeminiBackend(cfg.AI.APIKey, nil)
		if err != nil {
			return err
		}
		models, err := g.ListModels(cmd.Context())
		if err != nil {
			return err
		}

		all, _ := cmd.Flags().GetBool("all")
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tDISPLAY NAME\tINPUT TOKENS\tOUTPUT TOKENS")
		for _, m := range models {
			if !all && !m.SupportsGenerate() {
				continue
			}
			fmt.Fprintf(tw, "%s\t%s\t%d\t%d\n", m.Name, m.DisplayName, m.InputTokenLimit, m.OutputTokenLimit)
		}
		return tw.Flush()
	},
}

func init() {
	modelsCmd.Flags().Bool("all", false, "include models that cannot generate content")
	rootCmd.AddCommand(modelsCmd)
}
