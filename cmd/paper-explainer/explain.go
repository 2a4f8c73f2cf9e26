// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-explainer/pkg/types"
)

var explainCmd = &cobra.Command{
	Use:   "explain",
	Short: "Explain one paper from a local PDF or an arXiv URL",
	Long: `Explain resolves the paper, converts it to Markdown under the output
directory (unless --convert=false), uploads it to the AI service and prints
the seven-section explanation to stdout. The path of the saved
<name>_explanation.md copy is printed to stderr.`,
	Example: `  paper-explainer explain --filepath paper.pdf
  paper-explainer explain --url https://arxiv.org/abs/1706.03762 --audience scholar`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if err := cfg.AI.Validate(); err != nil {
			return err
		}

		path, _ := cmd.Flags().GetString("filepath")
		url, _ := cmd.Flags().GetString("url")
		audienceFlag, _ := cmd.Flags().GetString("audience")
		withConvert, _ := cmd.Flags().GetBool("convert")

		audience, err := types.ParseAudience(audienceFlag, types.AudienceStudent)
		if err != nil {
			return err
		}
		req := types.Request{URL: url, UploadPath: path, Audience: audience}
		if err := req.Validate(); err != nil {
			return err
		}

		a, err := assemble(cmd.Context(), cfg, withConvert, os.Stderr, slog.Default())
		if err != nil {
			return err
		}
		defer a.Close()

		res := a.pipeline.Run(cmd.Context(), req)
		exp, ok := res.Explanation()
		if !ok {
			return res.Err()
		}

		fmt.Fprintln(cmd.OutOrStdout(), exp.Text)
		fmt.Fprintf(cmd.ErrOrStderr(), "saved: %s\n", exp.ArtifactPath)
		if exp.MirrorKey != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "mirrored: %s\n", exp.MirrorKey)
		}
		return nil
	},
}

func init() {
	explainCmd.Flags().String("filepath", "", "path to a local PDF")
	explainCmd.Flags().String("url", "", "arXiv abstract or PDF URL")
	explainCmd.Flags().String("audience", string(types.AudienceStudent), "target reader: scholar or student")
	explainCmd.Flags().Bool("convert", true, "convert the PDF to Markdown and upload the Markdown")
	explainCmd.MarkFlagsOneRequired("filepath", "url")
	explainCmd.MarkFlagsMutuallyExclusive("filepath", "url")
	addAIFlags(explainCmd)
	addConversionFlags(explainCmd)

	rootCmd.AddCommand(explainCmd)
}
