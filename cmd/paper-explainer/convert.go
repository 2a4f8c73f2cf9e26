// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-explainer/internal/convert"
	"github.com/pdiddy/paper-explainer/pkg/types"
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert a PDF file to Markdown",
	Long: `Convert transforms one PDF into Markdown, keeping code blocks and
embedding images as data URIs, and writes it to the output directory as
<unix-seconds>-<id>.md with YAML frontmatter. Any failure exits non-zero.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		path, _ := cmd.Flags().GetString("filepath")
		if _, err := os.Stat(path); err != nil {
			return types.Errorf(types.FileNotFound, "convert", "%w", err)
		}

		opts := convert.OptionsFrom(cfg.Conversion)
		if f := cmd.Flags().Lookup("keep-code"); f.Changed {
			opts.KeepCode, _ = cmd.Flags().GetBool("keep-code")
		}
		if f := cmd.Flags().Lookup("embed-images"); f.Changed {
			opts.EmbedImages, _ = cmd.Flags().GetBool("embed-images")
			cfg.Conversion.EmbedImages = opts.EmbedImages
		}
		if f := cmd.Flags().Lookup("progress"); f.Changed {
			opts.ShowProgress, _ = cmd.Flags().GetBool("progress")
		}

		conv, err := convert.New(cmd.Context(), cfg.Conversion, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		doc, err := convert.ConvertFile(cmd.Context(), conv, path, cfg.Conversion.OutputDir, opts, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), doc.Path)
		return nil
	},
}

func init() {
	convertCmd.Flags().String("filepath", "", "path to the PDF to convert")
	convertCmd.Flags().Bool("keep-code", true, "keep fenced code blocks")
	convertCmd.Flags().Bool("embed-images", true, "embed images as base64 data URIs")
	convertCmd.Flags().Bool("progress", true, "print progress lines to stderr")
	_ = convertCmd.MarkFlagRequired("filepath")
	addConversionFlags(convertCmd)

	rootCmd.AddCommand(convertCmd)
}
