// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-explainer/internal/pipeline"
	"github.com/pdiddy/paper-explainer/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the interactive web form",
	Long: `Serve starts a web form with an arXiv URL field and a PDF picker. Each
submission runs the full pipeline and shows the explanation with a download
link. Metrics are exposed on /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if err := cfg.AI.Validate(); err != nil {
			return err
		}
		if f := cmd.Flags().Lookup("addr"); f.Changed {
			cfg.Server.Addr = f.Value.String()
		}
		if f := cmd.Flags().Lookup("convert"); f.Changed {
			cfg.Server.Convert, _ = cmd.Flags().GetBool("convert")
		}
		// Progress lines from concurrent requests would interleave.
		cfg.Conversion.ShowProgress = false

		log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metrics, err := pipeline.NewMetrics(reg)
		if err != nil {
			return err
		}

		a, err := assemble(cmd.Context(), cfg, cfg.Server.Convert, io.Discard, log, pipeline.WithMetrics(metrics))
		if err != nil {
			return err
		}
		defer a.Close()

		opts := []server.Option{server.WithLogger(log), server.WithUploadDir(cfg.Acquisition.TempDir)}
		if a.mirror != nil {
			opts = append(opts, server.WithMirrorLinks(a.mirror, cfg.Storage.LinkTTL))
		}
		srv, err := server.New(a.pipeline, cfg.Server, reg, opts...)
		if err != nil {
			return err
		}
		return srv.Listen(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default \":7860\")")
	serveCmd.Flags().Bool("convert", false, "convert PDFs to Markdown before upload")
	addAIFlags(serveCmd)
	addConversionFlags(serveCmd)

	rootCmd.AddCommand(serveCmd)
}
