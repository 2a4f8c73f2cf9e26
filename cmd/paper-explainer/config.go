// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/paper-explainer/internal/secrets"
	"github.com/pdiddy/paper-explainer/pkg/types"
)

// setDefaults registers every config key so environment variables and the
// config file can override it.
func setDefaults(v *viper.Viper, d types.Config) {
	v.SetDefault("acquisition.timeout", d.Acquisition.Timeout)
	v.SetDefault("acquisition.user_agent", d.Acquisition.UserAgent)
	v.SetDefault("acquisition.temp_dir", d.Acquisition.TempDir)
	v.SetDefault("acquisition.chunk_size", d.Acquisition.ChunkSize)

	v.SetDefault("conversion.backend", string(d.Conversion.Backend))
	v.SetDefault("conversion.output_dir", d.Conversion.OutputDir)
	v.SetDefault("conversion.keep_code", d.Conversion.KeepCode)
	v.SetDefault("conversion.embed_images", d.Conversion.EmbedImages)
	v.SetDefault("conversion.show_progress", d.Conversion.ShowProgress)

	v.SetDefault("ai.backend", string(d.AI.Backend))
	v.SetDefault("ai.model", d.AI.Model)
	v.SetDefault("ai.api_key", d.AI.APIKey)
	v.SetDefault("ai.project_id", d.AI.ProjectID)
	v.SetDefault("ai.region", d.AI.Region)
	v.SetDefault("ai.bucket", d.AI.Bucket)

	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.body_limit", d.Server.BodyLimit)
	v.SetDefault("server.convert", d.Server.Convert)

	v.SetDefault("storage.endpoint", d.Storage.Endpoint)
	v.SetDefault("storage.access_key", d.Storage.AccessKey)
	v.SetDefault("storage.secret_key", d.Storage.SecretKey)
	v.SetDefault("storage.bucket", d.Storage.Bucket)
	v.SetDefault("storage.use_ssl", d.Storage.UseSSL)
	v.SetDefault("storage.link_ttl", d.Storage.LinkTTL)
}

// loadConfig merges defaults, config file, environment and .secrets/ into
// a Config. Flags shared by several commands override the file and
// environment before .secrets/ fills in missing credentials.
func loadConfig(cmd *cobra.Command) (types.Config, error) {
	cfg := types.Defaults()
	if err := viper.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("decoding config: %w", err)
	}

	if f := cmd.Flags().Lookup("model"); f != nil && f.Changed {
		cfg.AI.Model = f.Value.String()
	}
	if f := cmd.Flags().Lookup("ai-backend"); f != nil && f.Changed {
		cfg.AI.Backend = types.AIBackendKind(f.Value.String())
	}
	if f := cmd.Flags().Lookup("converter"); f != nil && f.Changed {
		cfg.Conversion.Backend = types.ConversionBackend(f.Value.String())
	}
	if f := cmd.Flags().Lookup("output-dir"); f != nil && f.Changed {
		cfg.Conversion.OutputDir = f.Value.String()
	}

	// The backend is final here, so the matching secret is picked.
	credKey := secrets.GoogleAPIKey
	if cfg.AI.Backend == types.AIBackendVertex {
		credKey = secrets.GoogleCredentialsFile
	}
	cfg.AI.APIKey = secrets.Default(loadedSecrets, credKey, cfg.AI.APIKey)
	cfg.Storage.AccessKey = secrets.Default(loadedSecrets, secrets.StorageAccessKey, cfg.Storage.AccessKey)
	cfg.Storage.SecretKey = secrets.Default(loadedSecrets, secrets.StorageSecretKey, cfg.Storage.SecretKey)
	return cfg, nil
}

// addAIFlags registers the flags read by loadConfig for AI commands.
func addAIFlags(cmd *cobra.Command) {
	cmd.Flags().String("model", "", "model identifier (default from config: gemini-2.5-pro)")
	cmd.Flags().String("ai-backend", "", "AI service: gemini or vertex")
}

// addConversionFlags registers the flags read by loadConfig for conversion.
func addConversionFlags(cmd *cobra.Command) {
	cmd.Flags().String("converter", "", "conversion backend: tabula or markitdown")
	cmd.Flags().String("output-dir", "", "directory for converted Markdown (default \"output\")")
}
