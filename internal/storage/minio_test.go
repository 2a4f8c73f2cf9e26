// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-explainer/pkg/types"
)

func TestNewMinIO_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  types.StorageConfig
		want string
	}{
		{"no endpoint", types.StorageConfig{}, "endpoint is required"},
		{"no credentials", types.StorageConfig{Endpoint: "localhost:9000", Bucket: "b"}, "credentials are required"},
		{"no bucket", types.StorageConfig{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "s"}, "bucket is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewMinIO(context.Background(), tt.cfg)
			require.Error(t, err)
			assert.Equal(t, types.ConfigurationError, types.KindOf(err))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
