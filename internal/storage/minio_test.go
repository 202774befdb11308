package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/trustfundbaby/trustfund/internal/config"
)

func TestNewMinIOStorage_RequiresEndpoint(t *testing.T) {
	_, err := NewMinIOStorage(context.Background(), config.MinIOConfig{Bucket: "trustfund"})
	require.Error(t, err)
}
