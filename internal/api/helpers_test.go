package api

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"quillpost-backend-go/internal/crypto"
)

func newTestSealer(t *testing.T) *crypto.Sealer {
	t.Helper()
	sealer, err := crypto.NewSealer([]byte(strings.Repeat("k", 32)))
	require.NoError(t, err)
	return sealer
}
