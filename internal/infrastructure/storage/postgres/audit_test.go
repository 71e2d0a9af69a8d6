package postgres

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditLog_CompressRoundTrip(t *testing.T) {
	l, err := NewAuditLog(nil)
	require.NoError(t, err)

	small := AuditEntry{Changes: []byte(`{"kind":"repair"}`), CompressionAlgo: CompressionNone}
	l.compress(&small)
	assert.Equal(t, CompressionNone, small.CompressionAlgo)
	assert.Nil(t, small.ChangesCompressed)

	payload := []byte(`{"comment":"` + strings.Repeat("запчасть ", 2000) + `"}`)
	large := AuditEntry{Changes: append([]byte(nil), payload...), CompressionAlgo: CompressionNone}
	l.compress(&large)
	assert.Equal(t, CompressionZstd, large.CompressionAlgo)
	assert.Nil(t, large.Changes)
	assert.Less(t, len(large.ChangesCompressed), len(payload))

	require.NoError(t, l.decompress(&large))
	assert.Equal(t, string(payload), string(large.Changes))
}
