package codegen

import (
	"bytes"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var codePattern = regexp.MustCompile(`^[0-9A-F]{16}$`)

func TestGenerate_Format(t *testing.T) {
	code, err := Generate()
	require.NoError(t, err)
	assert.Regexp(t, codePattern, code)
}

func TestGenerate_NoCollisionsInTenThousandDraws(t *testing.T) {
	seen := make(map[string]struct{}, 10000)
	for i := 0; i < 10000; i++ {
		code, err := Generate()
		require.NoError(t, err)
		_, dup := seen[code]
		require.False(t, dup, "collision at draw %d: %s", i, code)
		seen[code] = struct{}{}
	}
}

func TestFromReader_Deterministic(t *testing.T) {
	gen := FromReader(bytes.NewReader([]byte{0xde, 0xad, 0xbe, 0xef, 0x00, 0x01, 0x02, 0x0a}))
	code, err := gen()
	require.NoError(t, err)
	assert.Equal(t, "DEADBEEF0001020A", code)
}

func TestFromReader_ShortSource(t *testing.T) {
	_, err := FromReader(bytes.NewReader([]byte{0x01}))()
	assert.Error(t, err)
}
