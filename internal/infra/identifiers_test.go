package infra

import (
	"bytes"
	"regexp"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	hexIDPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)
	uuidPattern  = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
)

func TestIdentifierGenerator_Format(t *testing.T) {
	gen := NewIdentifierGenerator()

	for i := 0; i < 50; i++ {
		ids, err := gen.Generate()
		require.NoError(t, err)

		assert.Regexp(t, hexIDPattern, ids.MachineID)
		assert.Regexp(t, hexIDPattern, ids.MacMachineID)
		assert.NotEqual(t, ids.MachineID, ids.MacMachineID)

		assert.Regexp(t, uuidPattern, ids.DevDeviceID)
		u, err := uuid.Parse(ids.DevDeviceID)
		require.NoError(t, err)
		assert.Equal(t, uuid.Version(4), u.Version())
		assert.Equal(t, uuid.RFC4122, u.Variant())
	}
}

func TestIdentifierGenerator_Unique(t *testing.T) {
	gen := NewIdentifierGenerator()
	a, err := gen.Generate()
	require.NoError(t, err)
	b, err := gen.Generate()
	require.NoError(t, err)

	assert.NotEqual(t, a.MachineID, b.MachineID)
	assert.NotEqual(t, a.DevDeviceID, b.DevDeviceID)
}

func TestIdentifierGenerator_ShortEntropy(t *testing.T) {
	gen := NewIdentifierGeneratorWithReader(bytes.NewReader(make([]byte, 40)))

	_, err := gen.Generate()

	assert.ErrorContains(t, err, "failed to read random bytes")
}
