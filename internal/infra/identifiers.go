package infra

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/eliteGoblin/wsreset/internal/domain"
)

// machineIDBytes is the entropy behind each hash-like identifier.
const machineIDBytes = 32

// IdentifierGeneratorImpl implements domain.IdentifierGenerator.
type IdentifierGeneratorImpl struct {
	random io.Reader
}

// NewIdentifierGenerator creates a generator backed by crypto/rand.
func NewIdentifierGenerator() *IdentifierGeneratorImpl {
	return &IdentifierGeneratorImpl{random: rand.Reader}
}

// NewIdentifierGeneratorWithReader creates a generator with a custom entropy source (for testing).
func NewIdentifierGeneratorWithReader(r io.Reader) *IdentifierGeneratorImpl {
	return &IdentifierGeneratorImpl{random: r}
}

// Generate returns two independent 64-char hex IDs and a v4 UUID.
func (g *IdentifierGeneratorImpl) Generate() (domain.DeviceIdentifierSet, error) {
	machineID, err := g.randomHex(machineIDBytes)
	if err != nil {
		return domain.DeviceIdentifierSet{}, err
	}
	macMachineID, err := g.randomHex(machineIDBytes)
	if err != nil {
		return domain.DeviceIdentifierSet{}, err
	}
	devID, err := uuid.NewRandomFromReader(g.random)
	if err != nil {
		return domain.DeviceIdentifierSet{}, fmt.Errorf("failed to generate device id: %w", err)
	}

	return domain.DeviceIdentifierSet{
		MachineID:    machineID,
		MacMachineID: macMachineID,
		DevDeviceID:  devID.String(),
	}, nil
}

// randomHex returns n random bytes hex-encoded.
func (g *IdentifierGeneratorImpl) randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(g.random, buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// Ensure IdentifierGeneratorImpl implements domain.IdentifierGenerator.
var _ domain.IdentifierGenerator = (*IdentifierGeneratorImpl)(nil)
