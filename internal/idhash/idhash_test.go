package idhash_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/openalpha/predictionx/internal/idhash"
)

func TestResolvePassesThroughValidUUID(t *testing.T) {
	id := uuid.New()
	require.Equal(t, id, idhash.Resolve(id.String()))
}

func TestResolveIsDeterministicForFreeformStrings(t *testing.T) {
	first := idhash.Resolve("drake-operator")
	second := idhash.Resolve("drake-operator")
	require.Equal(t, first, second)
}

func TestResolveTrimsWhitespace(t *testing.T) {
	require.Equal(t, idhash.Resolve("drake-operator"), idhash.Resolve("  drake-operator  "))
}

func TestResolveDistinctStringsYieldDistinctIDs(t *testing.T) {
	require.NotEqual(t, idhash.Resolve("drake-operator"), idhash.Resolve("kendrick-operator"))
}
