package util

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetIDFromString(t *testing.T) {
	a := "fan@example.com"
	b := "fan@example.com"
	c := "other@example.com"

	require.Equal(t, GetIDFromString(&a), GetIDFromString(&b))
	require.NotEqual(t, GetIDFromString(&a), GetIDFromString(&c))
	require.Len(t, GetIDFromString(&a), 40)
}
