package driverutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNextTrapLabel_UniqueAcrossCalls(t *testing.T) {
	a := NextTrapLabel("bounds")
	b := NextTrapLabel("bounds")
	require.NotEqual(t, a, b)
	require.True(t, strings.HasPrefix(a, ".Ltrap_bounds_"))
	require.True(t, strings.HasPrefix(b, ".Ltrap_bounds_"))
}

func TestNextTrapLabel_KindNamesTheSite(t *testing.T) {
	label := NextTrapLabel("div0")
	require.True(t, strings.HasPrefix(label, ".Ltrap_div0_"))
}
