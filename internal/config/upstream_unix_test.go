//go:build unix

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	arena "github.com/pavanmanishd/framearena"
)

func TestMmapUpstreamOption(t *testing.T) {
	c, err := Parse("[arena]\nupstream = \"mmap\"\n")
	require.NoError(t, err)

	opts, err := c.ArenaOptions()
	require.NoError(t, err)
	assert.IsType(t, arena.MmapUpstream{}, opts.Upstream)

	a := arena.New(opts)
	require.NotNil(t, a.AllocBytes(128))
	a.Purge()
	assert.Zero(t, a.TotalReserved())
}
