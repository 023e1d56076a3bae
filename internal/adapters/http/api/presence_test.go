package api

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/okian/hangman/pkg/logger"
)

func TestPresenceConnectionCount(t *testing.T) {
	h := NewPresenceHandler(nil, logger.Nop())

	h.join("u-lan")
	h.join("u-lan")
	h.join("guest:1")

	require.False(t, h.leave("u-lan"))
	require.True(t, h.leave("u-lan"))
	require.True(t, h.leave("guest:1"))
	require.Empty(t, h.conns)
}
