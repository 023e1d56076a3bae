package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestServerOptions(t *testing.T) {
	s := NewServer(nil, WithRequestTimeout(3*time.Second), WithChatTimeout(time.Minute), WithMaxLimit(25))
	require.Equal(t, 3*time.Second, s.requestTimeout)
	require.Equal(t, time.Minute, s.chatTimeout)
	require.Equal(t, 25, s.maxLimit)

	s = NewServer(nil, WithRequestTimeout(0), WithMaxLimit(-1))
	require.Equal(t, 10*time.Second, s.requestTimeout)
	require.Equal(t, 100, s.maxLimit)
}
