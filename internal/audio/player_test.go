package audio

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

var errNoAudioDevice = errors.New("no audio device")

// TestNopPlayerHandlesAreIndependent verifies overlapping starts each get
// their own handle and stopping one leaves the others live.
func TestNopPlayerHandlesAreIndependent(t *testing.T) {
	t.Parallel()

	player := NewNopPlayer()

	first, err := player.Start(context.Background(), "tones/a.mp3")
	require.NoError(t, err)

	second, err := player.Start(context.Background(), "tones/b.mp3")
	require.NoError(t, err)

	require.Equal(t, 2, player.ActivePlaybacks())

	require.NoError(t, second.Stop())
	require.True(t, player.Playing())
	require.Equal(t, 1, player.ActivePlaybacks())

	// Stopping twice is a no-op.
	require.NoError(t, second.Stop())
	require.Equal(t, 1, player.ActivePlaybacks())

	require.NoError(t, first.Stop())
	require.False(t, player.Playing())
}

// TestNopPlayerFailStart covers the forced-failure hook used by fallback tests.
func TestNopPlayerFailStart(t *testing.T) {
	t.Parallel()

	player := NewNopPlayer()
	player.FailStartWith(errNoAudioDevice)

	_, err := player.Start(context.Background(), "tones/a.mp3")
	require.ErrorIs(t, err, errNoAudioDevice)
	require.False(t, player.Playing())
}

// TestExecPlayerMissingBinary asserts an unrunnable command is reported to
// the caller instead of failing later inside the loop.
func TestExecPlayerMissingBinary(t *testing.T) {
	t.Parallel()

	player := NewExecPlayer("definitely-not-a-player-binary")

	_, err := player.Start(context.Background(), "tones/a.mp3")
	require.Error(t, err)
}

// TestExecPlayerOverlappingLoops starts two loops from one player and stops
// them separately.
func TestExecPlayerOverlappingLoops(t *testing.T) {
	t.Parallel()

	player := NewExecPlayer("sleep")

	first, err := player.Start(context.Background(), "60")
	require.NoError(t, err)

	second, err := player.Start(context.Background(), "60")
	require.NoError(t, err)

	require.NoError(t, first.Stop())
	require.NoError(t, second.Stop())

	// Stop after the loop ended is a no-op.
	require.NoError(t, first.Stop())
}
