//go:build linux

package mpris

import (
	"context"
	"testing"
	"testing/synctest"
	"time"

	"github.com/quarckster/go-mpris-server/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/humdrum/internal/catalog"
	"github.com/llehouerou/humdrum/internal/playback"
	"github.com/llehouerou/humdrum/internal/player"
)

var song = catalog.Song{ID: "7", Title: "Harvest Moon", Artist: "Neil Young", URL: "https://cdn.example/7.mp3", Genre: "folk"}

// newTestAdapter must be called inside a synctest bubble.
func newTestAdapter(t *testing.T) (*playerAdapter, *playback.Engine, *player.Mock) {
	t.Helper()
	transport := player.NewMock()
	engine := playback.New(transport)
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = engine.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		_ = engine.Close()
	})
	return &playerAdapter{service: engine}, engine, transport
}

// deliver feeds a transport event through the engine and waits for it.
func deliver(transport *player.Mock, ev player.Event) {
	transport.Emit(ev)
	synctest.Wait()
}

func TestPlayerAdapter_Empty(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		p, _, _ := newTestAdapter(t)

		status, err := p.PlaybackStatus()
		require.NoError(t, err)
		assert.Equal(t, types.PlaybackStatusStopped, status)

		meta, err := p.Metadata()
		require.NoError(t, err)
		assert.Equal(t, types.Metadata{}, meta)

		canPlay, _ := p.CanPlay()
		assert.False(t, canPlay)
		canSeek, _ := p.CanSeek()
		assert.False(t, canSeek)
	})
}

func TestPlayerAdapter_Metadata(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		p, engine, transport := newTestAdapter(t)
		engine.PlaySong(song)
		deliver(transport, player.Event{Gen: transport.LastGen(), Kind: player.EventDurationKnown, Duration: 3 * time.Minute})

		meta, err := p.Metadata()
		require.NoError(t, err)
		assert.Equal(t, formatTrackID("7"), string(meta.TrackId))
		assert.Equal(t, "Harvest Moon", meta.Title)
		assert.Equal(t, []string{"Neil Young"}, meta.Artist)
		assert.Equal(t, []string{"folk"}, meta.Genre)
		assert.Equal(t, types.Microseconds((3 * time.Minute).Microseconds()), meta.Length)
		assert.Equal(t, catalog.PlaceholderArtwork("folk"), meta.ArtUrl)

		canSeek, _ := p.CanSeek()
		assert.True(t, canSeek)
	})
}

func TestPlayerAdapter_Controls(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		p, engine, transport := newTestAdapter(t)
		engine.PlaySong(song)
		gen := transport.LastGen()
		deliver(transport, player.Event{Gen: gen, Kind: player.EventDurationKnown, Duration: time.Minute})
		deliver(transport, player.Event{Gen: gen, Kind: player.EventStarted})

		status, _ := p.PlaybackStatus()
		assert.Equal(t, types.PlaybackStatusPlaying, status)

		require.NoError(t, p.PlayPause())
		assert.Equal(t, 1, transport.PauseCalls())

		require.NoError(t, p.Seek(types.Microseconds((10 * time.Second).Microseconds())))
		assert.Equal(t, 10*time.Second, engine.Position())

		require.NoError(t, p.SetPosition("/org/mpris/MediaPlayer2/Track/other", 0))
		assert.Equal(t, 10*time.Second, engine.Position(), "stale track id is ignored")

		require.NoError(t, p.SetPosition(formatTrackID("7"), types.Microseconds((30*time.Second).Microseconds())))
		assert.Equal(t, 30*time.Second, engine.Position())

		pos, _ := p.Position()
		assert.Equal(t, (30 * time.Second).Microseconds(), pos)

		require.NoError(t, p.SetVolume(0.25))
		vol, _ := p.Volume()
		assert.InDelta(t, 0.25, vol, 1e-9)

		require.NoError(t, p.Stop())
		assert.Equal(t, time.Duration(0), engine.Position())
	})
}
