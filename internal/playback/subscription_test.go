package playback

import (
	"errors"
	"testing"
	"testing/synctest"
	"time"

	"github.com/llehouerou/humdrum/internal/catalog"
)

func TestNewSubscription_ChannelsReadable(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		sub := newSubscription()

		sub.sendState(StateChange{Previous: StateEmpty, Current: StateLoading})
		sub.sendSong(SongChange{Current: &catalog.Song{ID: "3"}})
		sub.sendPosition(PositionChange{Position: 30 * time.Second})
		sub.sendVolume(VolumeChange{Level: 0.5})
		sub.sendError(ErrorEvent{Operation: "play", Err: errors.New("boom")})

		e := <-sub.StateChanged
		if e.Current != StateLoading {
			t.Errorf("StateChanged.Current = %v, want Loading", e.Current)
		}

		sc := <-sub.SongChanged
		if sc.Current == nil || sc.Current.ID != "3" {
			t.Errorf("SongChanged.Current = %v, want song 3", sc.Current)
		}

		pos := <-sub.PositionChanged
		if pos.Position != 30*time.Second {
			t.Errorf("PositionChanged.Position = %v, want 30s", pos.Position)
		}

		v := <-sub.VolumeChanged
		if v.Level != 0.5 {
			t.Errorf("VolumeChanged.Level = %v, want 0.5", v.Level)
		}

		ee := <-sub.Error
		if ee.Operation != "play" {
			t.Errorf("Error.Operation = %q, want play", ee.Operation)
		}
	})
}

func TestSubscription_Close_SignalsDone(t *testing.T) {
	synctest.Test(t, func(_ *testing.T) {
		sub := newSubscription()
		sub.close()
		<-sub.Done
	})
}

func TestSubscription_NonBlocking_DropsWhenFull(t *testing.T) {
	sub := newSubscription()

	// Fill buffer
	for range eventBufferSize + 5 {
		sub.sendState(StateChange{})
	}

	// Should not block or panic - count what we got
	count := 0
	for {
		select {
		case <-sub.StateChanged:
			count++
		default:
			goto done
		}
	}
done:
	if count != eventBufferSize {
		t.Errorf("received %d events, want %d (buffer size)", count, eventBufferSize)
	}
}
