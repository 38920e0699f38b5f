package playback

import "testing"

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateEmpty, "Empty"},
		{StateLoading, "Loading"},
		{StatePlaying, "Playing"},
		{StatePaused, "Paused"},
		{State(99), "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.state.String(); got != tt.want {
				t.Errorf("State.String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestState_HasSong(t *testing.T) {
	tests := []struct {
		state State
		want  bool
	}{
		{StateEmpty, false},
		{StateLoading, true},
		{StatePlaying, true},
		{StatePaused, true},
	}

	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			if got := tt.state.HasSong(); got != tt.want {
				t.Errorf("State.HasSong() = %v, want %v", got, tt.want)
			}
		})
	}
}
