package lastfm

import (
	"context"
	"strings"
	"testing"
	"testing/synctest"
	"time"
)

func TestWaitForToken_ReceivesToken(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		tokens := make(chan string, 1)
		tokens <- "test-token-123"

		if got := WaitForToken(context.Background(), tokens, 5*time.Minute); got != "test-token-123" {
			t.Errorf("WaitForToken() = %q, want %q", got, "test-token-123")
		}
	})
}

func TestWaitForToken_Timeout(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		start := time.Now()
		got := WaitForToken(context.Background(), make(chan string), 5*time.Minute)
		if got != "" {
			t.Errorf("WaitForToken() = %q, want empty", got)
		}
		if elapsed := time.Since(start); elapsed != 5*time.Minute {
			t.Errorf("waited %v, want 5m", elapsed)
		}
	})
}

func TestWaitForToken_Canceled(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if got := WaitForToken(ctx, make(chan string), time.Hour); got != "" {
			t.Errorf("WaitForToken() = %q, want empty", got)
		}
	})
}

func TestGetAuthURL(t *testing.T) {
	c := New("key123", "secret")
	u := c.GetAuthURL("tok")
	for _, want := range []string{"api_key=key123", "token=tok", "cb=" + CallbackURL()} {
		if !strings.Contains(u, want) {
			t.Errorf("GetAuthURL() = %q, missing %q", u, want)
		}
	}
	if c.IsAuthenticated() {
		t.Error("new client should not be authenticated")
	}
	if err := c.Scrobble(ScrobbleTrack{}); err != ErrNotAuthenticated {
		t.Errorf("Scrobble() error = %v, want ErrNotAuthenticated", err)
	}
}
