//go:build linux

package mpris

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/llehouerou/humdrum/internal/catalog"
)

func writeFake(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("fake"), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestFindAlbumArt(t *testing.T) {
	dir := t.TempDir()
	coverPath := filepath.Join(dir, "cover.jpg")
	writeFake(t, coverPath)

	got := FindAlbumArt(filepath.Join(dir, "song.mp3"))
	if got != coverPath {
		t.Errorf("FindAlbumArt() = %q, want %q", got, coverPath)
	}
}

func TestFindAlbumArt_NotFound(t *testing.T) {
	dir := t.TempDir()

	got := FindAlbumArt(filepath.Join(dir, "song.mp3"))
	if got != "" {
		t.Errorf("FindAlbumArt() = %q, want empty string", got)
	}
}

func TestFindAlbumArt_Priority(t *testing.T) {
	dir := t.TempDir()
	writeFake(t, filepath.Join(dir, "folder.jpg"))
	coverPath := filepath.Join(dir, "cover.jpg")
	writeFake(t, coverPath)

	got := FindAlbumArt(filepath.Join(dir, "song.mp3"))
	if got != coverPath {
		t.Errorf("FindAlbumArt() = %q, want %q (higher priority)", got, coverPath)
	}
}

func TestArtURL(t *testing.T) {
	dir := t.TempDir()
	coverPath := filepath.Join(dir, "front.png")
	writeFake(t, coverPath)

	tests := []struct {
		name string
		song catalog.Song
		want string
	}{
		{
			name: "explicit artwork",
			song: catalog.Song{ID: "1", URL: filepath.Join(dir, "a.mp3"), ArtworkURL: "https://img.example/a.jpg"},
			want: "https://img.example/a.jpg",
		},
		{
			name: "cover next to local file",
			song: catalog.Song{ID: "2", URL: "file://" + filepath.Join(dir, "b.mp3")},
			want: "file://" + coverPath,
		},
		{
			name: "local artwork path",
			song: catalog.Song{ID: "3", ArtworkURL: coverPath},
			want: "file://" + coverPath,
		},
		{
			name: "remote song falls back to placeholder",
			song: catalog.Song{ID: "4", URL: "https://cdn.example/4.mp3", Genre: "jazz"},
			want: catalog.PlaceholderArtwork("jazz"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ArtURL(tt.song); got != tt.want {
				t.Errorf("ArtURL() = %q, want %q", got, tt.want)
			}
		})
	}
}
