//go:build linux

package mpris

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/llehouerou/humdrum/internal/catalog"
)

// coverNames lists common album art filenames in priority order.
var coverNames = []string{
	"cover.jpg", "cover.png", "cover.jpeg",
	"folder.jpg", "folder.png", "folder.jpeg",
	"front.jpg", "front.png", "front.jpeg",
}

// ArtURL returns the artwork URL published for a song. Songs served from
// local files prefer a cover image next to the audio file.
func ArtURL(song catalog.Song) string {
	if song.ArtworkURL == "" {
		if path, ok := localPath(song.URL); ok {
			if art := FindAlbumArt(path); art != "" {
				return "file://" + art
			}
		}
	}
	art := song.Artwork()
	if filepath.IsAbs(art) {
		return "file://" + art
	}
	return art
}

// FindAlbumArt looks for album art in the same directory as the song.
// Returns the path to the art file, or empty string if not found.
func FindAlbumArt(songPath string) string {
	dir := filepath.Dir(songPath)
	for _, name := range coverNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

func localPath(url string) (string, bool) {
	if p, ok := strings.CutPrefix(url, "file://"); ok {
		return p, true
	}
	if filepath.IsAbs(url) {
		return url, true
	}
	return "", false
}
