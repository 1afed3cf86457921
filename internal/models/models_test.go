package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestNextRepeat(t *testing.T) {
	tc := []struct{ in, want string }{
		{RepeatOff, RepeatContext},
		{RepeatContext, RepeatTrack},
		{RepeatTrack, RepeatOff},
		{"", RepeatOff},
	}
	for _, tt := range tc {
		if got := NextRepeat(tt.in); got != tt.want {
			t.Errorf("NextRepeat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPlay(t *testing.T) {
	playback := Playback{
		TrackURI:   "spotify:track:abc",
		TrackName:  "Song",
		ArtistName: "A, B",
		AlbumName:  "Album",
		DurationMS: 1000,
		DeviceName: "Desk",
	}

	t.Run("Validate", func(t *testing.T) {
		if err := NewPlay(playback, time.Now()).Validate(); err != nil {
			t.Errorf("expected valid play, got %v", err)
		}

		missing := playback
		missing.TrackURI = ""
		if err := NewPlay(missing, time.Now()).Validate(); err == nil {
			t.Error("expected error for missing URI")
		}

		if err := NewPlay(playback, time.Time{}).Validate(); err == nil {
			t.Error("expected error for zero timestamp")
		}
	})

	t.Run("MarshalJSON", func(t *testing.T) {
		play := RestorePlay("id-1", 3, playback, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), time.Now(), time.Now())

		data, err := json.Marshal(play)
		if err != nil {
			t.Fatalf("marshal failed: %v", err)
		}

		out := string(data)
		for _, want := range []string{`"id":"id-1"`, `"artist_name":"A, B"`, `"played_at":"2024-01-02T03:04:05Z"`} {
			if !strings.Contains(out, want) {
				t.Errorf("expected %s in %s", want, out)
			}
		}
		if play.Sequence() != 3 {
			t.Errorf("expected sequence 3, got %d", play.Sequence())
		}
	})

	t.Run("Playback album art null", func(t *testing.T) {
		data, err := json.Marshal(Playback{})
		if err != nil {
			t.Fatalf("marshal failed: %v", err)
		}
		if !strings.Contains(string(data), `"album_art":null`) {
			t.Errorf("expected null album art, got %s", data)
		}
	})
}
