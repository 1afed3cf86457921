// package formatter renders player state, devices and play history for the terminal (plain text, CSV)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/spotctl/internal/models"
	"github.com/desertthunder/spotctl/internal/shared"
)

// HistoryTimeFormat is used for played_at columns.
const HistoryTimeFormat = "2006-01-02 15:04:05"

// ProgressBar draws a fixed-width bar for position within duration.
func ProgressBar(progressMS, durationMS, width int) string {
	if width <= 0 {
		return ""
	}

	filled := 0
	if durationMS > 0 {
		filled = progressMS * width / durationMS
	}
	filled = max(0, min(filled, width))

	return strings.Repeat("━", filled) + strings.Repeat("─", width-filled)
}

// Elapsed formats "m:ss / m:ss" for a playback.
func Elapsed(p *models.Playback) string {
	return fmt.Sprintf("%s / %s", shared.FormatDuration(p.ProgressMS), shared.FormatDuration(p.DurationMS))
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// PlaybackText renders the current player state as a short block of lines.
func PlaybackText(p *models.Playback) string {
	var buf bytes.Buffer

	state := "Paused"
	if p.IsPlaying {
		state = "Playing"
	}

	if p.TrackName == "" {
		fmt.Fprintf(&buf, "%s: nothing loaded\n", state)
	} else {
		fmt.Fprintf(&buf, "%s: %s - %s\n", state, p.ArtistName, p.TrackName)
		if p.AlbumName != "" {
			fmt.Fprintf(&buf, "Album:   %s\n", p.AlbumName)
		}
		fmt.Fprintf(&buf, "         %s %s\n", ProgressBar(p.ProgressMS, p.DurationMS, 30), Elapsed(p))
	}

	fmt.Fprintf(&buf, "Device:  %s (volume %d%%)\n", p.DeviceName, p.Volume)
	fmt.Fprintf(&buf, "Shuffle: %s  Repeat: %s\n", onOff(p.Shuffle), p.Repeat)

	return buf.String()
}

// DevicesText renders one device per line, marking the active one with '*'.
func DevicesText(devices []models.Device) string {
	if len(devices) == 0 {
		return "No devices available\n"
	}

	var buf bytes.Buffer
	for _, d := range devices {
		marker := " "
		if d.Active {
			marker = "*"
		}
		fmt.Fprintf(&buf, "%s %s [%s] %s volume %d%%\n", marker, d.Name, d.Type, d.ID, d.Volume)
	}
	return buf.String()
}

// HistoryText renders plays newest first as numbered lines.
func HistoryText(plays []*models.Play) string {
	if len(plays) == 0 {
		return "No plays recorded\n"
	}

	var buf bytes.Buffer
	for i, play := range plays {
		albumPart := ""
		if play.AlbumName() != "" {
			albumPart = fmt.Sprintf(" (%s)", play.AlbumName())
		}
		fmt.Fprintf(&buf, "%d. %s  %s - %s%s [%s]\n",
			i+1,
			play.PlayedAt().Local().Format(HistoryTimeFormat),
			play.ArtistName(),
			play.TrackName(),
			albumPart,
			shared.FormatDuration(play.DurationMS()),
		)
	}
	return buf.String()
}

// HistoryCSV converts plays to CSV with columns: Played At, Track URI, Title, Artist, Album, Duration, Device
func HistoryCSV(plays []*models.Play) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Played At", "Track URI", "Title", "Artist", "Album", "Duration", "Device"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, play := range plays {
		record := []string{
			play.PlayedAt().UTC().Format(time.RFC3339),
			play.TrackURI(),
			play.TrackName(),
			play.ArtistName(),
			play.AlbumName(),
			strconv.Itoa(play.DurationMS()),
			play.DeviceName(),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}
