package tasks

import (
	"fmt"

	"github.com/desertthunder/spotctl/internal/models"
)

// ProgressUpdate represents an event emitted by the history recorder's polling loop.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Poll outcome
	Step    int    // Poll count since the loop started
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data (*models.Play for Recorded)
}

// Polling outcome enumeration
type Phase int

const (
	Recorded Phase = iota
	Unchanged
	Idle
	Unavailable
	Failed
)

func (p Phase) String() string {
	switch p {
	case Recorded:
		return "recorded"
	case Unchanged:
		return "unchanged"
	case Idle:
		return "idle"
	case Unavailable:
		return "unavailable"
	case Failed:
		return "failed"
	default:
		return ""
	}
}

func recordedUpdate(step int, play *models.Play) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Recorded,
		Step:    step,
		Message: fmt.Sprintf("Recorded: %s - %s", play.ArtistName(), play.TrackName()),
		Data:    play,
	}
}

func unchangedUpdate(step int, p *models.Playback) ProgressUpdate {
	return ProgressUpdate{Phase: Unchanged, Step: step, Message: fmt.Sprintf("Still playing: %s", p.TrackName)}
}

func idleUpdate(step int) ProgressUpdate {
	return ProgressUpdate{Phase: Idle, Step: step, Message: "No active device"}
}

func unavailableUpdate(step int, err error) ProgressUpdate {
	return ProgressUpdate{Phase: Unavailable, Step: step, Message: fmt.Sprintf("Player unavailable: %v", err)}
}

func failedUpdate(step int, err error) ProgressUpdate {
	return ProgressUpdate{Phase: Failed, Step: step, Message: fmt.Sprintf("Poll failed: %v", err)}
}
