package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/spotctl/internal/models"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgTick MsgKind = iota
	MsgPlaybackFetched
	MsgDevicesFetched
	MsgCommandDone
)

// RefreshInterval is how often the player state is refetched.
const RefreshInterval = time.Second

type playbackResult struct {
	playback *models.Playback
	err      error
}

type devicesResult struct {
	devices []models.Device
	err     error
}

type commandResult struct {
	action string
	err    error
}

// tickMsg is the constructor for [MsgTick]
func tickMsg(t time.Time) Msg {
	return Msg{kind: MsgTick, data: t}
}

// playbackFetchedMsg is the constructor for [MsgPlaybackFetched]
func playbackFetchedMsg(playback *models.Playback, err error) Msg {
	return Msg{kind: MsgPlaybackFetched, data: playbackResult{playback, err}}
}

// devicesFetchedMsg is the constructor for [MsgDevicesFetched]
func devicesFetchedMsg(devices []models.Device, err error) Msg {
	return Msg{kind: MsgDevicesFetched, data: devicesResult{devices, err}}
}

// commandDoneMsg is the constructor for [MsgCommandDone]
func commandDoneMsg(action string, err error) Msg {
	return Msg{kind: MsgCommandDone, data: commandResult{action, err}}
}

func tick() tea.Cmd {
	return tea.Tick(RefreshInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}
