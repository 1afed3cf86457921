package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/spotctl/internal/formatter"
	"github.com/desertthunder/spotctl/internal/models"
	"github.com/desertthunder/spotctl/internal/services"
	"github.com/desertthunder/spotctl/internal/shared"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	NowPlayingView ViewState = iota
	DevicesView
)

const (
	seekStepMS   = 10_000
	volumeStep   = 5
	progressBarW = 40
)

// Model represents the TUI application state.
type Model struct {
	ctx        context.Context
	view       ViewState
	player     services.Player
	playback   *models.Playback
	idle       bool
	deviceList list.Model
	width      int
	height     int
	status     string
	err        error
	help       help.Model
	keys       keyMap
}

// NewModel creates a new TUI model driving player.
func NewModel(ctx context.Context, player services.Player) *Model {
	devices := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	devices.Title = "Devices"

	return &Model{
		ctx:        ctx,
		view:       NowPlayingView,
		player:     player,
		deviceList: devices,
		help:       help.New(),
		keys:       newKeyMap(),
	}
}

// Init fetches the player state and starts the refresh tick.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.fetchPlayback(), tick())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.deviceList.SetSize(msg.Width-4, msg.Height-6)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case DevicesView:
			return m.handleDeviceKeys(msg)
		default:
			return m.handlePlayerKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m, nil
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgTick:
		return m, tea.Batch(m.fetchPlayback(), tick())

	case MsgPlaybackFetched:
		res := msg.data.(playbackResult)
		switch {
		case errors.Is(res.err, shared.ErrNoActiveDevice):
			m.playback, m.idle, m.err = nil, true, nil
		case res.err != nil:
			m.err = res.err
		default:
			m.playback, m.idle, m.err = res.playback, false, nil
		}
		return m, nil

	case MsgDevicesFetched:
		res := msg.data.(devicesResult)
		if res.err != nil {
			m.err = res.err
			return m, nil
		}
		m.deviceList.SetItems(deviceItems(res.devices))
		m.view = DevicesView
		return m, nil

	case MsgCommandDone:
		res := msg.data.(commandResult)
		if res.err != nil {
			m.err = res.err
			m.status = ""
			return m, nil
		}
		m.err = nil
		m.status = res.action
		return m, m.fetchPlayback()
	}

	return m, nil
}

func (m *Model) handlePlayerKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	p := m.playback

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.playPause):
		if p != nil && p.IsPlaying {
			return m, m.run("Paused", func(ctx context.Context, pl services.Player) error { return pl.Pause(ctx) })
		}
		return m, m.run("Playing", func(ctx context.Context, pl services.Player) error { return pl.Play(ctx) })
	case key.Matches(msg, m.keys.next):
		return m, m.run("Skipped forward", func(ctx context.Context, pl services.Player) error { return pl.Next(ctx) })
	case key.Matches(msg, m.keys.previous):
		return m, m.run("Skipped back", func(ctx context.Context, pl services.Player) error { return pl.Previous(ctx) })
	case key.Matches(msg, m.keys.devices):
		return m, m.fetchDevices()
	}

	if p == nil {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.seekBack):
		pos := max(0, p.ProgressMS-seekStepMS)
		return m, m.seek(pos)
	case key.Matches(msg, m.keys.seekForward):
		return m, m.seek(p.ProgressMS + seekStepMS)
	case key.Matches(msg, m.keys.volumeUp):
		return m, m.volume(min(100, p.Volume+volumeStep))
	case key.Matches(msg, m.keys.volumeDown):
		return m, m.volume(max(0, p.Volume-volumeStep))
	case key.Matches(msg, m.keys.shuffle):
		state := !p.Shuffle
		return m, m.run("Shuffle "+onOff(state), func(ctx context.Context, pl services.Player) error { return pl.Shuffle(ctx, state) })
	case key.Matches(msg, m.keys.repeat):
		state := models.NextRepeat(p.Repeat)
		return m, m.run("Repeat "+state, func(ctx context.Context, pl services.Player) error { return pl.Repeat(ctx, state) })
	}

	return m, nil
}

func (m *Model) handleDeviceKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.deviceList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.deviceList, cmd = m.deviceList.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = NowPlayingView
		return m, nil
	case key.Matches(msg, m.keys.enter):
		if selected, ok := m.deviceList.SelectedItem().(deviceItem); ok {
			m.view = NowPlayingView
			id := selected.device.ID
			return m, m.run("Transferred to "+selected.device.Name, func(ctx context.Context, pl services.Player) error {
				return pl.Transfer(ctx, id, true)
			})
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.deviceList, cmd = m.deviceList.Update(msg)
	return m, cmd
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// run wraps a player command in a [tea.Cmd] reporting [MsgCommandDone].
func (m *Model) run(action string, fn func(context.Context, services.Player) error) tea.Cmd {
	ctx, player := m.ctx, m.player
	return func() tea.Msg {
		return commandDoneMsg(action, fn(ctx, player))
	}
}

func (m *Model) seek(positionMS int) tea.Cmd {
	return m.run("Seeked to "+shared.FormatDuration(positionMS), func(ctx context.Context, pl services.Player) error {
		return pl.Seek(ctx, positionMS)
	})
}

func (m *Model) volume(percent int) tea.Cmd {
	return m.run(fmt.Sprintf("Volume %d%%", percent), func(ctx context.Context, pl services.Player) error {
		return pl.Volume(ctx, percent)
	})
}

func (m *Model) fetchPlayback() tea.Cmd {
	ctx, player := m.ctx, m.player
	return func() tea.Msg {
		playback, err := player.PlaybackState(ctx)
		return playbackFetchedMsg(playback, err)
	}
}

func (m *Model) fetchDevices() tea.Cmd {
	ctx, player := m.ctx, m.player
	return func() tea.Msg {
		devices, err := player.Devices(ctx)
		return devicesFetchedMsg(devices, err)
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case DevicesView:
		helpView := m.help.ShortHelpView([]key.Binding{m.keys.enter, m.keys.back, m.keys.quit})
		return fmt.Sprintf("%s\n\n%s", m.deviceList.View(), helpView)
	default:
		return m.renderNowPlaying()
	}
}

func (m *Model) renderNowPlaying() string {
	var b strings.Builder

	b.WriteString(styles.title.Render("spotctl"))
	b.WriteString("\n")

	switch p := m.playback; {
	case p != nil:
		state := "▶"
		if !p.IsPlaying {
			state = "⏸"
		}
		track := p.TrackName
		if track == "" {
			track = "Nothing loaded"
		}
		fmt.Fprintf(&b, "%s %s\n", state, styles.track.Render(track))
		if p.ArtistName != "" {
			fmt.Fprintf(&b, "  %s\n", p.ArtistName)
		}
		if p.AlbumName != "" {
			fmt.Fprintf(&b, "  %s\n", styles.muted.Render(p.AlbumName))
		}
		fmt.Fprintf(&b, "\n  %s %s\n\n", styles.active.Render(formatter.ProgressBar(p.ProgressMS, p.DurationMS, progressBarW)), formatter.Elapsed(p))
		fmt.Fprintf(&b, "  Volume %d%%  %s  %s  %s\n",
			p.Volume,
			styles.toggle("Shuffle", onOff(p.Shuffle), p.Shuffle),
			styles.toggle("Repeat", p.Repeat, p.Repeat != models.RepeatOff),
			styles.muted.Render(p.DeviceName),
		)
	case m.idle:
		b.WriteString(styles.warn.Render("No active device. Start Spotify somewhere or press d to pick one."))
		b.WriteString("\n")
	default:
		b.WriteString(styles.muted.Render("Loading..."))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.err != nil {
		b.WriteString(styles.err.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n")
	} else if m.status != "" {
		b.WriteString(styles.ok.Render(m.status))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}
