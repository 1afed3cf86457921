package ui

import (
	"github.com/charmbracelet/lipgloss"
)

var styles = NewPalette("#1DB954", "#04B575", "#FF0000", "#FFA500", "#626262")

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title  lipgloss.Style
	track  lipgloss.Style
	ok     lipgloss.Style
	err    lipgloss.Style
	warn   lipgloss.Style
	muted  lipgloss.Style
	active lipgloss.Style
}

// NewPalette builds the stylesheet from accent, success, error, warning and muted colors.
func NewPalette(accent, ok, e, w, muted string) *Palette {
	return &Palette{
		title:  NewBold(accent).MarginBottom(1),
		track:  NewBold("#FFFFFF"),
		ok:     NewStyle(ok),
		err:    NewBold(e),
		warn:   NewStyle(w),
		muted:  NewEm(muted),
		active: NewStyle(accent),
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}

// toggle renders "label value", highlighted when on.
func (p *Palette) toggle(label, value string, on bool) string {
	if on {
		return p.active.Render(label + " " + value)
	}
	return p.muted.Render(label + " " + value)
}
