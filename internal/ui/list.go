package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/spotctl/internal/models"
)

var (
	_ list.Item = deviceItem{}
)

// deviceItem wraps [models.Device] to implement [list.Item].
type deviceItem struct {
	device models.Device
}

func (i deviceItem) FilterValue() string { return i.device.Name }
func (i deviceItem) Title() string {
	if i.device.Active {
		return i.device.Name + " (active)"
	}
	return i.device.Name
}
func (i deviceItem) Description() string {
	desc := fmt.Sprintf("%s • volume %d%%", i.device.Type, i.device.Volume)
	if i.device.Restricted {
		desc += " • restricted"
	}
	return desc
}

func deviceItems(devices []models.Device) []list.Item {
	items := make([]list.Item, len(devices))
	for i, d := range devices {
		items[i] = deviceItem{device: d}
	}
	return items
}
