package media

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Device kinds.
const (
	DeviceVideoInput = "videoinput"
	DeviceAudioInput = "audioinput"
)

// Device describes a capture device for diagnostics.
type Device struct {
	Kind  string `json:"kind"`
	ID    string `json:"deviceId"`
	Label string `json:"label"`
}

// DeviceLister enumerates the capture devices present on the host.
type DeviceLister interface {
	List(ctx context.Context) ([]Device, error)
}

// SysfsDeviceLister enumerates V4L2 video nodes and ALSA capture nodes.
type SysfsDeviceLister struct {
	// Root prefixes every path; empty means the real filesystem root.
	Root string
}

// List returns video inputs followed by audio inputs, each sorted by id.
func (l SysfsDeviceLister) List(ctx context.Context) ([]Device, error) {
	videos, err := filepath.Glob(l.path("/dev/video*"))
	if err != nil {
		return nil, err
	}
	audios, err := filepath.Glob(l.path("/dev/snd/pcmC*D*c"))
	if err != nil {
		return nil, err
	}
	sort.Strings(videos)
	sort.Strings(audios)

	devices := make([]Device, 0, len(videos)+len(audios))
	for _, node := range videos {
		if ctx.Err() != nil {
			return devices, ctx.Err()
		}
		id := strings.TrimPrefix(node, l.Root)
		devices = append(devices, Device{Kind: DeviceVideoInput, ID: id, Label: l.videoLabel(filepath.Base(node))})
	}
	for _, node := range audios {
		id := strings.TrimPrefix(node, l.Root)
		devices = append(devices, Device{Kind: DeviceAudioInput, ID: id, Label: filepath.Base(node)})
	}
	return devices, nil
}

func (l SysfsDeviceLister) videoLabel(name string) string {
	raw, err := os.ReadFile(l.path(filepath.Join("/sys/class/video4linux", name, "name")))
	if err != nil {
		return name
	}
	if label := strings.TrimSpace(string(raw)); label != "" {
		return label
	}
	return name
}

func (l SysfsDeviceLister) path(p string) string {
	if l.Root == "" {
		return p
	}
	return filepath.Join(l.Root, p)
}
