//go:build unix && !linux

package hostlib

import (
	"io/fs"

	"golang.org/x/sys/unix"
)

func platformMeta(path string, _ fs.FileInfo, meta map[string]any) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return
	}
	setMode(meta, uint32(st.Mode))
}
