package hostlib

import (
	"io/fs"
	"syscall"

	"golang.org/x/sys/unix"
)

// platformMeta reads access and birth times with statx(2). Kernels or
// filesystems without statx fall back to stat(2) data, which has no
// birth time.
func platformMeta(path string, fi fs.FileInfo, meta map[string]any) {
	var stx unix.Statx_t
	err := unix.Statx(unix.AT_FDCWD, path, unix.AT_STATX_SYNC_AS_STAT,
		unix.STATX_BASIC_STATS|unix.STATX_BTIME, &stx)
	if err != nil {
		if st, ok := fi.Sys().(*syscall.Stat_t); ok {
			meta["accessed"] = nonNegative(int64(st.Atim.Sec))
			setMode(meta, st.Mode)
		}
		return
	}

	if stx.Mask&unix.STATX_ATIME != 0 {
		meta["accessed"] = nonNegative(stx.Atime.Sec)
	}
	if stx.Mask&unix.STATX_BTIME != 0 {
		meta["created"] = nonNegative(stx.Btime.Sec)
	}
	setMode(meta, uint32(stx.Mode))
}

func nonNegative(secs int64) any {
	if secs < 0 {
		return nil
	}
	return int(secs)
}
