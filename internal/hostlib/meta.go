package hostlib

import (
	"fmt"
	"io/fs"
	"os"
	"time"
)

// statMeta builds the file_meta record for path, following symlinks.
func statMeta(path string) (map[string]any, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	meta := baseMeta(fi)
	platformMeta(path, fi, meta)
	return meta, nil
}

// baseMeta holds the fields every platform reports. accessed and created
// start as null and are filled in where the platform exposes them.
func baseMeta(fi fs.FileInfo) map[string]any {
	mode := fi.Mode()
	return map[string]any{
		"type":     fileType(mode),
		"size":     int(fi.Size()),
		"modified": epochSeconds(fi.ModTime()),
		"accessed": nil,
		"created":  nil,
		"dir":      mode.IsDir(),
		"file":     mode.IsRegular(),
		"symlink":  mode&fs.ModeSymlink != 0,
		"readonly": mode.Perm()&0o222 == 0,
	}
}

func fileType(mode fs.FileMode) string {
	switch {
	case mode&fs.ModeCharDevice != 0:
		return "char"
	case mode&fs.ModeDevice != 0:
		return "block"
	case mode&fs.ModeNamedPipe != 0:
		return "fifo"
	case mode&fs.ModeSocket != 0:
		return "socket"
	case mode.IsDir():
		return "dir"
	case mode.IsRegular():
		return "file"
	case mode&fs.ModeSymlink != 0:
		return "symlink"
	default:
		return "unknown"
	}
}

// epochSeconds returns whole seconds since the Unix epoch, or nil for
// times before it.
func epochSeconds(t time.Time) any {
	secs := t.Unix()
	if secs < 0 {
		return nil
	}
	return int(secs)
}

// setMode adds the POSIX permission fields for a raw st_mode.
func setMode(meta map[string]any, mode uint32) {
	meta["mode"] = fmt.Sprintf("%o", mode)
	meta["mode_byte"] = int(mode)
	meta["executable"] = mode&0o111 != 0
}
