//go:build !unix

package hostlib

import "io/fs"

func platformMeta(string, fs.FileInfo, map[string]any) {}
