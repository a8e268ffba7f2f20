package hostlib

import (
	"bufio"
	"context"
	"encoding/hex"
	"errors"
	"io"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"unicode/utf8"

	"github.com/zeebo/blake3"

	"github.com/roach88/watchfilter/internal/logging"
	"github.com/roach88/watchfilter/internal/native"
)

// HashChunkSize is the read size used by file_hash.
const HashChunkSize = 1 << 20

var chunkPool = sync.Pool{
	New: func() any {
		b := make([]byte, HashChunkSize)
		return &b
	},
}

const pathSubject = "string (path)"

func fileFuncs(env Env) []native.Func {
	log := env.Logger
	return []native.Func{
		{
			Name: "file_meta",
			Doc:  "metadata record for the path, or null",
			Run: func(_ native.Args, input any) (any, error) {
				path, err := native.Subject(input, pathSubject)
				if err != nil {
					return nil, err
				}
				meta, err := statMeta(path)
				if err != nil {
					log.Error("failed to stat file", "path", path, "error", err)
					return nil, nil
				}
				return meta, nil
			},
		},
		{
			Name: "file_size",
			Doc:  "size of the file in bytes, or null",
			Run: func(_ native.Args, input any) (any, error) {
				path, err := native.Subject(input, pathSubject)
				if err != nil {
					return nil, err
				}
				fi, err := os.Stat(path)
				if err != nil {
					log.Error("failed to stat file", "path", path, "error", err)
					return nil, nil
				}
				return int(fi.Size()), nil
			},
		},
		{
			Name:  "file_read",
			Arity: 1,
			Doc:   "up to n bytes of the file as text, or null",
			Check: checkPath,
			Run: func(args native.Args, input any) (any, error) {
				path, err := native.Subject(input, pathSubject)
				if err != nil {
					return nil, err
				}
				n, err := args.Int(0)
				if err != nil {
					return nil, err
				}
				if n < 0 {
					return nil, &native.EvalError{
						Code:    native.ErrCodeArgumentType,
						Message: "expected non-negative int but got " + strconv.Itoa(n),
					}
				}
				text, err := readText(path, n)
				if err != nil {
					log.Error("failed to read file", "path", path, "error", err)
					return nil, nil
				}
				log.Debug("read file", "path", path, "bytes", len(text))
				return text, nil
			},
		},
		{
			Name: "hash",
			Doc:  "BLAKE3 hex digest of the input string",
			Run: func(_ native.Args, input any) (any, error) {
				s, err := native.Subject(input, "string")
				if err != nil {
					return nil, err
				}
				sum := blake3.Sum256([]byte(s))
				return hex.EncodeToString(sum[:]), nil
			},
		},
		{
			Name: "file_hash",
			Doc:  "BLAKE3 hex digest of the file contents, or null",
			Run: func(_ native.Args, input any) (any, error) {
				path, err := native.Subject(input, pathSubject)
				if err != nil {
					return nil, err
				}
				bufp := chunkPool.Get().(*[]byte)
				defer chunkPool.Put(bufp)
				digest, err := hashFile(log, path, *bufp)
				if err != nil {
					log.Error("failed to hash file", "path", path, "error", err)
					return nil, nil
				}
				return digest, nil
			},
		},
	}
}

// checkPath reports a non-string path before file_read evaluates its limit.
func checkPath(input any) error {
	_, err := native.Subject(input, pathSubject)
	return err
}

// readText reads at most n bytes of path, which must be valid UTF-8.
// A multi-byte sequence cut by the limit is invalid.
func readText(path string, n int) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	b, err := io.ReadAll(io.LimitReader(bufio.NewReader(f), int64(n)))
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", errInvalidUTF8
	}
	return string(b), nil
}

var errInvalidUTF8 = errors.New("stream did not contain valid UTF-8")

// hashFile streams path through BLAKE3 using buf for every read. Any read
// error other than EOF fails the hash.
func hashFile(log *slog.Logger, path string, buf []byte) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := blake3.New()
	for {
		n, err := f.Read(buf)
		if n > 0 {
			log.Log(context.Background(), logging.LevelTrace, "read chunk", "path", path, "bytes", n)
			_, _ = h.Write(buf[:n])
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
