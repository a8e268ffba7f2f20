package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/roach88/watchfilter/internal/config"
	"github.com/roach88/watchfilter/internal/filter"
	"github.com/roach88/watchfilter/internal/hostlib"
	"github.com/roach88/watchfilter/internal/kv"
	"github.com/roach88/watchfilter/internal/native"
)

// session is the host library bound to one command invocation.
type session struct {
	defs  *filter.Definitions
	store *kv.Store
	owned bool // store is closed with the session
}

// newSession loads the std, host and user layers. The memory backend is
// the process-wide store; sqlite opens a private database.
func newSession(cfg config.Config, logger *slog.Logger, stdout, stderr io.Writer) (*session, error) {
	s := &session{}
	switch cfg.KVBackend {
	case "", kv.BackendMemory:
		s.store = kv.Shared()
	default:
		store, err := kv.Open(cfg.KVBackend)
		if err != nil {
			return nil, err
		}
		s.store, s.owned = store, true
	}

	defs, err := filter.LoadStd()
	if err != nil {
		s.Close()
		return nil, err
	}
	r := native.NewRegistry()
	if err := hostlib.Register(r, hostlib.Env{
		Logger: logger,
		Stdout: stdout,
		Stderr: stderr,
		Store:  s.store,
	}); err != nil {
		s.Close()
		return nil, err
	}
	if err := defs.LoadHost(r); err != nil {
		s.Close()
		return nil, err
	}

	if cfg.Filter != "" {
		src, err := os.ReadFile(cfg.Filter)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("read filter library: %w", err)
		}
		if err := defs.LoadLibrary("user", string(src)); err != nil {
			s.Close()
			return nil, err
		}
		logger.Debug("loaded filter library", "path", cfg.Filter)
	}

	s.defs = defs
	return s, nil
}

// Close releases a privately opened store.
func (s *session) Close() error {
	if s.owned {
		return s.store.Close()
	}
	return nil
}
