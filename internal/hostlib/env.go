package hostlib

import (
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/roach88/watchfilter/internal/kv"
	"github.com/roach88/watchfilter/internal/native"
)

// Env is what the host functions close over.
type Env struct {
	// Logger receives log() output and environmental error reports.
	// Defaults to slog.Default().
	Logger *slog.Logger

	// Stdout receives printout output. Defaults to os.Stdout.
	Stdout io.Writer

	// Stderr receives printerr output. Defaults to os.Stderr.
	Stderr io.Writer

	// Store backs kv_clear, kv_store and kv_fetch. Defaults to kv.Shared().
	Store *kv.Store
}

// withDefaults fills unset fields and serializes the output writers.
func (e Env) withDefaults() Env {
	if e.Logger == nil {
		e.Logger = slog.Default()
	}
	if e.Stdout == nil {
		e.Stdout = os.Stdout
	}
	if e.Stderr == nil {
		e.Stderr = os.Stderr
	}
	if e.Store == nil {
		e.Store = kv.Shared()
	}
	e.Stdout = &lockedWriter{w: e.Stdout}
	e.Stderr = &lockedWriter{w: e.Stderr}
	return e
}

// lockedWriter keeps lines from concurrent evaluations whole.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

// Funcs returns every host function bound to env.
func Funcs(env Env) []native.Func {
	env = env.withDefaults()
	var fs []native.Func
	fs = append(fs, outputFuncs(env)...)
	fs = append(fs, kvFuncs(env)...)
	fs = append(fs, fileFuncs(env)...)
	return fs
}

// Register adds every host function bound to env to r.
func Register(r *native.Registry, env Env) error {
	for _, f := range Funcs(env) {
		if err := r.Register(f); err != nil {
			return err
		}
	}
	return nil
}
