package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/watchfilter/internal/config"
	"github.com/roach88/watchfilter/internal/testutil"
	"github.com/roach88/watchfilter/internal/value"
)

func newTestRepl(t *testing.T) (*repl, *bytes.Buffer) {
	t.Helper()

	logger, _ := testutil.NewLogger()
	out := &bytes.Buffer{}
	sess, err := newSession(config.Config{KVBackend: "sqlite"}, logger, out, out)
	require.NoError(t, err)
	t.Cleanup(func() { sess.Close() })
	return &repl{sess: sess, out: out}, out
}

func TestReplEvaluatesAgainstInput(t *testing.T) {
	r, out := newTestRepl(t)

	assert.False(t, r.exec(context.Background(), `:input {"path": "/x/y.go"}`))
	assert.False(t, r.exec(context.Background(), `.path | basename, extname`))
	assert.Equal(t, "\"y.go\"\n\".go\"\n", out.String())

	out.Reset()
	r.exec(context.Background(), ":input")
	assert.Equal(t, "{\"path\":\"/x/y.go\"}\n", out.String())
}

func TestReplKVPersistsBetweenLines(t *testing.T) {
	r, out := newTestRepl(t)

	r.exec(context.Background(), `:kv`)
	assert.Equal(t, "(empty)\n", out.String())

	out.Reset()
	r.exec(context.Background(), `{"n": 1} | kv_store("b")`)
	r.exec(context.Background(), `2 | kv_store("a")`)
	r.exec(context.Background(), `kv_fetch("b").n`)
	assert.Equal(t, "{\"n\":1}\n2\n1\n", out.String())

	out.Reset()
	r.exec(context.Background(), `:kv`)
	assert.Equal(t, "a = 2\nb = {\"n\":1}\n", out.String())
}

func TestReplErrors(t *testing.T) {
	r, out := newTestRepl(t)

	r.exec(context.Background(), `.[`)
	assert.Contains(t, out.String(), "error: parse")

	out.Reset()
	r.exec(context.Background(), `1, error("boom"), 3`)
	assert.Equal(t, "1\nerror: error: boom\n", out.String())

	out.Reset()
	r.exec(context.Background(), `:input {`)
	assert.Contains(t, out.String(), "error:")

	out.Reset()
	r.exec(context.Background(), `:bogus`)
	assert.Equal(t, "unknown command :bogus. Type :help for help.\n", out.String())
}

func TestReplCommands(t *testing.T) {
	r, out := newTestRepl(t)

	r.exec(context.Background(), ":funcs")
	assert.Contains(t, out.String(), "file_read(a)\n")
	assert.Contains(t, out.String(), "kv_clear\n")

	out.Reset()
	r.exec(context.Background(), ":help")
	assert.Contains(t, out.String(), ":quit")

	assert.True(t, r.exec(context.Background(), ":quit"))
	assert.True(t, r.exec(context.Background(), "  :EXIT  "))
}

func TestParseJSON(t *testing.T) {
	v, err := parseJSON(`{"n": 18446744073709551616}`)
	require.NoError(t, err)
	m := v.(map[string]any)
	assert.Equal(t, "18446744073709551616", value.Text(m["n"]))

	_, err = parseJSON(`1 2`)
	assert.Error(t, err)
}
