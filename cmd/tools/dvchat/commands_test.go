package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ann82/dv-assistant-sub003/internal/service/assistant"
)

func withEngine(t *testing.T) {
	t.Helper()
	engine := assistant.New(assistant.Config{})
	prev := engineFactory
	engineFactory = func(context.Context) (*assistant.Engine, error) { return engine, nil }
	t.Cleanup(func() { engineFactory = prev })
}

func run(t *testing.T, stdin string, args ...string) string {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	require.NoError(t, cmd.ExecuteContext(context.Background()))
	return out.String()
}

func TestClassifyCommand(t *testing.T) {
	withEngine(t)
	out := run(t, "", "classify", "I", "need", "a", "lawyer")
	assert.True(t, strings.HasPrefix(out, "legal_services"))
}

func TestRewriteCommand(t *testing.T) {
	withEngine(t)
	out := run(t, "", "rewrite", "I need a shelter near Austin")
	assert.Equal(t, "domestic violence shelter near Austin site:org OR site:gov -filetype:pdf\n", out)

	out = run(t, "", "rewrite", "--intent", "legal_services", "help in Denver")
	assert.Equal(t, "help in Denver legal aid domestic violence\n", out)
}

func TestChatCommand(t *testing.T) {
	withEngine(t)
	out := run(t, "tell me a joke\n/context\n/reset\n/context\ngoodbye\nnever read\n", "chat", "--session", "s1")

	assert.Contains(t, out, "[off_topic/redirect]")
	assert.Contains(t, out, `"lastQuery": "tell me a joke"`)
	assert.Contains(t, out, "context cleared")
	assert.Contains(t, out, "no context")
	assert.Contains(t, out, "[end_conversation/goodbye]")
	assert.NotContains(t, out, "never read")
}
