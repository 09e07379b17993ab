package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weave-lab/weave-chatbot-reference/internal/adapters/driving/tui"
	"github.com/weave-lab/weave-chatbot-reference/internal/adapters/driving/tui/messages"
)

func stubTUI(t *testing.T, run func(app *tui.App) error) {
	t.Helper()
	orig := startTUI
	startTUI = run
	t.Cleanup(func() { startTUI = orig })
}

func TestTUICmd_CollectionFlag(t *testing.T) {
	flag := tuiCmd.Flags().Lookup("collection")
	require.NotNil(t, flag)
	assert.Equal(t, "c", flag.Shorthand)
	assert.Empty(t, flag.DefValue)
}

func TestTUICmd_StartsOnPicker(t *testing.T) {
	var got *tui.App
	stubTUI(t, func(app *tui.App) error {
		got = app
		return nil
	})

	_, err := runCLI(t, newMockBackend(), "tui")

	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, messages.ViewCollections, got.CurrentView())
}

func TestTUICmd_OpensCollection(t *testing.T) {
	var got *tui.App
	stubTUI(t, func(app *tui.App) error {
		got = app
		return nil
	})

	_, err := runCLI(t, newMockBackend(), "tui", "-c", "handbook")

	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, messages.ViewSearch, got.CurrentView())
	assert.Equal(t, "handbook", got.Collection())
}

func TestTUICmd_RunError(t *testing.T) {
	stubTUI(t, func(*tui.App) error { return errors.New("no tty") })

	_, err := runCLI(t, newMockBackend(), "tui")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "TUI error: no tty")
}

func TestTUICmd_ProviderUnavailable(t *testing.T) {
	stubTUI(t, func(*tui.App) error { return nil })
	b := newMockBackend()
	b.embedErr = errors.New("provider down")

	_, err := runCLI(t, b, "tui")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "provider down")
}
