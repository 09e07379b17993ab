package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMCPServeCmd_PortFlag(t *testing.T) {
	flag := mcpServeCmd.Flags().Lookup("port")
	require.NotNil(t, flag)
	assert.Equal(t, "p", flag.Shorthand)
	assert.Equal(t, "0", flag.DefValue)
}

func TestMCPServeCmd_ProviderUnavailable(t *testing.T) {
	b := newMockBackend()
	b.embedErr = errors.New("provider down")

	_, err := runCLI(t, b, "mcp", "serve")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "provider down")
}
