package plaintext

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weave-lab/weave-chatbot-reference/internal/core/domain"
)

func TestNormaliser_Metadata(t *testing.T) {
	n := New()
	assert.Equal(t, "plaintext", n.Format())
	assert.Equal(t, []string{".txt", ".text"}, n.Extensions())
}

func TestNormalise_LineEndings(t *testing.T) {
	result, err := New().Normalise(context.Background(), []byte("one\r\ntwo\rthree\n"))
	require.NoError(t, err)

	assert.Equal(t, "one\ntwo\nthree\n", result.Content)
	assert.Empty(t, result.Title)
}

func TestNormalise_KeepsHashLines(t *testing.T) {
	result, err := New().Normalise(context.Background(), []byte("# not parsed\nbody"))
	require.NoError(t, err)

	assert.Equal(t, "# not parsed\nbody", result.Content)
	assert.Empty(t, result.Title)
}

func TestNormalise_InvalidUTF8(t *testing.T) {
	_, err := New().Normalise(context.Background(), []byte{0xc3, 0x28})
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}
