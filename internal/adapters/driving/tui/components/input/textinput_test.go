package input

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewQueryInput(t *testing.T) {
	q := NewQueryInput(nil)

	assert.True(t, q.Focused())
	assert.Empty(t, q.Value())
	assert.Equal(t, 50, q.Width())
	assert.NotNil(t, q.Init())
	assert.Contains(t, q.View(), "Query:")
}

func TestQueryInput_ValueAndFocus(t *testing.T) {
	q := NewQueryInput(nil)

	q.SetValue("leave policy")
	assert.Equal(t, "leave policy", q.Value())

	q.Blur()
	assert.False(t, q.Focused())
	q.Focus()
	assert.True(t, q.Focused())

	q.Reset()
	assert.Empty(t, q.Value())
}

func TestQueryInput_SetWidth(t *testing.T) {
	q := NewQueryInput(nil)

	q.SetWidth(100)
	assert.Equal(t, 100, q.Width())
	assert.Equal(t, 88, q.textinput.Width)

	q.SetWidth(10)
	assert.Equal(t, 20, q.textinput.Width)
}
