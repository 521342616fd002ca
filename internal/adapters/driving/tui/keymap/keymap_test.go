package keymap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultKeyMap(t *testing.T) {
	km := DefaultKeyMap()

	assert.True(t, Matches("q", km.Quit))
	assert.True(t, Matches("ctrl+c", km.Quit))
	assert.True(t, Matches("tab", km.Filter))
	assert.True(t, Matches("r", km.Reload))
	assert.True(t, Matches("f", km.FailedOnly))
	assert.True(t, Matches("k", km.Up))
	assert.True(t, Matches("down", km.Down))
	assert.False(t, Matches("x", km.Quit))
}

func TestKeyMap_Help(t *testing.T) {
	km := DefaultKeyMap()

	short := km.ShortHelp()
	assert.Len(t, short, 4)
	assert.Equal(t, "tab", short[0].Help().Key)

	full := km.FullHelp()
	assert.Len(t, full, 3)
}
