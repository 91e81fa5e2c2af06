package theme

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetTheme(t *testing.T) {
	t.Parallel()

	for _, name := range Names() {
		assert.Equal(t, name, GetTheme(name).Name)
	}
	assert.Equal(t, "catppuccin-mocha", GetTheme("catppuccin").Name)
	assert.Equal(t, "default", GetTheme("no-such-theme").Name)
}
