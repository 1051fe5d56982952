package fixture

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBehavior(t *testing.T) {
	b, err := ParseBehavior([]string{"omit-modal", " Wrong-Command ", ""}, 250*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, Behavior{OmitModal: true, WrongCommand: true, LoadDelay: 250 * time.Millisecond}, b)

	_, err = ParseBehavior([]string{"explode"}, 0)
	assert.ErrorContains(t, err, "explode")
}
