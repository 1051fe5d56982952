package fixture

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistryRejectsInvalidName(t *testing.T) {
	_, err := NewRegistry("@test/fix-package", "fix-package")
	require.ErrorIs(t, err, ErrInvalidName)
}

func TestRegistryStageAndApply(t *testing.T) {
	reg, err := NewRegistry("@test/fix-package")
	require.NoError(t, err)

	_, err = reg.Apply("@test/fix-package")
	require.ErrorIs(t, err, ErrNothingPending)

	staged, err := reg.Stage("@test/fix-package", map[string]bool{"auto_merge": true})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"auto_merge": true}, staged.Pending)
	assert.False(t, staged.Settings["auto_merge"], "staging must not change live settings")

	applied, err := reg.Apply("@test/fix-package")
	require.NoError(t, err)
	assert.True(t, applied.Settings["auto_merge"])
	assert.True(t, applied.Settings["require_signatures"])
	assert.Nil(t, applied.Pending)
}

func TestRegistryGetReturnsCopy(t *testing.T) {
	reg, err := NewRegistry("@test/fix-package")
	require.NoError(t, err)

	pkg, err := reg.Get("@test/fix-package")
	require.NoError(t, err)
	pkg.Settings["private"] = true

	again, err := reg.Get("@test/fix-package")
	require.NoError(t, err)
	assert.False(t, again.Settings["private"])
}

func TestRegistryUnknownPackage(t *testing.T) {
	reg, err := NewRegistry()
	require.NoError(t, err)

	_, err = reg.Get("@nobody/nothing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = reg.Stage("@nobody/nothing", nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegistryNamesSorted(t *testing.T) {
	reg, err := NewRegistry("@zeta/b", "@alpha/a", "@alpha/a")
	require.NoError(t, err)
	assert.Equal(t, []string{"@alpha/a", "@zeta/b"}, reg.Names())
}

func TestUpdateCommandSortsKeys(t *testing.T) {
	got := UpdateCommand("update", "@test/fix-package", map[string]bool{
		"private":    true,
		"auto_merge": false,
	})
	assert.Equal(t, "botkit repo update @test/fix-package --set auto_merge=false --set private=true", got)
	assert.Equal(t, "botkit repo update @test/fix-package", UpdateCommand("update", "@test/fix-package", nil))
}
