package prefs

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOnboardingFlag(t *testing.T) {
	f := NewFile(filepath.Join(t.TempDir(), "preferences.json"))

	p, err := f.Load()
	require.NoError(t, err)
	assert.False(t, p.OnboardingComplete)

	require.NoError(t, f.SetOnboardingComplete(true))
	p, err = f.Load()
	require.NoError(t, err)
	assert.True(t, p.OnboardingComplete)
}
