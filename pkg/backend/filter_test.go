package backend

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFilter(t *testing.T) {
	f, err := ParseFilter("installed;~devel")
	require.NoError(t, err)
	assert.Equal(t, FilterInstalled|FilterNotDevel, f)
	assert.Equal(t, "installed;not-devel", f.String())

	f, err = ParseFilter("none")
	require.NoError(t, err)
	assert.Equal(t, FilterNone, f)
	assert.Equal(t, "none", f.String())

	f, err = ParseFilter("gui, not-free")
	require.NoError(t, err)
	assert.Equal(t, FilterGUI|FilterNotFree, f)

	_, err = ParseFilter("shiny")
	assert.True(t, errors.Is(err, ErrInvalidFilter))
}

func TestFilterValidate(t *testing.T) {
	assert.NoError(t, (FilterInstalled | FilterNotDevel).Validate())
	assert.NoError(t, FilterNone.Validate())

	err := (FilterInstalled | FilterNotInstalled).Validate()
	assert.True(t, errors.Is(err, ErrContradictoryFilter))

	err = (FilterGUI | FilterFree | FilterNotGUI).Validate()
	assert.True(t, errors.Is(err, ErrContradictoryFilter))
}

func TestFilterMatch(t *testing.T) {
	installedDevel := Attributes{Installed: true, Devel: true, Free: true}

	assert.True(t, FilterNone.Match(installedDevel))
	assert.True(t, FilterInstalled.Match(installedDevel))
	assert.False(t, FilterNotInstalled.Match(installedDevel))
	assert.False(t, (FilterInstalled | FilterNotDevel).Match(installedDevel))
	assert.True(t, (FilterDevel | FilterFree).Match(installedDevel))
	assert.False(t, FilterGUI.Match(installedDevel))
	assert.True(t, FilterNotCollections.Match(installedDevel))
}

func TestFilterHas(t *testing.T) {
	f := FilterInstalled | FilterGUI
	assert.True(t, f.Has(FilterGUI))
	assert.True(t, f.Has(FilterInstalled|FilterGUI))
	assert.False(t, f.Has(FilterDevel))
	assert.False(t, f.Has(FilterNone))
}
