package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBots(t *testing.T) {
	n, names, err := parseBots("")
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Nil(t, names)

	n, names, err = parseBots("3")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Nil(t, names, "a bare count uses the default roster")

	n, names, err = parseBots("Ann, Bo ,Cleo")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []string{"Ann", "Bo", "Cleo"}, names)

	n, names, err = parseBots("Solo")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"Solo"}, names)

	_, _, err = parseBots("0")
	assert.Error(t, err)

	_, _, err = parseBots("-2")
	assert.Error(t, err)

	_, _, err = parseBots("Ann,,Cleo")
	assert.Error(t, err)
}
