package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTestStatus(t *testing.T) {
	status, ok := ParseTestStatus("success")
	assert.True(t, ok)
	assert.Equal(t, TestSuccess, status)

	status, ok = ParseTestStatus("FAILURE")
	assert.True(t, ok)
	assert.Equal(t, TestFailure, status)

	status, ok = ParseTestStatus("Skipped")
	assert.True(t, ok)
	assert.Equal(t, TestSkipped, status)

	_, ok = ParseTestStatus("errored")
	assert.False(t, ok)
}

func TestInitialCleanupStatus(t *testing.T) {
	assert.Equal(t, CleanupToKeep, InitialCleanupStatus(TestSuccess))
	assert.Equal(t, CleanupWithData, InitialCleanupStatus(TestFailure))
	assert.Equal(t, CleanupWithData, InitialCleanupStatus(TestSkipped))
}
