package handlers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStaleTokenSweepQueryBindsInterval(t *testing.T) {
	// The interval is a bind parameter, never spliced into the statement.
	assert.Contains(t, staleTokenSweepQuery, "$1::interval")
	assert.False(t, strings.Contains(staleTokenSweepQuery, staleTokenAge))
}
