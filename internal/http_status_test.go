package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsHTTPErrorRecoverable(t *testing.T) {
	for _, status := range []int{400, 408, 429, 500, 502, 503} {
		assert.True(t, IsHTTPErrorRecoverable(status), "status %d", status)
	}
	for _, status := range []int{401, 403, 404, 405, 413} {
		assert.False(t, IsHTTPErrorRecoverable(status), "status %d", status)
	}
}

func TestHTTPErrorDescription(t *testing.T) {
	assert.Equal(t, "HTTP error 503", HTTPErrorDescription(503))
	assert.Equal(t, "HTTP error 401 (invalid write key)", HTTPErrorDescription(401))
	assert.Equal(t, "HTTP error 403 (invalid write key)", HTTPErrorDescription(403))
}
