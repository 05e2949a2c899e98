package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSessionKey(t *testing.T) {
	assert.Equal(t, "access_token:42:abc-123", sessionKey(42, "abc-123"))
}
