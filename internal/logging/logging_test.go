package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInitialize(t *testing.T) {
	assert.NoError(t, Initialize(Tint, "info"))
	assert.NoError(t, Initialize(Text, "debug"))
	assert.NoError(t, Initialize(JSON, "warn"))
}

func TestInitializeRejectsBadInput(t *testing.T) {
	assert.Error(t, Initialize("syslog", "info"))
	assert.Error(t, Initialize(Text, "loud"))
}
