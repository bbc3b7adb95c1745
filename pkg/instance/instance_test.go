package instance

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetIDPrefersEnv(t *testing.T) {
	t.Setenv(idEnvKey, "publisher-3")
	assert.Equal(t, "publisher-3", GetID("local"))
}

func TestGetIDFallsBackToHostname(t *testing.T) {
	t.Setenv(idEnvKey, "")
	assert.NotEmpty(t, GetID("local"))
}
