package instance

import (
	"os"

	"github.com/hangarops/hangar-backend/pkg/env"
)

const idEnvKey = "HANGAR_INSTANCE_ID"

// GetID identifies this process in logs: HANGAR_INSTANCE_ID, then the hostname,
// then the fallback.
func GetID(fallback string) string {
	if id := env.Get(idEnvKey, ""); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return fallback
}
