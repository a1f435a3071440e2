package cmd

import (
	"fmt"
	"strings"

	"github.com/dukex/fluxrt/pkg/persistence"
	"github.com/dukex/fluxrt/pkg/persistence/file"
	"github.com/dukex/fluxrt/pkg/persistence/redis"
)

var supportedPersistenceProviders = []string{"file", "redis", "rediss"}

// NewPersistence picks the store from the scheme of databaseURL; anything else is a file path.
func NewPersistence(databaseURL string) (persistence.Persistence, error) {
	switch parsePersistenceProvider(databaseURL) {
	case "redis", "rediss":
		store, err := redis.NewPersistence(databaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to create redis persistence: %w", err)
		}

		return store, nil
	default:
		return file.NewPersistence(databaseURL, persistence.FormatJSON), nil
	}
}

func parsePersistenceProvider(databaseURL string) string {
	provider, _, found := strings.Cut(databaseURL, "://")
	if !found {
		return "file"
	}

	for _, supported := range supportedPersistenceProviders {
		if provider == supported {
			return provider
		}
	}

	return "file"
}
