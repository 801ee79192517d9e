package authority

import (
	"fmt"
	"net/http"
	"time"

	"monedero/internal/client"
	"monedero/internal/config"
	"monedero/internal/logger"
)

// New builds the authority the configuration asks for. The remote backend
// talks to the hosted API; the local backend keeps everything in a SQLite
// file for demo/offline use.
func New(cfg *config.Config) (Authority, error) {
	switch cfg.DataBackend {
	case config.BackendRemote:
		api := client.New(cfg.APIBaseURL, cfg.APIToken, &http.Client{Timeout: 15 * time.Second})
		logger.Get().Infow("Using remote backend", "base_url", cfg.APIBaseURL)
		return NewRemote(api), nil

	case config.BackendLocal:
		authority, err := NewLocal(cfg.LocalDBPath)
		if err != nil {
			return nil, fmt.Errorf("initializing local backend: %w", err)
		}
		logger.Get().Infow("Using local demo backend", "db_path", cfg.LocalDBPath)
		return authority, nil

	default:
		return nil, fmt.Errorf("invalid data backend: %s", cfg.DataBackend)
	}
}
