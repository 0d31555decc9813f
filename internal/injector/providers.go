package injector

import (
	"fmt"

	"github.com/zeusync/gamestate/internal/config"
	"github.com/zeusync/gamestate/internal/core/observability/log"
)

// ProvideLogger builds the process logger from cfg.Logging.
func ProvideLogger(cfg *config.Config) (*log.Logger, error) {
	level, err := log.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	logger, err := log.NewWithFormat(level, cfg.Logging.Format)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return logger, nil
}
