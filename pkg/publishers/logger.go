package publishers

import "github.com/samvad-hq/samvad-news-search/internal/logger"

// Logger is the structured logging surface publishers rely on.
type Logger = logger.Logger

func ensureLogger(log Logger) Logger {
	return logger.Ensure(log)
}
