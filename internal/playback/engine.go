package playback

import (
	"log/slog"
	"sync"

	"lingocast/internal/logging"
)

// logEngine is a headless playback surface. The daemon runs without a real
// player attached; embedders supply their own Engine.
type logEngine struct {
	logger *slog.Logger

	mu      sync.Mutex
	loaded  string
	caption string
}

// NewLogEngine returns an Engine that records loads and caption state and
// logs each operation.
func NewLogEngine(logger *slog.Logger) Engine {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &logEngine{logger: logging.NewComponentLogger(logger, "engine")}
}

func (e *logEngine) Load(uri string) error {
	e.mu.Lock()
	e.loaded = uri
	e.mu.Unlock()
	e.logger.Info("media loaded", logging.String("uri", uri))
	return nil
}

func (e *logEngine) Unload() error {
	e.mu.Lock()
	e.loaded = ""
	e.caption = ""
	e.mu.Unlock()
	e.logger.Info("media unloaded")
	return nil
}

func (e *logEngine) ShowCaption(language string) error {
	e.mu.Lock()
	e.caption = language
	e.mu.Unlock()
	e.logger.Info("caption shown", logging.String(logging.FieldLanguage, language))
	return nil
}

func (e *logEngine) HideCaptions() error {
	e.mu.Lock()
	e.caption = ""
	e.mu.Unlock()
	e.logger.Info("captions hidden")
	return nil
}
