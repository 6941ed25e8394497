package log

import (
	"fmt"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// FileConfig configures a [FileHandler].
type FileConfig struct {
	// Path is the log file. Its directory is created if needed.
	Path string
	// Level is both the handler's threshold and the level channel output is
	// recorded at. Empty means [LevelInfo].
	Level Level
	// MaxSizeMB is the size in megabytes at which the file is rotated.
	// Zero means 100.
	MaxSizeMB int
	// MaxBackups is the number of rotated files to keep. Zero keeps all.
	MaxBackups int
	// MaxAgeDays removes rotated files older than this. Zero keeps all.
	MaxAgeDays int
	// Compress gzips rotated files.
	Compress bool
}

// FileHandler is a [SlogHandler] that writes [FormatJSON] lines to a
// size-rotated file. Call [FileHandler.Close] when done.
//
// Create instances with [NewFileHandler].
type FileHandler struct {
	*SlogHandler

	out *lumberjack.Logger
	mu  sync.Mutex
}

// NewFileHandler creates a [FileHandler]. The file is opened on first write.
func NewFileHandler(cfg FileConfig) *FileHandler {
	lvl := cfg.Level
	if lvl == "" {
		lvl = LevelInfo
	}

	out := &lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}

	return &FileHandler{
		SlogHandler: NewSlogHandler(NewHandler(out, lvl, FormatJSON), WithLevel(lvl.Slog())),
		out:         out,
	}
}

// Rotate closes the current file and starts a new one.
func (h *FileHandler) Rotate() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	err := h.out.Rotate()
	if err != nil {
		return fmt.Errorf("rotate log file: %w", err)
	}

	return nil
}

// Close closes the underlying file. Later writes reopen it.
func (h *FileHandler) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	err := h.out.Close()
	if err != nil {
		return fmt.Errorf("close log file: %w", err)
	}

	return nil
}
