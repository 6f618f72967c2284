package loom

import (
	"io"
	"log/slog"
)

// discardLogger silences expected diagnostics in tests that exercise
// panic and desync paths.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
