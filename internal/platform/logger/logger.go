package logger

import (
	"log/slog"
	"os"
)

// New returns the process-wide structured logger. Services receive it by
// injection; nothing in the tree reaches for a package-level logger.
func New() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}
