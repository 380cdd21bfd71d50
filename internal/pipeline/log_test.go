package pipeline

import (
	"bytes"
	"log/slog"
)

func slogText(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
