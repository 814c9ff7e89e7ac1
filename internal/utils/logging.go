package utils

import (
	"context"
	"log/slog"
)

// DebugResult logs one checked element at debug level. Optional fields are
// only included when set.
func DebugResult(element, status string, longName, comment *string) {
	if !slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		return
	}

	attrs := []any{
		"element", element,
		"status", status,
	}

	attrs = addIf(attrs, "longName", longName)
	attrs = addIf(attrs, "comment", comment)

	slog.Debug("Element checked", attrs...)
}

func addIf[T any](attrs []any, name string, v *T) []any {
	if v != nil {
		attrs = append(attrs, name)
		attrs = append(attrs, *v)
	}

	return attrs
}
