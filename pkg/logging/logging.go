// Package logging is a thin bridge between logrus and the rest of harminx.
//
// It exists so that packages outside cmd/harminx depend only on the small
// interface below rather than on logrus directly, the same role the
// teacher's pkg/logging plays between logrus and the inference scheduler.
package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is the logging interface the minimization pipeline depends on.
// Any *logrus.Logger or *logrus.Entry satisfies it. Writer returns a pipe
// that folds line-oriented writes from some other component into this
// logger's structured output.
type Logger interface {
	logrus.FieldLogger
	Writer() *io.PipeWriter
}

// New builds a logrus-backed Logger for cmd/harminx, honoring the requested
// level and format. An unrecognized level falls back to Info; an
// unrecognized format falls back to text.
func New(level, format string) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	log.SetLevel(parsed)

	if format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return log
}
