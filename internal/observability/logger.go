package observability

import (
	"io"
	"os"

	log "github.com/sirupsen/logrus"
)

// NewLogger builds a logrus logger writing to stderr.
// format is "json" or "text"; level is any logrus level name.
func NewLogger(level, format string) (*log.Logger, error) {
	return newLogger(os.Stderr, level, format)
}

func newLogger(out io.Writer, level, format string) (*log.Logger, error) {
	logger := log.New()
	logger.SetOutput(out)

	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	logger.SetLevel(lvl)

	if format == "text" {
		logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&log.JSONFormatter{})
	}
	return logger, nil
}
