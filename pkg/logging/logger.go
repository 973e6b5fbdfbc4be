package logging

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/term"
)

// NewLogger builds the process logger with the colored formatter. An unknown
// level falls back to info and is reported once the logger exists.
func NewLogger(level string) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)
	formatter := NewColoredJSONFormatter()
	formatter.DisableColors = !term.IsTerminal(int(os.Stdout.Fd()))
	log.SetFormatter(formatter)

	parsed, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		log.SetLevel(logrus.InfoLevel)
		if level != "" {
			log.WithFields(logrus.Fields{
				"attempted_level": level,
				"default_level":   "INFO",
			}).Warn("Invalid log level specified, defaulting to INFO")
		}
		return log
	}

	log.SetLevel(parsed)
	return log
}
