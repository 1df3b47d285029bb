package logging

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// BotLogger adapts zerolog to the tgbotapi.BotLogger interface
type BotLogger struct {
	logger zerolog.Logger
}

// NewBotLogger wraps the given logger
func NewBotLogger(logger zerolog.Logger) *BotLogger {
	return &BotLogger{logger: logger}
}

// Println implements tgbotapi.BotLogger
func (l *BotLogger) Println(v ...interface{}) {
	l.logger.Warn().Msg(strings.TrimSuffix(fmt.Sprintln(v...), "\n"))
}

// Printf implements tgbotapi.BotLogger
func (l *BotLogger) Printf(format string, v ...interface{}) {
	l.logger.Warn().Msg(strings.TrimSuffix(fmt.Sprintf(format, v...), "\n"))
}
