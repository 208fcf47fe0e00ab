package backend

import "github.com/charmbracelet/log"

// Log writes utterances to a logger instead of speaking them.
type Log struct {
	logger *log.Logger
}

func NewLog(l *log.Logger) *Log {
	if l == nil {
		l = log.Default()
	}
	return &Log{logger: l.WithPrefix("speech")}
}

func (b *Log) Name() string { return NameLog }

func (b *Log) Speak(text string, interrupt bool) error {
	b.logger.Info(text, "interrupt", interrupt)
	return nil
}
