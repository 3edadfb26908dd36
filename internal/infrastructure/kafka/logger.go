package kafka

import (
	chlog "github.com/charmbracelet/log"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/OliveiraNt/maned-mirror/internal/utils"
)

// clientLogger routes franz-go client logs to the application logger. The client's own info
// level is very chatty, so it is only enabled when the application runs at debug.
type clientLogger struct {
	cluster string
}

func newClientLogger(cluster string) kgo.Logger {
	return clientLogger{cluster: cluster}
}

func (l clientLogger) Level() kgo.LogLevel {
	if utils.Logger == nil {
		return kgo.LogLevelNone
	}
	switch utils.Logger.GetLevel() {
	case chlog.DebugLevel:
		return kgo.LogLevelInfo
	case chlog.InfoLevel, chlog.WarnLevel:
		return kgo.LogLevelWarn
	default:
		return kgo.LogLevelError
	}
}

func (l clientLogger) Log(level kgo.LogLevel, msg string, keyvals ...any) {
	if utils.Logger == nil {
		return
	}
	keyvals = append([]any{"cluster", l.cluster}, keyvals...)
	switch level {
	case kgo.LogLevelError:
		utils.Logger.Error(msg, keyvals...)
	case kgo.LogLevelWarn:
		utils.Logger.Warn(msg, keyvals...)
	case kgo.LogLevelInfo:
		utils.Logger.Info(msg, keyvals...)
	default:
		utils.Logger.Debug(msg, keyvals...)
	}
}
