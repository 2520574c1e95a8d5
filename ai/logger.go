// logger.go logs every model interaction at debug level.
//
// Message bodies are truncated; the system directive is logged by size
// only since it is the same on every request.
package ai

import (
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/DachengChen/chatdb/applog"
)

const maxLoggedContent = 2000

func aiLog() *zap.Logger {
	return applog.Named("ai")
}

// LogAIRequest logs an outgoing conversation.
func LogAIRequest(operation, provider string, messages []Message) {
	log := aiLog()
	if ce := log.Check(zap.DebugLevel, "ai request"); ce != nil {
		fields := []zap.Field{
			zap.String("op", operation),
			zap.String("provider", provider),
			zap.Int("messages", len(messages)),
		}
		for i, m := range messages {
			content := m.Content
			if m.Role == RoleSystem {
				fields = append(fields, zap.Int("system_len", len(content)))
				continue
			}
			fields = append(fields, zap.Dict("m"+strconv.Itoa(i),
				zap.String("role", m.Role),
				zap.String("content", truncate(content, maxLoggedContent)),
			))
		}
		ce.Write(fields...)
	}
}

// LogAIResponse logs the aggregated reply or the error.
func LogAIResponse(operation, response string, took time.Duration, err error) {
	log := aiLog()
	if err != nil {
		log.Warn("ai response failed",
			zap.String("op", operation),
			zap.Duration("took", took),
			zap.Error(err))
		return
	}
	log.Debug("ai response",
		zap.String("op", operation),
		zap.Duration("took", took),
		zap.Int("len", len(response)),
		zap.String("content", truncate(response, maxLoggedContent)))
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
