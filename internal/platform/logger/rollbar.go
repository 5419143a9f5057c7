package logger

import (
	"errors"
	"strings"

	"github.com/rollbar/rollbar-go"
)

const (
	LevelError    = "error"
	LevelCritical = "critical"
)

// Reporter receives error-level records for out-of-band reporting.
type Reporter interface {
	Report(level, msg string, fields map[string]interface{})
}

type RollbarConfig struct {
	Token       string
	Environment string
	CodeVersion string
	ServerHost  string
}

type rollbarReporter struct{}

// NewRollbarReporter configures the global rollbar client. It returns nil
// when no token is set so callers can pass the result to WithReporter as is.
func NewRollbarReporter(cfg RollbarConfig) Reporter {
	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil
	}
	rollbar.SetToken(token)
	rollbar.SetEnvironment(strings.TrimSpace(cfg.Environment))
	if v := strings.TrimSpace(cfg.CodeVersion); v != "" {
		rollbar.SetCodeVersion(v)
	}
	if h := strings.TrimSpace(cfg.ServerHost); h != "" {
		rollbar.SetServerHost(h)
	}
	rollbar.SetEnabled(true)
	return rollbarReporter{}
}

func (rollbarReporter) Report(level, msg string, fields map[string]interface{}) {
	var cause error
	if e, ok := fields["error"].(error); ok {
		cause = e
		delete(fields, "error")
	} else {
		cause = errors.New(msg)
	}
	extras := map[string]interface{}{"message": msg}
	for k, v := range fields {
		extras[k] = v
	}
	switch level {
	case LevelCritical:
		rollbar.Critical(cause, extras)
	default:
		rollbar.Error(cause, extras)
	}
}

// FlushReporter waits for queued rollbar items to be sent.
func FlushReporter() {
	rollbar.Wait()
}
