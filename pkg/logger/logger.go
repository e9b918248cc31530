// BotBridge - Bot Framework channel connector
// License: MIT

package logger

import (
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	charmlog "github.com/charmbracelet/log"
)

var (
	mu  sync.RWMutex
	std = charmlog.NewWithOptions(os.Stderr, charmlog.Options{
		ReportTimestamp: true,
		Level:           charmlog.InfoLevel,
	})
)

// Init configures the process-wide logger. Level is one of
// debug/info/warn/error, format is text or json.
func Init(level, format string) {
	opts := charmlog.Options{
		ReportTimestamp: true,
		Level:           parseLevel(level),
	}
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		opts.Formatter = charmlog.JSONFormatter
	}

	mu.Lock()
	std = charmlog.NewWithOptions(os.Stderr, opts)
	mu.Unlock()
}

// SetOutput redirects log output. Used by tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	std.SetOutput(w)
	mu.Unlock()
}

func parseLevel(level string) charmlog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return charmlog.DebugLevel
	case "warn", "warning":
		return charmlog.WarnLevel
	case "error":
		return charmlog.ErrorLevel
	default:
		return charmlog.InfoLevel
	}
}

func DebugC(component, msg string) {
	log(charmlog.DebugLevel, component, msg, nil)
}

func DebugCF(component, msg string, fields map[string]interface{}) {
	log(charmlog.DebugLevel, component, msg, fields)
}

func InfoC(component, msg string) {
	log(charmlog.InfoLevel, component, msg, nil)
}

func InfoCF(component, msg string, fields map[string]interface{}) {
	log(charmlog.InfoLevel, component, msg, fields)
}

func WarnC(component, msg string) {
	log(charmlog.WarnLevel, component, msg, nil)
}

func WarnCF(component, msg string, fields map[string]interface{}) {
	log(charmlog.WarnLevel, component, msg, fields)
}

func ErrorC(component, msg string) {
	log(charmlog.ErrorLevel, component, msg, nil)
}

func ErrorCF(component, msg string, fields map[string]interface{}) {
	log(charmlog.ErrorLevel, component, msg, fields)
}

func log(level charmlog.Level, component, msg string, fields map[string]interface{}) {
	keyvals := make([]interface{}, 0, 2+2*len(fields))
	keyvals = append(keyvals, "component", component)

	// Sorted keys keep the output stable across runs.
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		keyvals = append(keyvals, k, fields[k])
	}

	mu.RLock()
	defer mu.RUnlock()
	std.Log(level, msg, keyvals...)
}
