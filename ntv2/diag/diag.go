// Package diag provides per-category diagnostic loggers (Routing,
// AutoCirc, Anc, Audio, Capture, Playout), each independently leveled,
// on top of github.com/charmbracelet/log.
package diag

import (
	"sync"

	"github.com/charmbracelet/log"
)

// Category names one of this package's independently-enabled diagnostic
// streams.
type Category string

const (
	Routing  Category = "Routing"
	AutoCirc Category = "AutoCirc"
	Anc      Category = "Anc"
	Audio    Category = "Audio"
	Capture  Category = "Capture"
	Playout  Category = "Playout"
)

var (
	mu      sync.Mutex
	loggers = make(map[Category]*log.Logger)
)

func loggerLocked(c Category) *log.Logger {
	l, ok := loggers[c]
	if !ok {
		l = log.Default().With("category", string(c))
		loggers[c] = l
	}
	return l
}

// For returns the sub-logger for c, creating it on first use. Every
// call for the same Category returns a logger sharing that category's
// level, so SetLevel affects every caller that already holds one.
func For(c Category) *log.Logger {
	mu.Lock()
	defer mu.Unlock()
	return loggerLocked(c)
}

// SetLevel raises or lowers one category's log level independently of
// the others.
func SetLevel(c Category, level log.Level) {
	mu.Lock()
	defer mu.Unlock()
	loggerLocked(c).SetLevel(level)
}
