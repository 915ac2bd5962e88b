package logger

import (
	"sync"

	"github.com/rs/zerolog"
)

var registry = struct {
	mu      sync.RWMutex
	loggers map[string]*Logger
	levels  map[string]zerolog.Level
}{loggers: map[string]*Logger{}, levels: map[string]zerolog.Level{}}

// Register stores a named logger, returned as-is by Get.
func Register(name string, l *Logger) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.loggers[name] = l
}

// SetComponentLevel overrides the level of loggers later obtained by Get.
func SetComponentLevel(name string, level zerolog.Level) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.levels[name] = level
}

// Get returns the logger for a component. Unregistered names get the global
// logger tagged with the name, at the component's level if one was set.
func Get(name string) *Logger {
	registry.mu.RLock()
	l, ok := registry.loggers[name]
	lvl, hasLevel := registry.levels[name]
	registry.mu.RUnlock()
	if ok {
		return l
	}
	l = GetGlobalLogger().WithComponent(name)
	if hasLevel {
		l = l.WithLevel(lvl)
	}
	return l
}

// Reset drops registered loggers and level overrides.
func Reset() {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.loggers = map[string]*Logger{}
	registry.levels = map[string]zerolog.Level{}
}
