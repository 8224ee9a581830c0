// Package log provides Tempo's structured logging facade.
//
// The package exposes a small Logger interface with leveled methods and a
// Field type for structured context. Internally it is backed by the standard
// library's slog via a bridge handler that feeds our formatter/output
// pipeline, so slog-aware libraries and our own code produce consistent
// output.
//
// Quick start:
//
//	l := log.NewLogger(
//	    log.WithLevel(log.InfoLevel),
//	    log.WithFormatter(&log.TextFormatter{}),
//	    log.WithOutput(log.NewConsoleOutput()),
//	)
//	l = l.With(log.Component("lines"))
//	l.Info("line created", log.Str("line", "orders"), log.Int64("delay_ms", 500))
//
// Use ApplyConfig to build a logger from a declarative Config (level plus
// text or json format), and RedirectStdLog to capture stdlib log output from
// dependencies such as Pebble.
package log
