// Package logger provides structured logging on top of zerolog.
//
// Loggers are cheap to derive: WithComponent and WithFields return new
// loggers sharing the same output. A process-wide logger is configured with
// Init and named component loggers are handed out by Get.
//
//	logger.Init(logger.Config{Level: "debug", Format: "console"})
//	log := logger.Get("httpclient")
//	log.Info("exchange opened", logger.Fields("url", u, "method", m))
package logger
