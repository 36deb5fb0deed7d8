// Package logger provides slog.Logger construction with environment
// presets, context attribute injection, and attribute helpers shared by
// the notification engine's components.
//
// # Usage
//
//	log := logger.New(
//	    logger.WithProduction("notifykit"),
//	    logger.WithContextValue("user_id", userIDContextKey),
//	)
//	logger.SetAsDefault(log)
//
// Components accept a *slog.Logger via their options and fall back to
// slog.Default(), so configuring the default logger once is enough for
// most applications.
package logger
