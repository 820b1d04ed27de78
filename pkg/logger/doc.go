// Package logger builds *slog.Logger values with functional options, helper
// attribute constructors and injection of values stored in context.Context.
//
// New is the single factory. Options select the output format (json, text or
// console), the minimum level, static attributes and ContextExtractor
// callbacks that run on every Handle call.
//
// # Architecture
//
// NewHandler picks the concrete slog.Handler for a Format: slog's JSON and
// text handlers, or a charmbracelet/log logger for FormatConsole. New wraps
// it with LogHandlerDecorator, which runs the registered extractors before
// delegating.
//
// Attribute helpers in attr.go (Machine, State, EventType, EventID, Target,
// Error and friends) keep key names consistent between the state machine
// runtime and the code that embeds it.
//
// # Usage
//
//	log := logger.New(
//	    logger.WithDevelopment("authflow"),
//	    logger.WithContextExtractors(logger.TriggerExtractor()),
//	)
//	logger.SetAsDefault(log)
//
//	log.DebugContext(ctx, "transition committed",
//	    logger.Machine("Session"),
//	    logger.Transition("anonymous", "authenticating"),
//	)
//
// # Configuration
//
//   - WithDevelopment / WithStaging / WithProduction / WithEnvironment: presets.
//   - WithFormat / WithTextFormatter / WithJSONFormatter / WithConsoleFormatter.
//   - WithLevel / WithLevelName.
//   - WithAttr for static attributes.
//   - WithContextExtractors / WithContextValue for context-derived attributes.
//
// # Error Handling
//
// Error and Errors return an empty Attr for nil errors, so
//
//	log.Info("action settled", logger.Error(err))
//
// needs no nil check. WithFormat panics on an unknown format.
package logger
