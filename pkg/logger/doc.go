// Package logger builds the service's *slog.Logger.
//
// New assembles a JSON or text handler from functional options and wraps it in
// LogHandlerDecorator, which copies request-scoped values (such as the chi
// request id) from context.Context into every record. The attribute helpers in
// attr.go keep keys identical across packages, so dashboards can filter on
// user_id, tier, limit or counter no matter which component logged the line.
//
//	log := logger.New(
//	    logger.WithEnvironment(cfg.Env, "prepdeck-api"),
//	    logger.WithContextExtractors(logger.RequestIDExtractor()),
//	)
//	log.InfoContext(ctx, "quota denied",
//	    logger.UserID(userID),
//	    logger.Tier("FREE"),
//	    logger.Limit("interviews"),
//	)
package logger
