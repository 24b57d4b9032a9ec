package cache

import (
	"context"
	"fmt"
	"log/slog"
)

// SafeInvalidatePattern safely invalidates cache pattern with logging
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string) {
	if err := helper.InvalidatePattern(ctx, pattern); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate cache pattern",
			"error", err,
			"pattern", pattern)
	}
}

// SafeDelete safely deletes cache keys with logging
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

// BatchInvalidate invalidates multiple patterns in batch
func BatchInvalidate(ctx context.Context, helper *CacheHelper, patterns []string) error {
	var lastErr error
	for _, pattern := range patterns {
		if err := helper.InvalidatePattern(ctx, pattern); err != nil {
			lastErr = err
			slog.ErrorContext(ctx, "Failed to invalidate pattern in batch",
				"error", err,
				"pattern", pattern)
		}
	}
	return lastErr
}

// InvalidateUserCache drops every cached view of a user after a role or
// mute write.
func InvalidateUserCache(ctx context.Context, cm *CacheManager, userName string) {
	SafeDelete(ctx, cm.User, fmt.Sprintf("name:%s", userName))
	SafeInvalidatePattern(ctx, cm.Exists, fmt.Sprintf("user:%s*", userName))
}

// InvalidateTrustCache drops a student's cached trust edge list after any
// edge write.
func InvalidateTrustCache(ctx context.Context, cm *CacheManager, student string) {
	SafeDelete(ctx, cm.Trust, fmt.Sprintf("student:%s", student))
}
