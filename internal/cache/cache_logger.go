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

// InvalidateTimetableCache invalidates all timetable caches touched by a slot change
func InvalidateTimetableCache(ctx context.Context, cm *CacheManager, teacherID uint) {
	SafeInvalidatePattern(ctx, cm.Timetable, "list:*")
	SafeInvalidatePattern(ctx, cm.Timetable, fmt.Sprintf("teacher:%d:*", teacherID))
	SafeInvalidatePattern(ctx, cm.Stats, "dashboard:*")
}

// InvalidateClassCache invalidates class caches after roster or metadata changes
func InvalidateClassCache(ctx context.Context, cm *CacheManager, classID uint, teacherID uint) {
	SafeDelete(ctx, cm.Class,
		fmt.Sprintf("id:%d", classID),
		fmt.Sprintf("roster:%d", classID))
	SafeInvalidatePattern(ctx, cm.Class, fmt.Sprintf("teacher:%d:*", teacherID))
	SafeInvalidatePattern(ctx, cm.Class, "list:*")
	SafeInvalidatePattern(ctx, cm.Stats, "dashboard:*")
}

// InvalidateUserCache invalidates cached lookups for a single user
func InvalidateUserCache(ctx context.Context, cm *CacheManager, userID uint) {
	SafeDelete(ctx, cm.User, fmt.Sprintf("id:%d", userID))
	SafeInvalidatePattern(ctx, cm.User, "list:*")
}
