package service

import (
	"context"
	"strings"

	"tarot-oracle-be/internal/constant"
	"tarot-oracle-be/internal/entity"
	"tarot-oracle-be/internal/pkg/logger"
	"tarot-oracle-be/internal/repository/memory"
	"tarot-oracle-be/internal/repository/unitofwork"
)

// normalizeUserID maps a missing id to the anonymous user.
func normalizeUserID(userID string) string {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return constant.AnonymousUserID
	}
	return userID
}

func isAnonymous(userID string) bool {
	return userID == "" || userID == constant.AnonymousUserID
}

// permissionResolver reads reading entitlements through a short-lived cache.
type permissionResolver struct {
	uowFactory unitofwork.RepositoryFactory
	cache      *memory.PermissionCache
	logger     logger.ILogger
}

func newPermissionResolver(uowFactory unitofwork.RepositoryFactory, cache *memory.PermissionCache, logger logger.ILogger) *permissionResolver {
	return &permissionResolver{
		uowFactory: uowFactory,
		cache:      cache,
		logger:     logger,
	}
}

func (r *permissionResolver) Lookup(ctx context.Context, userID string) (entity.ReadingPermissions, error) {
	if perms, ok := r.cache.Get(userID); ok {
		return perms, nil
	}
	return r.Refresh(ctx, userID)
}

// Refresh bypasses the cache and stores the fresh answer.
func (r *permissionResolver) Refresh(ctx context.Context, userID string) (entity.ReadingPermissions, error) {
	uow := r.uowFactory.NewUnitOfWork(ctx)
	perms, err := uow.OracleRepository().GetReadingPermissions(ctx, userID)
	if err != nil {
		return perms, err
	}
	r.cache.Save(userID, perms)
	return perms, nil
}

// FutureHidden is true for anonymous users, for users without entitlement,
// and when the lookup fails.
func (r *permissionResolver) FutureHidden(ctx context.Context, userID string) bool {
	if isAnonymous(userID) {
		return true
	}
	perms, err := r.Lookup(ctx, userID)
	if err != nil {
		r.logger.Warn("OracleService", "Reading permissions unavailable, hiding future", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		return true
	}
	return !perms.SeesFuture()
}
