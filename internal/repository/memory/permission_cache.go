package memory

import (
	"time"

	"tarot-oracle-be/internal/entity"

	"github.com/patrickmn/go-cache"
)

const DefaultPermissionTTL = 30 * time.Second

// PermissionCache keeps reading permissions for a short while so the two
// phases of a reading hit the store once.
type PermissionCache struct {
	cache *cache.Cache
}

func NewPermissionCache(ttl time.Duration) *PermissionCache {
	if ttl <= 0 {
		ttl = DefaultPermissionTTL
	}
	// Expired items are purged every 2*ttl
	return &PermissionCache{
		cache: cache.New(ttl, 2*ttl),
	}
}

func (r *PermissionCache) Save(userID string, permissions entity.ReadingPermissions) {
	r.cache.Set(userID, permissions, cache.DefaultExpiration)
}

func (r *PermissionCache) Get(userID string) (entity.ReadingPermissions, bool) {
	if x, found := r.cache.Get(userID); found {
		return x.(entity.ReadingPermissions), true
	}
	return entity.ReadingPermissions{}, false
}

func (r *PermissionCache) Delete(userID string) {
	r.cache.Delete(userID)
}
