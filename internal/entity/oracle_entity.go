package entity

import "tarot-oracle-be/pkg/tarot"

// ReadingPermissions is what get_user_reading_permissions returns.
type ReadingPermissions struct {
	CanSeeFuture bool `json:"can_see_future"`
	IsPremium    bool `json:"is_premium"`
}

// SeesFuture reports whether the full reading may be shown.
func (p ReadingPermissions) SeesFuture() bool {
	return p.CanSeeFuture || p.IsPremium
}

// CachedMessage is a full, unfiltered message held for an anonymous
// conversation until it is transferred.
type CachedMessage struct {
	Role    string            `json:"role"`
	Content string            `json:"content"`
	Cards   []tarot.DrawnCard `json:"cards,omitempty"`
}
