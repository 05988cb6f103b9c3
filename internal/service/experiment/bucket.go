package service

import (
	"github.com/cespare/xxhash/v2"

	"github.com/dinerozz/tracking-backend/internal/entity"
)

// Bucket deterministically picks a variant for a session. The hash of
// experimentID+sessionID is reduced modulo the total weight and matched
// against the cumulative weights in configured order. It returns "" when no
// variant carries weight.
func Bucket(experimentID, sessionID string, variants entity.Variants) string {
	total := variants.TotalWeight()
	if total <= 0 {
		return ""
	}

	point := xxhash.Sum64String(experimentID+sessionID) % uint64(total)

	var cumulative uint64
	for _, v := range variants {
		if v.Weight <= 0 {
			continue
		}
		cumulative += uint64(v.Weight)
		if point < cumulative {
			return v.ID
		}
	}
	return ""
}
