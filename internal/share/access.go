package share

import (
	"time"

	"github.com/48Nauts-Operator/hubble-sub000/internal/apperror"
	"github.com/48Nauts-Operator/hubble-sub000/internal/model"
)

// Evaluate decides whether a shared view may currently be served.
//
// The checks run in a fixed order (expiry, then usage cap, then access
// type) and the first failing check determines the reported reason when
// several fail at once. Nothing is persisted; the outcome is recomputed on
// every resolution.
//
// Restricted views always fail with ReasonRestricted: there is no public
// credential mechanism for them.
func Evaluate(v *model.SharedView, now time.Time) (reason string, ok bool) {
	if v.ExpiresAt != nil && v.ExpiresAt.Before(now) {
		return apperror.ReasonExpired, false
	}
	if v.MaxUses != nil && v.CurrentUses >= *v.MaxUses {
		return apperror.ReasonUsageLimit, false
	}
	if v.AccessType == model.AccessRestricted {
		return apperror.ReasonRestricted, false
	}
	return "", true
}
