package share

import (
	"testing"
	"time"

	"github.com/48Nauts-Operator/hubble-sub000/internal/apperror"
	"github.com/48Nauts-Operator/hubble-sub000/internal/model"
)

func TestEvaluate(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)
	limit := int64(5)

	tests := []struct {
		name       string
		view       model.SharedView
		wantOK     bool
		wantReason string
	}{
		{
			name:   "public view with no constraints",
			view:   model.SharedView{AccessType: model.AccessPublic},
			wantOK: true,
		},
		{
			name:   "expiring view before its deadline",
			view:   model.SharedView{AccessType: model.AccessExpiring, ExpiresAt: &future},
			wantOK: true,
		},
		{
			name:       "expired view",
			view:       model.SharedView{AccessType: model.AccessExpiring, ExpiresAt: &past},
			wantOK:     false,
			wantReason: apperror.ReasonExpired,
		},
		{
			name:       "usage cap reached",
			view:       model.SharedView{AccessType: model.AccessPublic, MaxUses: &limit, CurrentUses: 5},
			wantOK:     false,
			wantReason: apperror.ReasonUsageLimit,
		},
		{
			name:       "usage over cap stays denied",
			view:       model.SharedView{AccessType: model.AccessPublic, MaxUses: &limit, CurrentUses: 9},
			wantOK:     false,
			wantReason: apperror.ReasonUsageLimit,
		},
		{
			name:   "usage under cap",
			view:   model.SharedView{AccessType: model.AccessPublic, MaxUses: &limit, CurrentUses: 4},
			wantOK: true,
		},
		{
			name:       "restricted views are never publicly accessible",
			view:       model.SharedView{AccessType: model.AccessRestricted},
			wantOK:     false,
			wantReason: apperror.ReasonRestricted,
		},
		{
			name: "expiry is reported before usage cap",
			view: model.SharedView{
				AccessType:  model.AccessPublic,
				ExpiresAt:   &past,
				MaxUses:     &limit,
				CurrentUses: 9,
			},
			wantOK:     false,
			wantReason: apperror.ReasonExpired,
		},
		{
			name: "usage cap is reported before restricted",
			view: model.SharedView{
				AccessType:  model.AccessRestricted,
				MaxUses:     &limit,
				CurrentUses: 5,
			},
			wantOK:     false,
			wantReason: apperror.ReasonUsageLimit,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reason, ok := Evaluate(&tt.view, now)
			if ok != tt.wantOK {
				t.Fatalf("Evaluate() ok = %v, want %v", ok, tt.wantOK)
			}
			if reason != tt.wantReason {
				t.Errorf("Evaluate() reason = %q, want %q", reason, tt.wantReason)
			}
		})
	}
}
