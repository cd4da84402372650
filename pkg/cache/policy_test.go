package cache

import "testing"

func TestDecide(t *testing.T) {
	withValidators := &Record{ETag: `"v1"`}
	withoutValidators := &Record{}

	tests := []struct {
		name   string
		policy Policy
		rec    *Record
		fresh  bool
		want   Decision
	}{
		// request
		{"request/no record", PolicyRequest, nil, false, DecisionFetch},
		{"request/fresh record", PolicyRequest, withValidators, true, DecisionServe},
		{"request/fresh without validators", PolicyRequest, withoutValidators, true, DecisionServe},
		{"request/stale with validators", PolicyRequest, withValidators, false, DecisionRevalidate},
		{"request/stale without validators", PolicyRequest, withoutValidators, false, DecisionFetch},

		// noCache
		{"noCache/no record", PolicyNoCache, nil, false, DecisionSkip},
		{"noCache/fresh record", PolicyNoCache, withValidators, true, DecisionSkip},

		// forceCache
		{"forceCache/no record", PolicyForceCache, nil, false, DecisionFetch},
		{"forceCache/fresh record", PolicyForceCache, withValidators, true, DecisionServe},
		{"forceCache/stale record", PolicyForceCache, withoutValidators, false, DecisionServe},

		// refresh
		{"refresh/no record", PolicyRefresh, nil, false, DecisionFetch},
		{"refresh/fresh with validators", PolicyRefresh, withValidators, true, DecisionRevalidate},
		{"refresh/stale with validators", PolicyRefresh, withValidators, false, DecisionRevalidate},
		{"refresh/record without validators", PolicyRefresh, withoutValidators, true, DecisionFetch},

		// refreshForceCache
		{"refreshForceCache/no record", PolicyRefreshForceCache, nil, false, DecisionFetch},
		{"refreshForceCache/fresh with validators", PolicyRefreshForceCache, withValidators, true, DecisionFetch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := decide(tt.policy, tt.rec, tt.fresh); got != tt.want {
				t.Errorf("decide(%v, rec=%v, fresh=%v) = %v, want %v",
					tt.policy, tt.rec != nil, tt.fresh, got, tt.want)
			}
		})
	}
}

func TestPolicy_String(t *testing.T) {
	tests := []struct {
		policy Policy
		want   string
	}{
		{PolicyRequest, "request"},
		{PolicyNoCache, "noCache"},
		{PolicyForceCache, "forceCache"},
		{PolicyRefresh, "refresh"},
		{PolicyRefreshForceCache, "refreshForceCache"},
		{Policy(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.policy.String(); got != tt.want {
			t.Errorf("Policy(%d).String() = %q, want %q", tt.policy, got, tt.want)
		}
	}
}
