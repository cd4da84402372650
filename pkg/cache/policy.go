package cache

// Policy selects how the engine combines the store and the network for one
// request.
type Policy int

const (
	// PolicyRequest serves fresh records without a network call,
	// revalidates stale records that carry validators, and fetches
	// otherwise. The default.
	PolicyRequest Policy = iota

	// PolicyNoCache always performs a full fetch and never reads or writes
	// the store. No cache key is attached to the outcome.
	PolicyNoCache

	// PolicyForceCache serves any stored record regardless of freshness
	// and fetches only when no record exists at all.
	PolicyForceCache

	// PolicyRefresh always contacts the origin, conditionally when
	// validators exist, and replaces the record on success. Forces
	// revalidation while still benefiting from 304 round-trip savings.
	PolicyRefresh

	// PolicyRefreshForceCache always performs an unconditional full fetch
	// and overwrites the record, bypassing validators entirely.
	PolicyRefreshForceCache
)

func (p Policy) String() string {
	switch p {
	case PolicyRequest:
		return "request"
	case PolicyNoCache:
		return "noCache"
	case PolicyForceCache:
		return "forceCache"
	case PolicyRefresh:
		return "refresh"
	case PolicyRefreshForceCache:
		return "refreshForceCache"
	default:
		return "unknown"
	}
}

// Decision is the pre-request outcome of evaluating a policy against the
// stored state.
type Decision int

const (
	// DecisionFetch performs an unconditional network fetch.
	DecisionFetch Decision = iota

	// DecisionServe answers from the stored record without a network call.
	DecisionServe

	// DecisionRevalidate issues a conditional request carrying the stored
	// validators.
	DecisionRevalidate

	// DecisionSkip passes the request through untouched.
	DecisionSkip
)

func (d Decision) String() string {
	switch d {
	case DecisionFetch:
		return "fetch"
	case DecisionServe:
		return "serve"
	case DecisionRevalidate:
		return "revalidate"
	case DecisionSkip:
		return "skip"
	default:
		return "unknown"
	}
}

// decide maps (policy, record presence, freshness) to a decision.
// Transitions are one-shot per request; retries belong to the transport.
func decide(p Policy, rec *Record, fresh bool) Decision {
	switch p {
	case PolicyNoCache:
		return DecisionSkip
	case PolicyForceCache:
		if rec != nil {
			return DecisionServe
		}
		return DecisionFetch
	case PolicyRefresh:
		if rec != nil && rec.HasValidators() {
			return DecisionRevalidate
		}
		return DecisionFetch
	case PolicyRefreshForceCache:
		return DecisionFetch
	default: // PolicyRequest
		switch {
		case rec == nil:
			return DecisionFetch
		case fresh:
			return DecisionServe
		case rec.HasValidators():
			return DecisionRevalidate
		default:
			return DecisionFetch
		}
	}
}
