package model

// DateRange is an inclusive [Start, End] window over CreatedAt, in epoch
// milliseconds.
type DateRange struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

// Filter describes a conjunctive query over the history log. Zero-valued
// fields leave that dimension unconstrained. A nil *Filter matches every
// record.
type Filter struct {
	Kind        TxKind     `json:"kind,omitempty"`
	Status      TxStatus   `json:"status,omitempty"`
	ChainID     *int64     `json:"chainId,omitempty"` // matched against SourceChainID
	TokenSymbol string     `json:"tokenSymbol,omitempty"`
	CreatorID   *int64     `json:"creatorId,omitempty"`
	DateRange   *DateRange `json:"dateRange,omitempty"`
}

// Matches reports whether r satisfies every constraint present in f.
func (f *Filter) Matches(r *TransactionRecord) bool {
	if f == nil {
		return true
	}
	if f.Kind != "" && r.Kind != f.Kind {
		return false
	}
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	if f.ChainID != nil && r.SourceChainID != *f.ChainID {
		return false
	}
	if f.TokenSymbol != "" && r.TokenSymbol != f.TokenSymbol {
		return false
	}
	if f.CreatorID != nil && (r.CreatorID == nil || *r.CreatorID != *f.CreatorID) {
		return false
	}
	if f.DateRange != nil && (r.CreatedAt < f.DateRange.Start || r.CreatedAt > f.DateRange.End) {
		return false
	}
	return true
}
