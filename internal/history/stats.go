package history

import (
	"math/big"
	"strings"

	"github.com/tippingchain/txhistory/internal/domain/model"
)

// aggregate computes stats in one pass over a recency-sorted record list.
// USD sums include only successful records whose valuation parses as a
// decimal; anything else is skipped, not an error. Most-used chain and
// token ties on equal counts go to the key seen first in the sorted list.
func (s *Store) aggregate(records []model.TransactionRecord) model.Stats {
	stats := model.Stats{}

	volume := new(big.Rat)
	fees := new(big.Rat)
	creators := make(map[int64]struct{})

	chains := newFrequency[int64]()
	tokens := newFrequency[string]()

	for i := range records {
		r := &records[i]
		stats.TotalTransactions++

		switch r.Status {
		case model.TxStatusSuccess:
			stats.SuccessfulTransactions++
		case model.TxStatusPending:
			stats.PendingTransactions++
		case model.TxStatusFailed:
			stats.FailedTransactions++
		}

		chains.observe(r.SourceChainID)

		if r.Status != model.TxStatusSuccess {
			continue
		}

		s.addDecimal(volume, r.EstimatedUsdValue, "estimatedUsdValue")
		s.addDecimal(fees, r.PlatformFeeUsd, "platformFeeUsd")

		if r.Kind == model.TxKindTip && r.CreatorID != nil {
			creators[*r.CreatorID] = struct{}{}
		}

		if r.TokenSymbol != "" {
			tokens.observe(r.TokenSymbol)
		}
	}

	stats.TotalVolumeUsd = volume.FloatString(2)
	stats.TotalFeesUsd = fees.FloatString(2)
	stats.UniqueCreatorsTipped = len(creators)
	if chain, ok := chains.mode(); ok {
		stats.MostUsedChain = &chain
	}
	if token, ok := tokens.mode(); ok {
		stats.MostUsedToken = token
	}
	return stats
}

// frequency tallies keys and remembers the order each key first appeared,
// so mode can break count ties toward the earliest-seen key.
type frequency[K comparable] struct {
	counts    map[K]int
	firstSeen []K
}

func newFrequency[K comparable]() *frequency[K] {
	return &frequency[K]{counts: make(map[K]int)}
}

func (f *frequency[K]) observe(key K) {
	if _, ok := f.counts[key]; !ok {
		f.firstSeen = append(f.firstSeen, key)
	}
	f.counts[key]++
}

func (f *frequency[K]) mode() (K, bool) {
	var best K
	bestCount := 0
	for _, key := range f.firstSeen {
		if f.counts[key] > bestCount {
			best = key
			bestCount = f.counts[key]
		}
	}
	return best, bestCount > 0
}

// addDecimal adds *v to sum when it parses as a decimal; unparseable
// values are logged at debug level and skipped.
func (s *Store) addDecimal(sum *big.Rat, v *string, field string) {
	if v == nil {
		return
	}
	r, ok := new(big.Rat).SetString(strings.TrimSpace(*v))
	if !ok {
		s.logger.Debug("skipping unparseable decimal in stats", "field", field, "value", *v)
		return
	}
	sum.Add(sum, r)
}
