package model

// Stats are aggregate figures derived from a filtered view of the history
// log. Never persisted: always recomputed from the records a query would
// return under the same filter.
//
// TotalVolumeUsd and TotalFeesUsd sum estimatedUsdValue / platformFeeUsd
// over successful records only, formatted as decimal strings with two
// fractional digits.
type Stats struct {
	TotalTransactions      int `json:"totalTransactions"`
	SuccessfulTransactions int `json:"successfulTransactions"`
	PendingTransactions    int `json:"pendingTransactions"`
	FailedTransactions     int `json:"failedTransactions"`

	TotalVolumeUsd string `json:"totalVolumeUsd"`
	TotalFeesUsd   string `json:"totalFeesUsd"`

	UniqueCreatorsTipped int `json:"uniqueCreatorsTipped"`

	MostUsedChain *int64 `json:"mostUsedChain,omitempty"`
	MostUsedToken string `json:"mostUsedToken,omitempty"`
}
