package model

// TxKind is the closed set of operation categories the history log tracks.
type TxKind string

const (
	TxKindTip                 TxKind = "tip"
	TxKindApproval            TxKind = "approval"
	TxKindCreatorRegistration TxKind = "creator_registration"
	TxKindViewerReward        TxKind = "viewer_reward"
)

func (k TxKind) String() string {
	return string(k)
}

// Valid reports whether k is a supported operation kind.
func (k TxKind) Valid() bool {
	switch k {
	case TxKindTip, TxKindApproval, TxKindCreatorRegistration, TxKindViewerReward:
		return true
	}
	return false
}

type TxStatus string

const (
	TxStatusPending   TxStatus = "pending"
	TxStatusSuccess   TxStatus = "success"
	TxStatusFailed    TxStatus = "failed"
	TxStatusCancelled TxStatus = "cancelled"
)

func (s TxStatus) String() string {
	return string(s)
}

// Valid reports whether s is a known lifecycle status.
func (s TxStatus) Valid() bool {
	switch s {
	case TxStatusPending, TxStatusSuccess, TxStatusFailed, TxStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether s is a final status. A record never leaves a
// terminal status.
func (s TxStatus) Terminal() bool {
	switch s {
	case TxStatusSuccess, TxStatusFailed, TxStatusCancelled:
		return true
	}
	return false
}

// SettlementChainID is the fixed destination chain on which cross-chain tips
// and viewer rewards settle (ApeChain mainnet).
const SettlementChainID int64 = 33139

// TransactionRecord is one user-initiated operation and its lifecycle.
// Amounts are decimal strings: Amount in human units, AmountRaw in the
// asset's smallest unit. The JSON shape is the flat storage layout shared
// with the web clients, so every optional field is a pointer with omitempty.
type TransactionRecord struct {
	ID        string   `json:"id"`
	Kind      TxKind   `json:"kind"`
	Status    TxStatus `json:"status"`
	CreatedAt int64    `json:"createdAt"` // epoch milliseconds, assigned by the store

	SourceChainID      int64   `json:"sourceChainId"`
	DestinationChainID *int64  `json:"destinationChainId,omitempty"`
	SourceTxHash       *string `json:"sourceTxHash,omitempty"`
	DestinationTxHash  *string `json:"destinationTxHash,omitempty"`

	TokenSymbol  string  `json:"tokenSymbol"`
	TokenAddress *string `json:"tokenAddress,omitempty"` // nil means native asset
	Amount       string  `json:"amount"`
	AmountRaw    string  `json:"amountRaw"`

	EstimatedUsdValue     *string `json:"estimatedUsdValue,omitempty"`
	EstimatedUsdcReceived *string `json:"estimatedUsdcReceived,omitempty"`
	PlatformFee           *string `json:"platformFee,omitempty"`
	PlatformFeeUsd        *string `json:"platformFeeUsd,omitempty"`
	RelayFee              *string `json:"relayFee,omitempty"`

	CreatorID      *int64  `json:"creatorId,omitempty"`
	CreatorWallet  *string `json:"creatorWallet,omitempty"`
	SpenderAddress *string `json:"spenderAddress,omitempty"`
	ApprovalAmount *string `json:"approvalAmount,omitempty"`
	ViewerID       *int64  `json:"viewerId,omitempty"`
	ViewerAddress  *string `json:"viewerAddress,omitempty"`
	MembershipTier *string `json:"membershipTier,omitempty"`

	Error     *string `json:"error,omitempty"`     // set iff Status == failed
	ErrorCode *string `json:"errorCode,omitempty"` // set iff Status == failed

	Title       string `json:"title"`
	Description string `json:"description"`
	CanRetry    bool   `json:"canRetry"`
}

// Clone returns a deep copy so callers can hold or mutate query results
// without aliasing the store's collection.
func (r *TransactionRecord) Clone() TransactionRecord {
	c := *r
	c.DestinationChainID = clonePtr(r.DestinationChainID)
	c.SourceTxHash = clonePtr(r.SourceTxHash)
	c.DestinationTxHash = clonePtr(r.DestinationTxHash)
	c.TokenAddress = clonePtr(r.TokenAddress)
	c.EstimatedUsdValue = clonePtr(r.EstimatedUsdValue)
	c.EstimatedUsdcReceived = clonePtr(r.EstimatedUsdcReceived)
	c.PlatformFee = clonePtr(r.PlatformFee)
	c.PlatformFeeUsd = clonePtr(r.PlatformFeeUsd)
	c.RelayFee = clonePtr(r.RelayFee)
	c.CreatorID = clonePtr(r.CreatorID)
	c.CreatorWallet = clonePtr(r.CreatorWallet)
	c.SpenderAddress = clonePtr(r.SpenderAddress)
	c.ApprovalAmount = clonePtr(r.ApprovalAmount)
	c.ViewerID = clonePtr(r.ViewerID)
	c.ViewerAddress = clonePtr(r.ViewerAddress)
	c.MembershipTier = clonePtr(r.MembershipTier)
	c.Error = clonePtr(r.Error)
	c.ErrorCode = clonePtr(r.ErrorCode)
	return c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// RecordInput carries every caller-supplied field of a new record. The store
// assigns ID and CreatedAt and normalizes Status to pending on entry.
type RecordInput struct {
	Kind   TxKind   `json:"kind"`
	Status TxStatus `json:"status"`

	SourceChainID      int64   `json:"sourceChainId"`
	DestinationChainID *int64  `json:"destinationChainId,omitempty"`
	SourceTxHash       *string `json:"sourceTxHash,omitempty"`
	DestinationTxHash  *string `json:"destinationTxHash,omitempty"`

	TokenSymbol  string  `json:"tokenSymbol"`
	TokenAddress *string `json:"tokenAddress,omitempty"`
	Amount       string  `json:"amount"`
	AmountRaw    string  `json:"amountRaw"`

	EstimatedUsdValue     *string `json:"estimatedUsdValue,omitempty"`
	EstimatedUsdcReceived *string `json:"estimatedUsdcReceived,omitempty"`
	PlatformFee           *string `json:"platformFee,omitempty"`
	PlatformFeeUsd        *string `json:"platformFeeUsd,omitempty"`
	RelayFee              *string `json:"relayFee,omitempty"`

	CreatorID      *int64  `json:"creatorId,omitempty"`
	CreatorWallet  *string `json:"creatorWallet,omitempty"`
	SpenderAddress *string `json:"spenderAddress,omitempty"`
	ApprovalAmount *string `json:"approvalAmount,omitempty"`
	ViewerID       *int64  `json:"viewerId,omitempty"`
	ViewerAddress  *string `json:"viewerAddress,omitempty"`
	MembershipTier *string `json:"membershipTier,omitempty"`

	Title       string `json:"title"`
	Description string `json:"description"`
	CanRetry    bool   `json:"canRetry"`
}

// Record materializes the input as a TransactionRecord envelope. The caller
// (the store) fills ID, CreatedAt, and the normalized Status.
func (in *RecordInput) Record() TransactionRecord {
	return TransactionRecord{
		Kind:                  in.Kind,
		Status:                in.Status,
		SourceChainID:         in.SourceChainID,
		DestinationChainID:    in.DestinationChainID,
		SourceTxHash:          in.SourceTxHash,
		DestinationTxHash:     in.DestinationTxHash,
		TokenSymbol:           in.TokenSymbol,
		TokenAddress:          in.TokenAddress,
		Amount:                in.Amount,
		AmountRaw:             in.AmountRaw,
		EstimatedUsdValue:     in.EstimatedUsdValue,
		EstimatedUsdcReceived: in.EstimatedUsdcReceived,
		PlatformFee:           in.PlatformFee,
		PlatformFeeUsd:        in.PlatformFeeUsd,
		RelayFee:              in.RelayFee,
		CreatorID:             in.CreatorID,
		CreatorWallet:         in.CreatorWallet,
		SpenderAddress:        in.SpenderAddress,
		ApprovalAmount:        in.ApprovalAmount,
		ViewerID:              in.ViewerID,
		ViewerAddress:         in.ViewerAddress,
		MembershipTier:        in.MembershipTier,
		Title:                 in.Title,
		Description:           in.Description,
		CanRetry:              in.CanRetry,
	}
}

// Patch is a partial update merged into an existing record. Nil fields keep
// their prior values. ID, Kind, and CreatedAt are not patchable.
type Patch struct {
	Status *TxStatus `json:"status,omitempty"`

	DestinationChainID *int64  `json:"destinationChainId,omitempty"`
	SourceTxHash       *string `json:"sourceTxHash,omitempty"`
	DestinationTxHash  *string `json:"destinationTxHash,omitempty"`

	Amount    *string `json:"amount,omitempty"`
	AmountRaw *string `json:"amountRaw,omitempty"`

	EstimatedUsdValue     *string `json:"estimatedUsdValue,omitempty"`
	EstimatedUsdcReceived *string `json:"estimatedUsdcReceived,omitempty"`
	PlatformFee           *string `json:"platformFee,omitempty"`
	PlatformFeeUsd        *string `json:"platformFeeUsd,omitempty"`
	RelayFee              *string `json:"relayFee,omitempty"`

	Error     *string `json:"error,omitempty"`
	ErrorCode *string `json:"errorCode,omitempty"`

	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	CanRetry    *bool   `json:"canRetry,omitempty"`
}
