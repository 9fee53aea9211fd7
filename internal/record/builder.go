// Package record builds well-formed pending history records from operation
// parameters. Builders are pure: same parameters, same output; the store
// assigns IDs and timestamps.
package record

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/tippingchain/txhistory/internal/domain/model"
)

// ErrValidation marks missing or malformed builder parameters.
var ErrValidation = errors.New("invalid record input")

// TipParams describes a cross-chain tip to a creator.
type TipParams struct {
	SourceChainID int64
	CreatorID     int64
	CreatorWallet string // optional
	TokenSymbol   string
	TokenAddress  string // optional, empty means native asset
	Amount        string // human units
	AmountRaw     string // smallest units

	EstimatedUsdValue     string // optional
	EstimatedUsdcReceived string // optional
	PlatformFee           string // optional
	PlatformFeeUsd        string // optional
	RelayFee              string // optional
}

// NewTip builds a pending tip record. Tips always settle on the fixed
// settlement chain.
func NewTip(p TipParams) (model.RecordInput, error) {
	if p.SourceChainID <= 0 {
		return model.RecordInput{}, fmt.Errorf("%w: tip: sourceChainId is required", ErrValidation)
	}
	if p.CreatorID <= 0 {
		return model.RecordInput{}, fmt.Errorf("%w: tip: creatorId is required", ErrValidation)
	}
	if p.TokenSymbol == "" {
		return model.RecordInput{}, fmt.Errorf("%w: tip: tokenSymbol is required", ErrValidation)
	}
	if err := requireDecimal("tip", "amount", p.Amount); err != nil {
		return model.RecordInput{}, err
	}
	if err := requireDecimal("tip", "amountRaw", p.AmountRaw); err != nil {
		return model.RecordInput{}, err
	}

	dest := model.SettlementChainID
	return model.RecordInput{
		Kind:                  model.TxKindTip,
		Status:                model.TxStatusPending,
		SourceChainID:         p.SourceChainID,
		DestinationChainID:    &dest,
		TokenSymbol:           p.TokenSymbol,
		TokenAddress:          optional(p.TokenAddress),
		Amount:                p.Amount,
		AmountRaw:             p.AmountRaw,
		EstimatedUsdValue:     optional(p.EstimatedUsdValue),
		EstimatedUsdcReceived: optional(p.EstimatedUsdcReceived),
		PlatformFee:           optional(p.PlatformFee),
		PlatformFeeUsd:        optional(p.PlatformFeeUsd),
		RelayFee:              optional(p.RelayFee),
		CreatorID:             &p.CreatorID,
		CreatorWallet:         optional(p.CreatorWallet),
		Title:                 fmt.Sprintf("Tip to creator #%d", p.CreatorID),
		Description:           fmt.Sprintf("Sent %s %s to creator #%d", p.Amount, p.TokenSymbol, p.CreatorID),
		CanRetry:              true,
	}, nil
}

// ApprovalParams describes a token spending approval.
type ApprovalParams struct {
	ChainID        int64
	TokenSymbol    string
	TokenAddress   string
	SpenderAddress string
	Amount         string
}

// NewApproval builds a pending approval record. Approval amounts arrive
// already expressed in raw units, so amountRaw mirrors amount.
func NewApproval(p ApprovalParams) (model.RecordInput, error) {
	if p.ChainID <= 0 {
		return model.RecordInput{}, fmt.Errorf("%w: approval: chainId is required", ErrValidation)
	}
	if p.TokenSymbol == "" {
		return model.RecordInput{}, fmt.Errorf("%w: approval: tokenSymbol is required", ErrValidation)
	}
	if p.TokenAddress == "" {
		return model.RecordInput{}, fmt.Errorf("%w: approval: tokenAddress is required", ErrValidation)
	}
	if p.SpenderAddress == "" {
		return model.RecordInput{}, fmt.Errorf("%w: approval: spenderAddress is required", ErrValidation)
	}
	if err := requireDecimal("approval", "amount", p.Amount); err != nil {
		return model.RecordInput{}, err
	}

	return model.RecordInput{
		Kind:           model.TxKindApproval,
		Status:         model.TxStatusPending,
		SourceChainID:  p.ChainID,
		TokenSymbol:    p.TokenSymbol,
		TokenAddress:   &p.TokenAddress,
		Amount:         p.Amount,
		AmountRaw:      p.Amount,
		SpenderAddress: &p.SpenderAddress,
		ApprovalAmount: &p.Amount,
		Title:          fmt.Sprintf("Approve %s", p.TokenSymbol),
		Description:    fmt.Sprintf("Approve %s %s for spending", p.Amount, p.TokenSymbol),
		CanRetry:       true,
	}, nil
}

// CreatorRegistrationParams describes a creator onboarding transaction,
// paid in native gas only.
type CreatorRegistrationParams struct {
	ChainID        int64
	CreatorWallet  string
	MembershipTier string
}

// NewCreatorRegistration builds a pending creator registration record.
func NewCreatorRegistration(p CreatorRegistrationParams) (model.RecordInput, error) {
	if p.ChainID <= 0 {
		return model.RecordInput{}, fmt.Errorf("%w: creator registration: chainId is required", ErrValidation)
	}
	if p.CreatorWallet == "" {
		return model.RecordInput{}, fmt.Errorf("%w: creator registration: creatorWallet is required", ErrValidation)
	}
	if p.MembershipTier == "" {
		return model.RecordInput{}, fmt.Errorf("%w: creator registration: membershipTier is required", ErrValidation)
	}

	return model.RecordInput{
		Kind:           model.TxKindCreatorRegistration,
		Status:         model.TxStatusPending,
		SourceChainID:  p.ChainID,
		Amount:         "0",
		AmountRaw:      "0",
		CreatorWallet:  &p.CreatorWallet,
		MembershipTier: &p.MembershipTier,
		Title:          "Creator registration",
		Description:    fmt.Sprintf("Register creator wallet %s (%s tier)", p.CreatorWallet, p.MembershipTier),
		CanRetry:       true,
	}, nil
}

// ViewerRewardParams describes a reward paid out to a viewer. Shaped like a
// tip but keyed by viewer identity.
type ViewerRewardParams struct {
	SourceChainID int64
	ViewerID      int64
	ViewerAddress string // optional
	TokenSymbol   string
	TokenAddress  string // optional
	Amount        string
	AmountRaw     string

	EstimatedUsdValue string // optional
	PlatformFee       string // optional
	PlatformFeeUsd    string // optional
	RelayFee          string // optional
}

// NewViewerReward builds a pending viewer reward record.
func NewViewerReward(p ViewerRewardParams) (model.RecordInput, error) {
	if p.SourceChainID <= 0 {
		return model.RecordInput{}, fmt.Errorf("%w: viewer reward: sourceChainId is required", ErrValidation)
	}
	if p.ViewerID <= 0 {
		return model.RecordInput{}, fmt.Errorf("%w: viewer reward: viewerId is required", ErrValidation)
	}
	if p.TokenSymbol == "" {
		return model.RecordInput{}, fmt.Errorf("%w: viewer reward: tokenSymbol is required", ErrValidation)
	}
	if err := requireDecimal("viewer reward", "amount", p.Amount); err != nil {
		return model.RecordInput{}, err
	}
	if err := requireDecimal("viewer reward", "amountRaw", p.AmountRaw); err != nil {
		return model.RecordInput{}, err
	}

	dest := model.SettlementChainID
	return model.RecordInput{
		Kind:               model.TxKindViewerReward,
		Status:             model.TxStatusPending,
		SourceChainID:      p.SourceChainID,
		DestinationChainID: &dest,
		TokenSymbol:        p.TokenSymbol,
		TokenAddress:       optional(p.TokenAddress),
		Amount:             p.Amount,
		AmountRaw:          p.AmountRaw,
		EstimatedUsdValue:  optional(p.EstimatedUsdValue),
		PlatformFee:        optional(p.PlatformFee),
		PlatformFeeUsd:     optional(p.PlatformFeeUsd),
		RelayFee:           optional(p.RelayFee),
		ViewerID:           &p.ViewerID,
		ViewerAddress:      optional(p.ViewerAddress),
		Title:              fmt.Sprintf("Reward to viewer #%d", p.ViewerID),
		Description:        fmt.Sprintf("Sent %s %s to viewer #%d", p.Amount, p.TokenSymbol, p.ViewerID),
		CanRetry:           true,
	}, nil
}

func requireDecimal(kind, field, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: %s: %s is required", ErrValidation, kind, field)
	}
	if _, ok := new(big.Rat).SetString(strings.TrimSpace(value)); !ok {
		return fmt.Errorf("%w: %s: %s %q is not a decimal", ErrValidation, kind, field, value)
	}
	return nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
