package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tippingchain/txhistory/internal/domain/model"
)

func validTipParams() TipParams {
	return TipParams{
		SourceChainID:     1,
		CreatorID:         42,
		TokenSymbol:       "ETH",
		Amount:            "1.5",
		AmountRaw:         "1500000000000000000",
		EstimatedUsdValue: "3000.00",
		PlatformFeeUsd:    "150.00",
	}
}

func TestNewTip(t *testing.T) {
	t.Parallel()

	in, err := NewTip(validTipParams())
	require.NoError(t, err)

	assert.Equal(t, model.TxKindTip, in.Kind)
	assert.Equal(t, model.TxStatusPending, in.Status)
	assert.Equal(t, int64(1), in.SourceChainID)
	require.NotNil(t, in.DestinationChainID)
	assert.Equal(t, model.SettlementChainID, *in.DestinationChainID)
	require.NotNil(t, in.CreatorID)
	assert.Equal(t, int64(42), *in.CreatorID)
	assert.Equal(t, "1.5", in.Amount)
	assert.Equal(t, "1500000000000000000", in.AmountRaw)
	assert.Nil(t, in.TokenAddress, "empty token address means native asset")
	assert.Equal(t, "Tip to creator #42", in.Title)
	assert.Equal(t, "Sent 1.5 ETH to creator #42", in.Description)
	assert.True(t, in.CanRetry)
}

func TestNewTipDeterministic(t *testing.T) {
	t.Parallel()

	a, err := NewTip(validTipParams())
	require.NoError(t, err)
	b, err := NewTip(validTipParams())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestNewTipValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*TipParams)
	}{
		{"missing source chain", func(p *TipParams) { p.SourceChainID = 0 }},
		{"missing creator", func(p *TipParams) { p.CreatorID = 0 }},
		{"missing token symbol", func(p *TipParams) { p.TokenSymbol = "" }},
		{"missing amount", func(p *TipParams) { p.Amount = "" }},
		{"non-numeric amount", func(p *TipParams) { p.Amount = "lots" }},
		{"non-numeric amount raw", func(p *TipParams) { p.AmountRaw = "0x10" }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := validTipParams()
			tc.mutate(&p)
			_, err := NewTip(p)
			require.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestNewApproval(t *testing.T) {
	t.Parallel()

	in, err := NewApproval(ApprovalParams{
		ChainID:        137,
		TokenSymbol:    "USDC",
		TokenAddress:   "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
		SpenderAddress: "0xSpender",
		Amount:         "100000000",
	})
	require.NoError(t, err)

	assert.Equal(t, model.TxKindApproval, in.Kind)
	assert.Equal(t, model.TxStatusPending, in.Status)
	assert.Equal(t, int64(137), in.SourceChainID)
	assert.Nil(t, in.DestinationChainID, "approvals are single-chain")
	// Approval amounts arrive in raw units already, so both sides match.
	assert.Equal(t, in.Amount, in.AmountRaw)
	require.NotNil(t, in.SpenderAddress)
	assert.Equal(t, "0xSpender", *in.SpenderAddress)
	require.NotNil(t, in.ApprovalAmount)
	assert.Equal(t, "100000000", *in.ApprovalAmount)
	assert.Equal(t, "Approve USDC", in.Title)
	assert.True(t, in.CanRetry)
}

func TestNewApprovalValidation(t *testing.T) {
	t.Parallel()

	base := ApprovalParams{
		ChainID:        137,
		TokenSymbol:    "USDC",
		TokenAddress:   "0xToken",
		SpenderAddress: "0xSpender",
		Amount:         "5",
	}

	tests := []struct {
		name   string
		mutate func(*ApprovalParams)
	}{
		{"missing chain", func(p *ApprovalParams) { p.ChainID = 0 }},
		{"missing token symbol", func(p *ApprovalParams) { p.TokenSymbol = "" }},
		{"missing token address", func(p *ApprovalParams) { p.TokenAddress = "" }},
		{"missing spender", func(p *ApprovalParams) { p.SpenderAddress = "" }},
		{"bad amount", func(p *ApprovalParams) { p.Amount = "n/a" }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := base
			tc.mutate(&p)
			_, err := NewApproval(p)
			require.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestNewCreatorRegistration(t *testing.T) {
	t.Parallel()

	in, err := NewCreatorRegistration(CreatorRegistrationParams{
		ChainID:        1,
		CreatorWallet:  "0xCreator",
		MembershipTier: "gold",
	})
	require.NoError(t, err)

	assert.Equal(t, model.TxKindCreatorRegistration, in.Kind)
	assert.Equal(t, model.TxStatusPending, in.Status)
	assert.Equal(t, "0", in.Amount, "registration is a native-gas-only operation")
	assert.Equal(t, "0", in.AmountRaw)
	require.NotNil(t, in.CreatorWallet)
	assert.Equal(t, "0xCreator", *in.CreatorWallet)
	require.NotNil(t, in.MembershipTier)
	assert.Equal(t, "gold", *in.MembershipTier)
	assert.Equal(t, "Creator registration", in.Title)

	_, err = NewCreatorRegistration(CreatorRegistrationParams{ChainID: 1, CreatorWallet: "0xC"})
	require.ErrorIs(t, err, ErrValidation)
}

func TestNewViewerReward(t *testing.T) {
	t.Parallel()

	in, err := NewViewerReward(ViewerRewardParams{
		SourceChainID: 8453,
		ViewerID:      314,
		ViewerAddress: "0xViewer",
		TokenSymbol:   "USDC",
		Amount:        "25",
		AmountRaw:     "25000000",
	})
	require.NoError(t, err)

	assert.Equal(t, model.TxKindViewerReward, in.Kind)
	assert.Equal(t, model.TxStatusPending, in.Status)
	require.NotNil(t, in.DestinationChainID)
	assert.Equal(t, model.SettlementChainID, *in.DestinationChainID)
	require.NotNil(t, in.ViewerID)
	assert.Equal(t, int64(314), *in.ViewerID)
	assert.Nil(t, in.CreatorID)
	assert.Equal(t, "Reward to viewer #314", in.Title)

	_, err = NewViewerReward(ViewerRewardParams{SourceChainID: 8453, TokenSymbol: "USDC", Amount: "1", AmountRaw: "1"})
	require.ErrorIs(t, err, ErrValidation, "viewerId is required")
}
