package funds

import (
	"github.com/vaultnet/vaultnode/src/data"
)

// SectionFunds is the role-scoped container of an Elder's reward state. It is
// in exactly one of two modes: Churning while a RewardProcess is open, or
// KeepingNodeWallets in steady state. The wallet registry and the pending
// payments map survive every mode switch unchanged.
type SectionFunds struct {
	process  *RewardProcess
	wallets  *RewardWallets
	payments data.CreditProofs
}

// NewKeepingFunds returns funds in steady-state wallet bookkeeping mode.
func NewKeepingFunds(wallets *RewardWallets, payments data.CreditProofs) *SectionFunds {
	if payments == nil {
		payments = data.CreditProofs{}
	}
	return &SectionFunds{
		wallets:  wallets,
		payments: payments,
	}
}

// NewChurningFunds returns funds in churning mode, carrying the wallet
// registry and payments of the superseded state.
func NewChurningFunds(process *RewardProcess, wallets *RewardWallets, payments data.CreditProofs) *SectionFunds {
	f := NewKeepingFunds(wallets, payments)
	f.process = process
	return f
}

// IsChurning reports whether a reward round is open.
func (f *SectionFunds) IsChurning() bool {
	return f.process != nil
}

// Process returns the open reward round, or nil in steady state.
func (f *SectionFunds) Process() *RewardProcess {
	return f.process
}

// Wallets returns the node wallet registry.
func (f *SectionFunds) Wallets() *RewardWallets {
	return f.wallets
}

// AddPayment records a credit arriving for the next round. A payment for an
// id already recorded is ignored: proofs are immutable, re-delivery carries
// no new information.
func (f *SectionFunds) AddPayment(proof data.CreditAgreementProof) {
	if _, ok := f.payments[proof.Credit.ID]; ok {
		return
	}
	f.payments[proof.Credit.ID] = proof
}

// Payments returns a copy of the pending payments map.
func (f *SectionFunds) Payments() data.CreditProofs {
	return f.payments.Clone()
}
