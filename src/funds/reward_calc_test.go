package funds

import (
	"testing"

	"github.com/vaultnet/vaultnode/src/data"
)

func TestChurnCredits(t *testing.T) {
	newKey := testSectionKey(t)

	credits, err := ChurnCredits(newKey, 1000)
	if err != nil {
		t.Fatal(err)
	}
	if len(credits) != 1 {
		t.Fatalf("Churn should propose 1 credit, not %d", len(credits))
	}
	if credits[0].Amount != 1000 {
		t.Fatalf("Credit should carry the full total, not %d", credits[0].Amount)
	}
	if !credits[0].Recipient.Equal(newKey) {
		t.Fatal("Credit should pay the new section key")
	}

	// Same inputs on another Elder produce the same credit id.
	again, err := ChurnCredits(newKey, 1000)
	if err != nil {
		t.Fatal(err)
	}
	if again[0].ID != credits[0].ID {
		t.Fatal("Credit ids must be deterministic across Elders")
	}

	empty, err := ChurnCredits(newKey, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(empty) != 0 {
		t.Fatal("Nothing to re-issue should propose no credits")
	}
}

func TestSplitCredits(t *testing.T) {
	ourKey := testSectionKey(t)
	siblingKey := testSectionKey(t)

	credits, err := SplitCredits(ourKey, siblingKey, 1001)
	if err != nil {
		t.Fatal(err)
	}
	if len(credits) != 2 {
		t.Fatalf("Split should propose 2 credits, not %d", len(credits))
	}

	var total data.Token
	byRecipient := map[string]data.Token{}
	for _, c := range credits {
		total += c.Amount
		byRecipient[c.Recipient.Hex()] = c.Amount
	}
	if total != 1001 {
		t.Fatalf("Split should conserve the total, got %d", total)
	}
	// The odd remainder stays on our side.
	if byRecipient[ourKey.Hex()] != 501 {
		t.Fatalf("Our side should get 501, not %d", byRecipient[ourKey.Hex()])
	}
	if byRecipient[siblingKey.Hex()] != 500 {
		t.Fatalf("Sibling side should get 500, not %d", byRecipient[siblingKey.Hex()])
	}

	if credits[0].ID == credits[1].ID {
		t.Fatal("The two split credits must have distinct ids")
	}
}

func TestSectionFundsPayments(t *testing.T) {
	f := NewKeepingFunds(NewRewardWallets(), nil)

	if f.IsChurning() {
		t.Fatal("Keeping funds should not be churning")
	}

	sectionKey := testSectionKey(t)
	credit := testCredits(t, sectionKey, 55)[0]
	proof := data.CreditAgreementProof{Credit: credit, Shares: map[string][]byte{}}

	f.AddPayment(proof)
	f.AddPayment(proof)

	payments := f.Payments()
	if len(payments) != 1 {
		t.Fatalf("Duplicate payment ids should be ignored, got %d entries", len(payments))
	}
	if payments.Sum() != 55 {
		t.Fatalf("Payments should total 55, not %d", payments.Sum())
	}

	// The returned map is a copy.
	delete(payments, credit.ID)
	if len(f.Payments()) != 1 {
		t.Fatal("Mutating the returned map must not touch the funds")
	}
}
