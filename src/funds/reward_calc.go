package funds

import (
	"github.com/vaultnet/vaultnode/src/data"
	"github.com/vaultnet/vaultnode/src/routing"
)

// ChurnCredits proposes the split for an Elders-changed churn: the section's
// accumulated payments are re-issued in a single credit to the new section
// key. Deterministic, so every Elder proposes the same credit ids.
func ChurnCredits(newSectionKey routing.PublicKey, total data.Token) ([]data.Credit, error) {
	if total == 0 {
		return nil, nil
	}
	credit, err := data.NewCredit(newSectionKey, total, "section churn",
		newSectionKey.Name())
	if err != nil {
		return nil, err
	}
	return []data.Credit{credit}, nil
}

// SplitCredits proposes the split for the oldie side of a section split: the
// funds are divided between the two post-split sections, keyed by each
// section's key. Any odd remainder stays on our side.
func SplitCredits(ourKey, siblingKey routing.PublicKey, total data.Token) ([]data.Credit, error) {
	if total == 0 {
		return nil, nil
	}
	half := total / 2
	ours := total - half

	ourCredit, err := data.NewCredit(ourKey, ours, "section split",
		ourKey.Name(), siblingKey.Name())
	if err != nil {
		return nil, err
	}
	credits := []data.Credit{ourCredit}

	if half > 0 {
		siblingCredit, err := data.NewCredit(siblingKey, half, "section split",
			ourKey.Name(), siblingKey.Name())
		if err != nil {
			return nil, err
		}
		credits = append(credits, siblingCredit)
	}
	return credits, nil
}
