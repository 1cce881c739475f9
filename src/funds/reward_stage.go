package funds

// RewardStage captures where a churn round stands: AwaitingProposals until a
// quorum of Elders agree on the proposed split, Accumulating while per-credit
// evidence is gathered, and Completed once every credit holds a full proof.
type RewardStage uint32

const (
	// AwaitingProposals is the stage in which the round gathers peer
	// proposals of the reward split.
	AwaitingProposals RewardStage = iota

	// Accumulating is the stage in which the round merges per-credit
	// signature evidence toward quorum.
	Accumulating

	// Completed is the terminal stage, holding one finalized agreement proof
	// per credit id.
	Completed
)

// String returns the string representation of a RewardStage.
func (s RewardStage) String() string {
	switch s {
	case AwaitingProposals:
		return "AwaitingProposals"
	case Accumulating:
		return "Accumulating"
	case Completed:
		return "Completed"
	default:
		return "Unknown"
	}
}
