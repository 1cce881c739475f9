/*
Package funds manages a section's reward funds.

During steady state the section keeps a registry of node payout wallets and a
map of payments pending for the next churn round. When membership churns, the
Elders run a RewardProcess: a multi-round agreement in which they exchange
proposals for how the accumulated payments are split and re-issued, then
accumulate per-credit signature evidence until every credit reaches quorum.

A stalled round (quorum never reached because peers were lost for good) is
not resolved here: the surrounding membership protocol produces a subsequent
churn event, which re-derives the Elder set and supersedes the round with a
fresh one.
*/
package funds
