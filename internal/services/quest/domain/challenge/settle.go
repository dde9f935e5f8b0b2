package challenge

import (
	"github.com/louisbranch/chronoquest/internal/services/quest/domain/account"
	"github.com/louisbranch/chronoquest/internal/services/quest/domain/amount"
)

// Share is one winner's cut of the prize pool.
type Share struct {
	Account account.ID
	Payment amount.Amount
	Prize   amount.Amount
}

// Settle splits the prize pool among participants who completed every
// execution day, proportionally to what each paid. Shares are floored, so
// their sum never exceeds the pool; the remainder stays undistributed. No
// winners, or winners who paid nothing, yields no shares.
func Settle(state State) []Share {
	days := state.ExecutionDays()
	var winners []Participant
	for _, participant := range state.Participants {
		if uint64(len(participant.CompletedDays)) == days {
			winners = append(winners, participant)
		}
	}
	payments := make([]amount.Amount, 0, len(winners))
	for _, winner := range winners {
		payments = append(payments, winner.Payment)
	}
	// Winner payments are a subset of the pool, so the sum stays in range.
	total, ok := amount.Sum(payments...)
	if !ok || total.IsZero() {
		return nil
	}
	shares := make([]Share, 0, len(winners))
	for _, winner := range winners {
		shares = append(shares, Share{
			Account: winner.ID,
			Payment: winner.Payment,
			Prize:   amount.MulDiv(state.PrizePool, winner.Payment, total),
		})
	}
	return shares
}
