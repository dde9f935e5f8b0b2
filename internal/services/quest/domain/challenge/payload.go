package challenge

import (
	"github.com/louisbranch/chronoquest/internal/services/quest/domain/account"
	"github.com/louisbranch/chronoquest/internal/services/quest/domain/amount"
)

// CreatePayload captures the payload for challenge.create commands.
type CreatePayload struct {
	Name      string        `json:"name"`
	EntryFee  amount.Amount `json:"entry_fee"`
	Timezone  int           `json:"timezone"`
	StartTime uint64        `json:"start_time"`
	EndTime   uint64        `json:"end_time"`
}

// TargetPayload addresses an existing challenge. It is the payload for join,
// sponsor, complete_daily, and both scheduled transition commands.
type TargetPayload struct {
	ID uint64 `json:"id"`
}

// CreatedPayload captures the payload for challenge.created events.
type CreatedPayload struct {
	ID           uint64        `json:"id"`
	Name         string        `json:"name"`
	Creator      account.ID    `json:"creator"`
	EntryFee     amount.Amount `json:"entry_fee"`
	Timezone     int8          `json:"timezone"`
	CreationTime uint64        `json:"creation_time"`
	StartTime    uint64        `json:"start_time"`
	EndTime      uint64        `json:"end_time"`
}

// JoinedPayload captures the payload for challenge.joined events.
type JoinedPayload struct {
	ID      uint64        `json:"id"`
	Account account.ID    `json:"account"`
	Payment amount.Amount `json:"payment"`
}

// SponsoredPayload captures the payload for challenge.sponsored events.
type SponsoredPayload struct {
	ID      uint64        `json:"id"`
	Sponsor account.ID    `json:"sponsor"`
	Payment amount.Amount `json:"payment"`
}

// RecruitmentEndedPayload captures the payload for challenge.recruitment_ended events.
type RecruitmentEndedPayload struct {
	ID     uint64 `json:"id"`
	Status Status `json:"status"`
}

// ExecutionEndedPayload captures the payload for challenge.execution_ended events.
type ExecutionEndedPayload struct {
	ID uint64 `json:"id"`
}

// DailyCompletedPayload captures the payload for challenge.daily_completed events.
type DailyCompletedPayload struct {
	ID      uint64     `json:"id"`
	Account account.ID `json:"account"`
	Day     uint32     `json:"day"`
}

// PrizePayload captures the payload for challenge.prize events.
type PrizePayload struct {
	ID      uint64        `json:"id"`
	Account account.ID    `json:"account"`
	Prize   amount.Amount `json:"prize"`
}
