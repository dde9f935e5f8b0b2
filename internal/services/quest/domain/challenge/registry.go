package challenge

import (
	"encoding/json"
	"errors"

	"github.com/louisbranch/chronoquest/internal/services/quest/domain/command"
	"github.com/louisbranch/chronoquest/internal/services/quest/domain/event"
)

// RegisterCommands registers challenge commands with the shared registry.
func RegisterCommands(registry *command.Registry) error {
	if registry == nil {
		return errors.New("command registry is required")
	}
	definitions := []command.Definition{
		{Type: CommandTypeCreate, Owner: command.OwnerUser, ValidatePayload: validatePayload[CreatePayload]},
		{Type: CommandTypeJoin, Owner: command.OwnerUser, ValidatePayload: validatePayload[TargetPayload]},
		{Type: CommandTypeSponsor, Owner: command.OwnerUser, ValidatePayload: validatePayload[TargetPayload]},
		{Type: CommandTypeCompleteDaily, Owner: command.OwnerUser, ValidatePayload: validatePayload[TargetPayload]},
		{Type: CommandTypeRecruitmentEnd, Owner: command.OwnerProgram, ValidatePayload: validatePayload[TargetPayload]},
		{Type: CommandTypeExecutionEnd, Owner: command.OwnerProgram, ValidatePayload: validatePayload[TargetPayload]},
	}
	for _, def := range definitions {
		if err := registry.Register(def); err != nil {
			return err
		}
	}
	return nil
}

// RegisterEvents registers challenge events with the shared registry.
func RegisterEvents(registry *event.Registry) error {
	if registry == nil {
		return errors.New("event registry is required")
	}
	definitions := []event.Definition{
		{Type: EventTypeCreated, ValidatePayload: validatePayload[CreatedPayload]},
		{Type: EventTypeJoined, ValidatePayload: validatePayload[JoinedPayload]},
		{Type: EventTypeSponsored, ValidatePayload: validatePayload[SponsoredPayload]},
		{Type: EventTypeRecruitmentEnded, ValidatePayload: validateRecruitmentEndedPayload},
		{Type: EventTypeExecutionEnded, ValidatePayload: validatePayload[ExecutionEndedPayload]},
		{Type: EventTypeDailyCompleted, ValidatePayload: validatePayload[DailyCompletedPayload]},
		{Type: EventTypePrize, ValidatePayload: validatePayload[PrizePayload]},
	}
	for _, def := range definitions {
		if err := registry.Register(def); err != nil {
			return err
		}
	}
	return nil
}

func validatePayload[T any](raw json.RawMessage) error {
	var payload T
	return json.Unmarshal(raw, &payload)
}

func validateRecruitmentEndedPayload(raw json.RawMessage) error {
	var payload RecruitmentEndedPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return err
	}
	switch payload.Status {
	case StatusRecruitFailed, StatusExecuting:
		return nil
	default:
		return errors.New("recruitment ended status must be recruit_failed or executing")
	}
}
