package challenge

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/louisbranch/chronoquest/internal/services/quest/domain/account"
	"github.com/louisbranch/chronoquest/internal/services/quest/domain/command"
	"github.com/louisbranch/chronoquest/internal/services/quest/domain/daytime"
	"github.com/louisbranch/chronoquest/internal/services/quest/domain/event"
)

const (
	CommandTypeCreate         command.Type = "challenge.create"
	CommandTypeJoin           command.Type = "challenge.join"
	CommandTypeSponsor        command.Type = "challenge.sponsor"
	CommandTypeRecruitmentEnd command.Type = "challenge.recruitment_end"
	CommandTypeExecutionEnd   command.Type = "challenge.execution_end"
	CommandTypeCompleteDaily  command.Type = "challenge.complete_daily"

	EventTypeCreated          event.Type = "challenge.created"
	EventTypeJoined           event.Type = "challenge.joined"
	EventTypeSponsored        event.Type = "challenge.sponsored"
	EventTypeRecruitmentEnded event.Type = "challenge.recruitment_ended"
	EventTypeExecutionEnded   event.Type = "challenge.execution_ended"
	EventTypeDailyCompleted   event.Type = "challenge.daily_completed"
	EventTypePrize            event.Type = "challenge.prize"

	statusRecruiting    = "recruiting"
	statusRecruitFailed = "recruit_failed"
	statusExecuting     = "executing"
	statusCompleted     = "completed"

	rejectionCodeAlreadyExists          = "CHALLENGE_ALREADY_EXISTS"
	rejectionCodeNotFound               = "CHALLENGE_NOT_FOUND"
	rejectionCodeInvalidTimezone        = "INVALID_TIMEZONE"
	rejectionCodeInvalidStartTime       = "INVALID_START_TIME"
	rejectionCodeInvalidEndTime         = "INVALID_END_TIME"
	rejectionCodeInvalidTimeRange       = "INVALID_TIME_RANGE"
	rejectionCodeStartNotInFuture       = "START_TIME_NOT_IN_FUTURE"
	rejectionCodeScheduleRecruitmentEnd = "FAILED_TO_SCHEDULE_RECRUITMENT_END"
	rejectionCodeScheduleExecutionEnd   = "FAILED_TO_SCHEDULE_EXECUTION_END"
	rejectionCodeNotRecruiting          = "CHALLENGE_IS_NOT_RECRUITING"
	rejectionCodeNotRecruitingOrExec    = "CHALLENGE_IS_NOT_RECRUITING_AND_NOT_EXECUTING"
	rejectionCodeNotExecuting           = "CHALLENGE_IS_NOT_EXECUTING"
	rejectionCodeNotEnoughFunds         = "NOT_ENOUGH_FUNDS"
	rejectionCodeSendError              = "SEND_ERROR"
	rejectionCodeNoParticipants         = "RECRUIT_ENDED_WITH_NO_PARTICIPANTS"
	rejectionCodeParticipantNotFound    = "PARTICIPANT_NOT_FOUND"
	rejectionCodeAlreadyJoined          = "PARTICIPANT_ALREADY_JOINED"
	rejectionCodeDayOutOfRange          = "DAY_OUT_OF_RANGE"
	rejectionCodePrizePoolOverflow      = "PRIZE_POOL_OVERFLOW"
	rejectionCodeTransitionTooEarly     = "TRANSITION_BEFORE_TARGET_TIME"
	rejectionCodeCommandUnsupported     = "COMMAND_TYPE_UNSUPPORTED"
)

// Decide returns the decision for a challenge command against current state.
//
// A create command is decided against an empty State whose ID is the id the
// registry will assign.
func Decide(state State, cmd command.Command, now func() time.Time) command.Decision {
	if now == nil {
		now = time.Now
	}
	at := now().UTC()

	switch cmd.Type {
	case CommandTypeCreate:
		return decideCreate(state, cmd, at)
	case CommandTypeJoin:
		return decideJoin(state, cmd, at)
	case CommandTypeSponsor:
		return decideSponsor(state, cmd, at)
	case CommandTypeRecruitmentEnd:
		return decideRecruitmentEnd(state, cmd, at)
	case CommandTypeExecutionEnd:
		return decideExecutionEnd(state, cmd, at)
	case CommandTypeCompleteDaily:
		return decideCompleteDaily(state, cmd, at)
	default:
		return command.Reject(command.Rejection{
			Code:    rejectionCodeCommandUnsupported,
			Message: "command type is not supported by challenge decider",
		})
	}
}

func decideCreate(state State, cmd command.Command, at time.Time) command.Decision {
	if state.Created {
		return command.Reject(command.Rejection{Code: rejectionCodeAlreadyExists, Message: "challenge already exists"})
	}
	var payload CreatePayload
	_ = json.Unmarshal(cmd.PayloadJSON, &payload)

	if !daytime.ValidTimezone(payload.Timezone) {
		return command.Reject(command.Rejection{
			Code:     rejectionCodeInvalidTimezone,
			Message:  "timezone must be within [-12, 12]",
			Metadata: map[string]string{"Timezone": strconv.Itoa(payload.Timezone)},
		})
	}
	timezone := int8(payload.Timezone)
	if !daytime.IsStartOfDay(payload.StartTime, timezone) {
		return command.Reject(command.Rejection{Code: rejectionCodeInvalidStartTime, Message: "start time is not a local midnight"})
	}
	if !daytime.IsStartOfDay(payload.EndTime, timezone) {
		return command.Reject(command.Rejection{Code: rejectionCodeInvalidEndTime, Message: "end time is not a local midnight"})
	}
	if payload.StartTime >= payload.EndTime {
		return command.Reject(command.Rejection{Code: rejectionCodeInvalidTimeRange, Message: "start time must be before end time"})
	}
	nowSeconds := daytime.Unix(at)
	if nowSeconds >= payload.StartTime {
		return command.Reject(command.Rejection{Code: rejectionCodeStartNotInFuture, Message: "start time must be in the future"})
	}

	payloadJSON, _ := json.Marshal(CreatedPayload{
		ID:           state.ID,
		Name:         strings.TrimSpace(payload.Name),
		Creator:      account.ID(cmd.ActorID),
		EntryFee:     payload.EntryFee,
		Timezone:     timezone,
		CreationTime: nowSeconds,
		StartTime:    payload.StartTime,
		EndTime:      payload.EndTime,
	})
	decision := command.Accept(command.NewEvent(cmd, EventTypeCreated, state.ID, payloadJSON, at))
	decision.Schedules = []command.Schedule{{
		DeliverAt: payload.StartTime,
		Command:   transitionCommand(cmd, CommandTypeRecruitmentEnd, state.ID),
		Failure: command.Rejection{
			Code:    rejectionCodeScheduleRecruitmentEnd,
			Message: "failed to schedule recruitment end",
		},
	}}
	return decision
}

func decideJoin(state State, cmd command.Command, at time.Time) command.Decision {
	if !state.Created {
		return notFound(state.ID)
	}
	if state.Status != StatusRecruiting {
		return command.Reject(command.Rejection{Code: rejectionCodeNotRecruiting, Message: "challenge is not recruiting"})
	}
	if cmd.Value.Less(state.EntryFee) {
		return notEnoughFunds(state, cmd)
	}
	caller := account.ID(cmd.ActorID)
	if state.participantIndex(caller) >= 0 {
		return command.Reject(command.Rejection{Code: rejectionCodeAlreadyJoined, Message: "participant already joined"})
	}
	if _, ok := state.PrizePool.Add(cmd.Value); !ok {
		return prizePoolOverflow()
	}
	payloadJSON, _ := json.Marshal(JoinedPayload{ID: state.ID, Account: caller, Payment: cmd.Value})
	return command.Accept(command.NewEvent(cmd, EventTypeJoined, state.ID, payloadJSON, at))
}

func decideSponsor(state State, cmd command.Command, at time.Time) command.Decision {
	if !state.Created {
		return notFound(state.ID)
	}
	if state.Status != StatusRecruiting && state.Status != StatusExecuting {
		return command.Reject(command.Rejection{Code: rejectionCodeNotRecruitingOrExec, Message: "challenge is neither recruiting nor executing"})
	}
	if cmd.Value.Less(state.EntryFee) {
		return notEnoughFunds(state, cmd)
	}
	if _, ok := state.PrizePool.Add(cmd.Value); !ok {
		return prizePoolOverflow()
	}
	payloadJSON, _ := json.Marshal(SponsoredPayload{ID: state.ID, Sponsor: account.ID(cmd.ActorID), Payment: cmd.Value})
	return command.Accept(command.NewEvent(cmd, EventTypeSponsored, state.ID, payloadJSON, at))
}

func decideRecruitmentEnd(state State, cmd command.Command, at time.Time) command.Decision {
	if !state.Created {
		return notFound(state.ID)
	}
	if state.Status != StatusRecruiting {
		return command.Reject(command.Rejection{Code: rejectionCodeNotRecruiting, Message: "challenge is not recruiting"})
	}
	if daytime.Unix(at) < state.StartTime {
		return transitionTooEarly(state.StartTime, at)
	}
	if len(state.Participants) == 0 {
		payloadJSON, _ := json.Marshal(RecruitmentEndedPayload{ID: state.ID, Status: StatusRecruitFailed})
		decision := command.Accept(command.NewEvent(cmd, EventTypeRecruitmentEnded, state.ID, payloadJSON, at))
		decision.Rejections = []command.Rejection{{
			Code:    rejectionCodeNoParticipants,
			Message: "recruitment ended with no participants",
		}}
		return decision
	}
	payloadJSON, _ := json.Marshal(RecruitmentEndedPayload{ID: state.ID, Status: StatusExecuting})
	decision := command.Accept(command.NewEvent(cmd, EventTypeRecruitmentEnded, state.ID, payloadJSON, at))
	decision.Schedules = []command.Schedule{{
		DeliverAt: state.EndTime,
		Command:   transitionCommand(cmd, CommandTypeExecutionEnd, state.ID),
		Failure: command.Rejection{
			Code:    rejectionCodeScheduleExecutionEnd,
			Message: "failed to schedule execution end",
		},
	}}
	return decision
}

func decideExecutionEnd(state State, cmd command.Command, at time.Time) command.Decision {
	if !state.Created {
		return notFound(state.ID)
	}
	if state.Status != StatusExecuting {
		return command.Reject(command.Rejection{Code: rejectionCodeNotExecuting, Message: "challenge is not executing"})
	}
	if daytime.Unix(at) < state.EndTime {
		return transitionTooEarly(state.EndTime, at)
	}
	payloadJSON, _ := json.Marshal(ExecutionEndedPayload{ID: state.ID})
	decision := command.Accept(command.NewEvent(cmd, EventTypeExecutionEnded, state.ID, payloadJSON, at))
	for _, share := range Settle(state) {
		prizeJSON, _ := json.Marshal(PrizePayload{ID: state.ID, Account: share.Account, Prize: share.Prize})
		decision.Payouts = append(decision.Payouts, command.Payout{
			To:    share.Account,
			Value: share.Prize,
			Event: command.NewEvent(cmd, EventTypePrize, state.ID, prizeJSON, at),
			Failure: command.Rejection{
				Code:     rejectionCodeSendError,
				Message:  "failed to send prize",
				Metadata: map[string]string{"Account": share.Account.String(), "Prize": share.Prize.String()},
			},
		})
	}
	return decision
}

func decideCompleteDaily(state State, cmd command.Command, at time.Time) command.Decision {
	if !state.Created {
		return notFound(state.ID)
	}
	if state.Status != StatusExecuting {
		return command.Reject(command.Rejection{Code: rejectionCodeNotExecuting, Message: "challenge is not executing"})
	}
	caller := account.ID(cmd.ActorID)
	if state.participantIndex(caller) < 0 {
		return command.Reject(command.Rejection{Code: rejectionCodeParticipantNotFound, Message: "participant not found"})
	}
	day, ok := daytime.DayIndex(daytime.Unix(at), state.StartTime)
	if !ok || day >= state.ExecutionDays() || day > math.MaxUint32 {
		return command.Reject(command.Rejection{
			Code:    rejectionCodeDayOutOfRange,
			Message: "day is outside the execution window",
			Metadata: map[string]string{
				"Day":           strconv.FormatUint(day, 10),
				"ExecutionDays": strconv.FormatUint(state.ExecutionDays(), 10),
			},
		})
	}
	payloadJSON, _ := json.Marshal(DailyCompletedPayload{ID: state.ID, Account: caller, Day: uint32(day)})
	return command.Accept(command.NewEvent(cmd, EventTypeDailyCompleted, state.ID, payloadJSON, at))
}

// transitionCommand builds the self-delivered follow-up for a phase change.
// The dispatcher stamps the program's own id as the actor.
func transitionCommand(cause command.Command, cmdType command.Type, id uint64) command.Command {
	payloadJSON, _ := json.Marshal(TargetPayload{ID: id})
	correlationID := cause.CorrelationID
	if correlationID == "" {
		correlationID = cause.RequestID
	}
	return command.Command{
		Type:          cmdType,
		CorrelationID: correlationID,
		CausationID:   cause.RequestID,
		PayloadJSON:   payloadJSON,
	}
}

func notFound(id uint64) command.Decision {
	return command.Reject(command.Rejection{
		Code:     rejectionCodeNotFound,
		Message:  "challenge not found",
		Metadata: map[string]string{"ID": strconv.FormatUint(id, 10)},
	})
}

func notEnoughFunds(state State, cmd command.Command) command.Decision {
	return command.Reject(command.Rejection{
		Code:    rejectionCodeNotEnoughFunds,
		Message: "not enough funds",
		Metadata: map[string]string{
			"Expected": state.EntryFee.String(),
			"Actual":   cmd.Value.String(),
		},
	})
}

func prizePoolOverflow() command.Decision {
	return command.Reject(command.Rejection{Code: rejectionCodePrizePoolOverflow, Message: "prize pool would exceed 128 bits"})
}

// transitionTooEarly rejects a scheduled transition delivered before its
// target time, such as one left queued for an id that was never committed.
func transitionTooEarly(target uint64, at time.Time) command.Decision {
	return command.Reject(command.Rejection{
		Code:    rejectionCodeTransitionTooEarly,
		Message: "transition delivered before its target time",
		Metadata: map[string]string{
			"Target": strconv.FormatUint(target, 10),
			"Now":    strconv.FormatUint(daytime.Unix(at), 10),
		},
	})
}
