// Package errors provides structured error handling with i18n support.
package errors

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Creation validation errors
	CodeInvalidTimezone      Code = "INVALID_TIMEZONE"
	CodeInvalidStartTime     Code = "INVALID_START_TIME"
	CodeInvalidEndTime       Code = "INVALID_END_TIME"
	CodeInvalidTimeRange     Code = "INVALID_TIME_RANGE"
	CodeStartTimeNotInFuture Code = "START_TIME_NOT_IN_FUTURE"
	CodeInvalidCommand       Code = "INVALID_COMMAND"

	// Funding errors
	CodeNotEnoughFunds    Code = "NOT_ENOUGH_FUNDS"
	CodePrizePoolOverflow Code = "PRIZE_POOL_OVERFLOW"

	// State conflict errors
	CodeChallengeAlreadyExists            Code = "CHALLENGE_ALREADY_EXISTS"
	CodeChallengeNotRecruiting            Code = "CHALLENGE_IS_NOT_RECRUITING"
	CodeChallengeNotRecruitingOrExecuting Code = "CHALLENGE_IS_NOT_RECRUITING_AND_NOT_EXECUTING"
	CodeChallengeNotExecuting             Code = "CHALLENGE_IS_NOT_EXECUTING"
	CodeParticipantAlreadyJoined          Code = "PARTICIPANT_ALREADY_JOINED"
	CodeParticipantNotFound               Code = "PARTICIPANT_NOT_FOUND"
	CodeDayOutOfRange                     Code = "DAY_OUT_OF_RANGE"
	CodeCommandTypeUnsupported            Code = "COMMAND_TYPE_UNSUPPORTED"

	// Scheduling errors
	CodeFailedToScheduleRecruitmentEnd Code = "FAILED_TO_SCHEDULE_RECRUITMENT_END"
	CodeFailedToScheduleExecutionEnd   Code = "FAILED_TO_SCHEDULE_EXECUTION_END"
	CodeTransitionBeforeTargetTime     Code = "TRANSITION_BEFORE_TARGET_TIME"

	// Authorization errors
	CodeInternalMethodCalledExternally Code = "INTERNAL_METHOD_CALLED_EXTERNALLY"

	// Settlement errors
	CodeSendError Code = "SEND_ERROR"

	// Business outcome errors
	CodeRecruitEndedWithNoParticipants Code = "RECRUIT_ENDED_WITH_NO_PARTICIPANTS"

	// Lookup errors
	CodeChallengeNotFound Code = "CHALLENGE_NOT_FOUND"
)

// Category groups codes by how a caller should react.
type Category string

const (
	CategoryValidation    Category = "validation"
	CategoryFunding       Category = "funding"
	CategoryConflict      Category = "conflict"
	CategoryScheduling    Category = "scheduling"
	CategoryAuthorization Category = "authorization"
	CategorySettlement    Category = "settlement"
	CategoryOutcome       Category = "outcome"
	CategoryNotFound      Category = "not_found"
	CategoryInternal      Category = "internal"
)

// Category returns the group a code belongs to.
func (c Code) Category() Category {
	switch c {
	case CodeInvalidTimezone, CodeInvalidStartTime, CodeInvalidEndTime,
		CodeInvalidTimeRange, CodeStartTimeNotInFuture, CodeInvalidCommand:
		return CategoryValidation
	case CodeNotEnoughFunds, CodePrizePoolOverflow:
		return CategoryFunding
	case CodeChallengeAlreadyExists, CodeChallengeNotRecruiting,
		CodeChallengeNotRecruitingOrExecuting, CodeChallengeNotExecuting,
		CodeParticipantAlreadyJoined, CodeParticipantNotFound,
		CodeDayOutOfRange, CodeCommandTypeUnsupported:
		return CategoryConflict
	case CodeFailedToScheduleRecruitmentEnd, CodeFailedToScheduleExecutionEnd,
		CodeTransitionBeforeTargetTime:
		return CategoryScheduling
	case CodeInternalMethodCalledExternally:
		return CategoryAuthorization
	case CodeSendError:
		return CategorySettlement
	case CodeRecruitEndedWithNoParticipants:
		return CategoryOutcome
	case CodeChallengeNotFound:
		return CategoryNotFound
	default:
		return CategoryInternal
	}
}

// StateCommitted reports whether an error with this code still leaves a
// committed state change behind.
func (c Code) StateCommitted() bool {
	return c == CodeRecruitEndedWithNoParticipants || c == CodeSendError
}
