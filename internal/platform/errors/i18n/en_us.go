package i18n

// Error codes must match the codes defined in internal/platform/errors/codes.go.
// These are duplicated as strings to avoid an import cycle.
const (
	CodeInvalidTimezone                   = "INVALID_TIMEZONE"
	CodeInvalidStartTime                  = "INVALID_START_TIME"
	CodeInvalidEndTime                    = "INVALID_END_TIME"
	CodeInvalidTimeRange                  = "INVALID_TIME_RANGE"
	CodeStartTimeNotInFuture              = "START_TIME_NOT_IN_FUTURE"
	CodeInvalidCommand                    = "INVALID_COMMAND"
	CodeNotEnoughFunds                    = "NOT_ENOUGH_FUNDS"
	CodePrizePoolOverflow                 = "PRIZE_POOL_OVERFLOW"
	CodeChallengeAlreadyExists            = "CHALLENGE_ALREADY_EXISTS"
	CodeChallengeNotRecruiting            = "CHALLENGE_IS_NOT_RECRUITING"
	CodeChallengeNotRecruitingOrExecuting = "CHALLENGE_IS_NOT_RECRUITING_AND_NOT_EXECUTING"
	CodeChallengeNotExecuting             = "CHALLENGE_IS_NOT_EXECUTING"
	CodeParticipantAlreadyJoined          = "PARTICIPANT_ALREADY_JOINED"
	CodeParticipantNotFound               = "PARTICIPANT_NOT_FOUND"
	CodeDayOutOfRange                     = "DAY_OUT_OF_RANGE"
	CodeCommandTypeUnsupported            = "COMMAND_TYPE_UNSUPPORTED"
	CodeFailedToScheduleRecruitmentEnd    = "FAILED_TO_SCHEDULE_RECRUITMENT_END"
	CodeFailedToScheduleExecutionEnd      = "FAILED_TO_SCHEDULE_EXECUTION_END"
	CodeTransitionBeforeTargetTime        = "TRANSITION_BEFORE_TARGET_TIME"
	CodeInternalMethodCalledExternally    = "INTERNAL_METHOD_CALLED_EXTERNALLY"
	CodeSendError                         = "SEND_ERROR"
	CodeRecruitEndedWithNoParticipants    = "RECRUIT_ENDED_WITH_NO_PARTICIPANTS"
	CodeChallengeNotFound                 = "CHALLENGE_NOT_FOUND"
)

var enUSMessages = map[Code]string{
	CodeInvalidTimezone:                   "Timezone {{.Timezone}} is outside -12 to +12.",
	CodeInvalidStartTime:                  "Start time must be midnight in the challenge timezone.",
	CodeInvalidEndTime:                    "End time must be midnight in the challenge timezone.",
	CodeInvalidTimeRange:                  "Start time must be before end time.",
	CodeStartTimeNotInFuture:              "Start time must be in the future.",
	CodeInvalidCommand:                    "The request is malformed.",
	CodeNotEnoughFunds:                    "Not enough funds: expected {{.Expected}}, got {{.Actual}}.",
	CodePrizePoolOverflow:                 "The prize pool cannot hold this payment.",
	CodeChallengeAlreadyExists:            "The challenge already exists.",
	CodeChallengeNotRecruiting:            "The challenge is not recruiting.",
	CodeChallengeNotRecruitingOrExecuting: "The challenge is neither recruiting nor executing.",
	CodeChallengeNotExecuting:             "The challenge is not executing.",
	CodeParticipantAlreadyJoined:          "You already joined this challenge.",
	CodeParticipantNotFound:               "You are not a participant of this challenge.",
	CodeDayOutOfRange:                     "Day {{.Day}} is outside the {{.ExecutionDays}}-day execution window.",
	CodeCommandTypeUnsupported:            "This command is not supported.",
	CodeFailedToScheduleRecruitmentEnd:    "The end of recruitment could not be scheduled.",
	CodeFailedToScheduleExecutionEnd:      "The end of execution could not be scheduled.",
	CodeTransitionBeforeTargetTime:        "This transition is due at {{.Target}}, not {{.Now}}.",
	CodeInternalMethodCalledExternally:    "Only the program itself may send this command.",
	CodeSendError:                         "Sending the prize of {{.Prize}} to {{.Account}} failed.",
	CodeRecruitEndedWithNoParticipants:    "Recruitment ended with no participants.",
	CodeChallengeNotFound:                 "Challenge {{.ID}} was not found.",
}
