package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("join: %w", WithMetadata(CodeNotEnoughFunds, "not enough funds", map[string]string{"Expected": "10", "Actual": "3"}))
	if !stderrors.Is(err, New(CodeNotEnoughFunds, "")) {
		t.Fatal("expected errors.Is to match by code")
	}
	if stderrors.Is(err, New(CodeSendError, "")) {
		t.Fatal("expected different codes not to match")
	}
	if GetCode(err) != CodeNotEnoughFunds {
		t.Fatalf("GetCode = %s, want %s", GetCode(err), CodeNotEnoughFunds)
	}
	if GetCode(stderrors.New("plain")) != CodeUnknown {
		t.Fatal("expected unknown code for plain error")
	}
}

func TestWrapUnwraps(t *testing.T) {
	cause := stderrors.New("disk full")
	err := Wrap(CodeSendError, "send failed", cause)
	if !stderrors.Is(err, cause) {
		t.Fatal("expected cause in chain")
	}
	if !IsCode(err, CodeSendError) {
		t.Fatal("expected IsCode to match")
	}
}

func TestCategory(t *testing.T) {
	cases := map[Code]Category{
		CodeInvalidTimezone:                CategoryValidation,
		CodeNotEnoughFunds:                 CategoryFunding,
		CodeParticipantAlreadyJoined:       CategoryConflict,
		CodeFailedToScheduleExecutionEnd:   CategoryScheduling,
		CodeInternalMethodCalledExternally: CategoryAuthorization,
		CodeSendError:                      CategorySettlement,
		CodeRecruitEndedWithNoParticipants: CategoryOutcome,
		CodeChallengeNotFound:              CategoryNotFound,
		Code("SOMETHING_ELSE"):             CategoryInternal,
	}
	for code, want := range cases {
		if got := code.Category(); got != want {
			t.Fatalf("%s.Category() = %s, want %s", code, got, want)
		}
	}
	if !CodeRecruitEndedWithNoParticipants.StateCommitted() || CodeNotEnoughFunds.StateCommitted() {
		t.Fatal("unexpected StateCommitted result")
	}
}

func TestLocalizedMessage(t *testing.T) {
	err := WithMetadata(CodeNotEnoughFunds, "not enough funds", map[string]string{"Expected": "10", "Actual": "3"})
	if got := err.LocalizedMessage("en-US"); got != "Not enough funds: expected 10, got 3." {
		t.Fatalf("en-US message = %q", got)
	}
	if got := err.LocalizedMessage("pt-BR"); got != "Fundos insuficientes: esperado 10, recebido 3." {
		t.Fatalf("pt-BR message = %q", got)
	}
}
