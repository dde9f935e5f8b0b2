package aggregate

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/louisbranch/chronoquest/internal/services/quest/domain/challenge"
	"github.com/louisbranch/chronoquest/internal/services/quest/domain/command"
)

const rejectionCodeChallengeNotFound = "CHALLENGE_NOT_FOUND"

// Decide routes a command to the addressed challenge. Create commands are
// decided against a fresh challenge carrying the next dense id.
func Decide(state State, cmd command.Command, now func() time.Time) command.Decision {
	if cmd.Type == challenge.CommandTypeCreate {
		return challenge.Decide(challenge.State{ID: state.NextID()}, cmd, now)
	}
	var target challenge.TargetPayload
	_ = json.Unmarshal(cmd.PayloadJSON, &target)
	if target.ID >= state.Count() {
		return command.Reject(command.Rejection{
			Code:     rejectionCodeChallengeNotFound,
			Message:  "challenge not found",
			Metadata: map[string]string{"ID": strconv.FormatUint(target.ID, 10)},
		})
	}
	return challenge.Decide(state.Challenges[target.ID], cmd, now)
}

// Decider adapts Decide to the engine decider contract.
type Decider struct{}

// Decide implements the engine decider contract.
func (Decider) Decide(state State, cmd command.Command, now func() time.Time) command.Decision {
	return Decide(state, cmd, now)
}
