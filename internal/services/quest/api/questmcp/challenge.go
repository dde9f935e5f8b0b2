package questmcp

import (
	"encoding/json"

	"github.com/louisbranch/chronoquest/internal/services/quest/query"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ChallengeCreateInput represents the MCP tool input for challenge creation.
type ChallengeCreateInput struct {
	Actor     string `json:"actor" jsonschema:"calling account"`
	Value     string `json:"value,omitempty" jsonschema:"attached value as a decimal string, refunded on rejection"`
	Name      string `json:"name" jsonschema:"challenge name"`
	EntryFee  string `json:"entry_fee" jsonschema:"minimum payment to join or sponsor, decimal string"`
	Timezone  int    `json:"timezone" jsonschema:"whole-hour UTC offset in [-12, 12]"`
	StartTime uint64 `json:"start_time" jsonschema:"execution start, unix seconds at local midnight"`
	EndTime   uint64 `json:"end_time" jsonschema:"execution end, unix seconds at local midnight"`
	Locale    string `json:"locale,omitempty" jsonschema:"locale for rejection messages (en-US, pt-BR)"`
}

// ChallengePaymentInput represents the MCP tool input for join and sponsor.
type ChallengePaymentInput struct {
	Actor  string `json:"actor" jsonschema:"calling account"`
	Value  string `json:"value" jsonschema:"payment as a decimal string"`
	ID     uint64 `json:"id" jsonschema:"challenge identifier"`
	Locale string `json:"locale,omitempty" jsonschema:"locale for rejection messages (en-US, pt-BR)"`
}

// ChallengeCompleteDailyInput represents the MCP tool input for a daily report.
type ChallengeCompleteDailyInput struct {
	Actor  string `json:"actor" jsonschema:"calling participant"`
	ID     uint64 `json:"id" jsonschema:"challenge identifier"`
	Locale string `json:"locale,omitempty" jsonschema:"locale for rejection messages (en-US, pt-BR)"`
}

// CommandResult represents the outcome of a dispatched command.
type CommandResult struct {
	RequestID   string          `json:"request_id"`
	Accepted    bool            `json:"accepted"`
	ChallengeID *uint64         `json:"challenge_id,omitempty"`
	Events      []EventEntry    `json:"events"`
	Rejections  []RejectionInfo `json:"rejections,omitempty"`
	Refund      string          `json:"refund,omitempty"`
}

// EventEntry represents one committed event.
type EventEntry struct {
	Seq         uint64          `json:"seq"`
	Type        string          `json:"type"`
	ChallengeID uint64          `json:"challenge_id"`
	Timestamp   string          `json:"timestamp"`
	Payload     json.RawMessage `json:"payload"`
}

// RejectionInfo represents one typed rejection.
type RejectionInfo struct {
	Code     string            `json:"code"`
	Category string            `json:"category"`
	Message  string            `json:"message"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// ChallengeCountInput represents the MCP tool input for the registry size.
type ChallengeCountInput struct{}

// ChallengeCountResult represents the registry size.
type ChallengeCountResult struct {
	Count uint64 `json:"count"`
}

// ChallengeGetInput represents the MCP tool input for a single challenge.
type ChallengeGetInput struct {
	ID uint64 `json:"id" jsonschema:"challenge identifier"`
}

// ChallengeListInput represents the MCP tool input for challenge listings.
type ChallengeListInput struct {
	Filter             string `json:"filter,omitempty" jsonschema:"ALL, CREATED, JOINED, or SPONSORED"`
	Account            string `json:"account,omitempty" jsonschema:"account for CREATED, JOINED, and SPONSORED filters"`
	IncludeRecruiting  bool   `json:"include_recruiting,omitempty" jsonschema:"include recruiting challenges"`
	IncludeRecruitFail bool   `json:"include_recruit_failed,omitempty" jsonschema:"include challenges whose recruitment failed"`
	IncludeExecuting   bool   `json:"include_executing,omitempty" jsonschema:"include executing challenges"`
	IncludeCompleted   bool   `json:"include_completed,omitempty" jsonschema:"include completed challenges"`
	Offset             uint64 `json:"offset,omitempty" jsonschema:"matches to skip"`
	Count              uint64 `json:"count" jsonschema:"maximum matches to return"`
}

// ChallengeListResult represents a page of challenges.
type ChallengeListResult struct {
	Challenges []query.ChallengeView `json:"challenges"`
}

// ChallengeWindowInput represents the MCP tool input for window planning.
type ChallengeWindowInput struct {
	Timezone    int    `json:"timezone" jsonschema:"whole-hour UTC offset in [-12, 12]"`
	RecruitDays uint32 `json:"recruit_days" jsonschema:"days from today until execution starts"`
	ExecuteDays uint32 `json:"execute_days" jsonschema:"length of the execution window in days"`
	From        uint64 `json:"from,omitempty" jsonschema:"reference unix seconds, defaults to now"`
}

// ChallengeWindowResult represents start and end times valid for creation.
type ChallengeWindowResult struct {
	StartTime uint64 `json:"start_time"`
	EndTime   uint64 `json:"end_time"`
	StartsAt  string `json:"starts_at"`
	EndsAt    string `json:"ends_at"`
}

// TransferListInput represents the MCP tool input for the transfer ledger.
type TransferListInput struct {
	Account     string  `json:"account,omitempty" jsonschema:"receiving account"`
	ChallengeID *uint64 `json:"challenge_id,omitempty" jsonschema:"challenge identifier"`
	Kind        string  `json:"kind,omitempty" jsonschema:"prize or refund"`
	Limit       int     `json:"limit,omitempty" jsonschema:"maximum entries to return (default 50)"`
}

// TransferEntry represents one ledger entry.
type TransferEntry struct {
	ID          int64  `json:"id"`
	ChallengeID uint64 `json:"challenge_id"`
	Account     string `json:"account"`
	Value       string `json:"value"`
	Kind        string `json:"kind"`
	RequestID   string `json:"request_id,omitempty"`
	CreatedAt   string `json:"created_at"`
}

// TransferListResult represents a page of the ledger.
type TransferListResult struct {
	Transfers []TransferEntry `json:"transfers"`
}

// ChallengeCreateTool defines the MCP tool schema for challenge creation.
func ChallengeCreateTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "challenge_create",
		Description: "Creates a challenge and schedules the end of its recruitment",
	}
}

// ChallengeJoinTool defines the MCP tool schema for joining a challenge.
func ChallengeJoinTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "challenge_join",
		Description: "Joins a recruiting challenge, paying at least the entry fee",
	}
}

// ChallengeSponsorTool defines the MCP tool schema for sponsoring a challenge.
func ChallengeSponsorTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "challenge_sponsor",
		Description: "Adds a sponsorship of at least the entry fee to the prize pool",
	}
}

// ChallengeCompleteDailyTool defines the MCP tool schema for daily reports.
func ChallengeCompleteDailyTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "challenge_complete_daily",
		Description: "Records today's completion for a participant of an executing challenge",
	}
}

// ChallengeCountTool defines the MCP tool schema for the registry size.
func ChallengeCountTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "challenge_count",
		Description: "Returns how many challenges were ever created",
	}
}

// ChallengeGetTool defines the MCP tool schema for a single challenge.
func ChallengeGetTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "challenge_get",
		Description: "Returns one challenge by identifier",
	}
}

// ChallengeListTool defines the MCP tool schema for challenge listings.
func ChallengeListTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "challenge_list",
		Description: "Lists challenges by filter and status, paged by offset and count",
	}
}

// ChallengeWindowTool defines the MCP tool schema for window planning.
func ChallengeWindowTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "challenge_window",
		Description: "Computes local-midnight start and end times for a new challenge",
	}
}

// TransferListTool defines the MCP tool schema for the transfer ledger.
func TransferListTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "transfer_list",
		Description: "Lists prizes and refunds paid out by the program",
	}
}

// ChallengeResourceTemplate defines the MCP resource template for a challenge.
func ChallengeResourceTemplate() *mcp.ResourceTemplate {
	return &mcp.ResourceTemplate{
		Name:        "challenge",
		Title:       "Challenge",
		Description: "Challenge state as JSON. URI format: challenge://{id}",
		MIMEType:    "application/json",
		URITemplate: "challenge://{id}",
	}
}
