package questmcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	apperrors "github.com/louisbranch/chronoquest/internal/platform/errors"
	"github.com/louisbranch/chronoquest/internal/platform/id"
	"github.com/louisbranch/chronoquest/internal/platform/timeouts"
	"github.com/louisbranch/chronoquest/internal/services/quest/domain/account"
	"github.com/louisbranch/chronoquest/internal/services/quest/domain/amount"
	"github.com/louisbranch/chronoquest/internal/services/quest/domain/challenge"
	"github.com/louisbranch/chronoquest/internal/services/quest/domain/command"
	"github.com/louisbranch/chronoquest/internal/services/quest/domain/daytime"
	"github.com/louisbranch/chronoquest/internal/services/quest/domain/engine"
	"github.com/louisbranch/chronoquest/internal/services/quest/host"
	"github.com/louisbranch/chronoquest/internal/services/quest/query"
	"github.com/louisbranch/chronoquest/internal/services/quest/storage"
)

const defaultTransferLimit = 50

// Dispatcher runs a command through the program.
type Dispatcher interface {
	Dispatch(ctx context.Context, cmd command.Command) (engine.Result, error)
}

// TransferLister reads the transfer ledger.
type TransferLister interface {
	ListTransfers(ctx context.Context, filter storage.TransferFilter) ([]storage.TransferRecord, error)
}

// ChallengeCreateHandler executes a challenge create command.
func ChallengeCreateHandler(dispatcher Dispatcher) mcp.ToolHandlerFor[ChallengeCreateInput, CommandResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ChallengeCreateInput) (*mcp.CallToolResult, CommandResult, error) {
		value, err := parseValue(input.Value)
		if err != nil {
			return nil, CommandResult{}, err
		}
		entryFee, err := amount.Parse(input.EntryFee)
		if err != nil {
			return nil, CommandResult{}, fmt.Errorf("entry_fee: %w", err)
		}
		payload, err := json.Marshal(challenge.CreatePayload{
			Name:      input.Name,
			EntryFee:  entryFee,
			Timezone:  input.Timezone,
			StartTime: input.StartTime,
			EndTime:   input.EndTime,
		})
		if err != nil {
			return nil, CommandResult{}, fmt.Errorf("encode payload: %w", err)
		}
		return dispatch(ctx, dispatcher, command.Command{
			Type:        challenge.CommandTypeCreate,
			ActorID:     input.Actor,
			Value:       value,
			PayloadJSON: payload,
		}, input.Locale)
	}
}

// ChallengeJoinHandler executes a challenge join command.
func ChallengeJoinHandler(dispatcher Dispatcher) mcp.ToolHandlerFor[ChallengePaymentInput, CommandResult] {
	return paymentHandler(dispatcher, challenge.CommandTypeJoin)
}

// ChallengeSponsorHandler executes a challenge sponsor command.
func ChallengeSponsorHandler(dispatcher Dispatcher) mcp.ToolHandlerFor[ChallengePaymentInput, CommandResult] {
	return paymentHandler(dispatcher, challenge.CommandTypeSponsor)
}

func paymentHandler(dispatcher Dispatcher, cmdType command.Type) mcp.ToolHandlerFor[ChallengePaymentInput, CommandResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ChallengePaymentInput) (*mcp.CallToolResult, CommandResult, error) {
		value, err := parseValue(input.Value)
		if err != nil {
			return nil, CommandResult{}, err
		}
		payload, _ := json.Marshal(challenge.TargetPayload{ID: input.ID})
		return dispatch(ctx, dispatcher, command.Command{
			Type:        cmdType,
			ActorID:     input.Actor,
			Value:       value,
			PayloadJSON: payload,
		}, input.Locale)
	}
}

// ChallengeCompleteDailyHandler executes a daily completion command.
func ChallengeCompleteDailyHandler(dispatcher Dispatcher) mcp.ToolHandlerFor[ChallengeCompleteDailyInput, CommandResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ChallengeCompleteDailyInput) (*mcp.CallToolResult, CommandResult, error) {
		payload, _ := json.Marshal(challenge.TargetPayload{ID: input.ID})
		return dispatch(ctx, dispatcher, command.Command{
			Type:        challenge.CommandTypeCompleteDaily,
			ActorID:     input.Actor,
			PayloadJSON: payload,
		}, input.Locale)
	}
}

func dispatch(ctx context.Context, dispatcher Dispatcher, cmd command.Command, locale string) (*mcp.CallToolResult, CommandResult, error) {
	if dispatcher == nil {
		return nil, CommandResult{}, fmt.Errorf("command dispatcher is not configured")
	}
	requestID, err := id.NewID()
	if err != nil {
		return nil, CommandResult{}, fmt.Errorf("generate request id: %w", err)
	}
	cmd.RequestID = requestID
	runCtx, cancel := context.WithTimeout(ctx, timeouts.ToolCall)
	defer cancel()

	result, err := dispatcher.Dispatch(runCtx, cmd)
	if err != nil {
		return nil, CommandResult{}, fmt.Errorf("%s failed: %w", cmd.Type, err)
	}
	out := newCommandResult(result, locale)
	out.RequestID = requestID
	if cmd.Type == challenge.CommandTypeCreate {
		for _, evt := range result.Events {
			if evt.Type == challenge.EventTypeCreated {
				challengeID := evt.ChallengeID
				out.ChallengeID = &challengeID
			}
		}
	}
	return &mcp.CallToolResult{IsError: !out.Accepted}, out, nil
}

func newCommandResult(result engine.Result, locale string) CommandResult {
	out := CommandResult{
		Accepted: len(result.Events) > 0,
		Events:   make([]EventEntry, 0, len(result.Events)),
	}
	for _, evt := range result.Events {
		out.Events = append(out.Events, EventEntry{
			Seq:         evt.Seq,
			Type:        string(evt.Type),
			ChallengeID: evt.ChallengeID,
			Timestamp:   evt.Timestamp.UTC().Format(time.RFC3339),
			Payload:     json.RawMessage(evt.PayloadJSON),
		})
	}
	for _, rejection := range result.Rejections {
		appErr := apperrors.WithMetadata(apperrors.Code(rejection.Code), rejection.Message, rejection.Metadata)
		out.Rejections = append(out.Rejections, RejectionInfo{
			Code:     rejection.Code,
			Category: string(appErr.Code.Category()),
			Message:  appErr.LocalizedMessage(locale),
			Metadata: rejection.Metadata,
		})
	}
	if !result.Refund.IsZero() {
		out.Refund = result.Refund.String()
	}
	return out
}

// ChallengeCountHandler returns the registry size.
func ChallengeCountHandler(queries query.Service) mcp.ToolHandlerFor[ChallengeCountInput, ChallengeCountResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ ChallengeCountInput) (*mcp.CallToolResult, ChallengeCountResult, error) {
		count, err := queries.TotalChallengeCount(ctx)
		if err != nil {
			return nil, ChallengeCountResult{}, fmt.Errorf("challenge count failed: %w", err)
		}
		return nil, ChallengeCountResult{Count: count}, nil
	}
}

// ChallengeGetHandler returns one challenge.
func ChallengeGetHandler(queries query.Service) mcp.ToolHandlerFor[ChallengeGetInput, query.ChallengeView] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ChallengeGetInput) (*mcp.CallToolResult, query.ChallengeView, error) {
		state, err := queries.Challenge(ctx, input.ID)
		if err != nil {
			return nil, query.ChallengeView{}, fmt.Errorf("challenge get failed: %w", err)
		}
		return nil, query.NewChallengeView(state), nil
	}
}

// ChallengeListHandler returns a page of challenges.
func ChallengeListHandler(queries query.Service) mcp.ToolHandlerFor[ChallengeListInput, ChallengeListResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ChallengeListInput) (*mcp.CallToolResult, ChallengeListResult, error) {
		states, err := queries.Challenges(ctx, query.ChallengesRequest{
			Filter:             input.Filter,
			Account:            input.Account,
			IncludeRecruiting:  input.IncludeRecruiting,
			IncludeRecruitFail: input.IncludeRecruitFail,
			IncludeExecuting:   input.IncludeExecuting,
			IncludeCompleted:   input.IncludeCompleted,
			Offset:             input.Offset,
			Count:              input.Count,
		})
		if err != nil {
			return nil, ChallengeListResult{}, fmt.Errorf("challenge list failed: %w", err)
		}
		return nil, ChallengeListResult{Challenges: query.NewChallengeViews(states)}, nil
	}
}

// ChallengeWindowHandler computes a valid creation window.
func ChallengeWindowHandler(clock host.Clock) mcp.ToolHandlerFor[ChallengeWindowInput, ChallengeWindowResult] {
	return func(_ context.Context, _ *mcp.CallToolRequest, input ChallengeWindowInput) (*mcp.CallToolResult, ChallengeWindowResult, error) {
		if !daytime.ValidTimezone(input.Timezone) {
			return nil, ChallengeWindowResult{}, fmt.Errorf("timezone %d is outside [-12, 12]", input.Timezone)
		}
		if input.RecruitDays == 0 {
			return nil, ChallengeWindowResult{}, fmt.Errorf("recruit_days must be at least 1")
		}
		if input.ExecuteDays == 0 {
			return nil, ChallengeWindowResult{}, fmt.Errorf("execute_days must be at least 1")
		}
		from := input.From
		if from == 0 {
			now := time.Now()
			if clock != nil {
				now = clock.Now()
			}
			from = daytime.Unix(now)
		}
		start := daytime.FutureDayStart(from, int8(input.Timezone), input.RecruitDays)
		end := daytime.FutureDayStart(start, int8(input.Timezone), input.ExecuteDays)
		return nil, ChallengeWindowResult{
			StartTime: start,
			EndTime:   end,
			StartsAt:  daytime.Time(start).Format(time.RFC3339),
			EndsAt:    daytime.Time(end).Format(time.RFC3339),
		}, nil
	}
}

// TransferListHandler returns ledger entries.
func TransferListHandler(lister TransferLister) mcp.ToolHandlerFor[TransferListInput, TransferListResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input TransferListInput) (*mcp.CallToolResult, TransferListResult, error) {
		if lister == nil {
			return nil, TransferListResult{}, fmt.Errorf("transfer ledger is not configured")
		}
		limit := input.Limit
		if limit <= 0 {
			limit = defaultTransferLimit
		}
		records, err := lister.ListTransfers(ctx, storage.TransferFilter{
			Account:     account.ID(strings.TrimSpace(input.Account)),
			ChallengeID: input.ChallengeID,
			Kind:        host.TransferKind(strings.ToLower(strings.TrimSpace(input.Kind))),
			Limit:       limit,
		})
		if err != nil {
			return nil, TransferListResult{}, fmt.Errorf("transfer list failed: %w", err)
		}
		out := TransferListResult{Transfers: make([]TransferEntry, 0, len(records))}
		for _, record := range records {
			out.Transfers = append(out.Transfers, TransferEntry{
				ID:          record.ID,
				ChallengeID: record.ChallengeID,
				Account:     record.Account.String(),
				Value:       record.Value.String(),
				Kind:        string(record.Kind),
				RequestID:   record.RequestID,
				CreatedAt:   record.CreatedAt.UTC().Format(time.RFC3339),
			})
		}
		return nil, out, nil
	}
}

// ChallengeResourceHandler reads challenge://{id}.
func ChallengeResourceHandler(queries query.Service) mcp.ResourceHandler {
	return func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		if req == nil || req.Params == nil || req.Params.URI == "" {
			return nil, fmt.Errorf("challenge ID is required; use URI format challenge://{id}")
		}
		uri := req.Params.URI
		id, err := parseChallengeURI(uri)
		if err != nil {
			return nil, err
		}
		state, err := queries.Challenge(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("challenge get failed: %w", err)
		}
		data, err := json.MarshalIndent(query.NewChallengeView(state), "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshal challenge: %w", err)
		}
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{
				{
					URI:      uri,
					MIMEType: "application/json",
					Text:     string(data),
				},
			},
		}, nil
	}
}

func parseChallengeURI(uri string) (uint64, error) {
	const prefix = "challenge://"
	if !strings.HasPrefix(uri, prefix) {
		return 0, fmt.Errorf("invalid URI format: expected challenge://{id}")
	}
	id, err := strconv.ParseUint(strings.TrimSuffix(strings.TrimPrefix(uri, prefix), "/"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid challenge id in URI %q: %w", uri, err)
	}
	return id, nil
}

func parseValue(raw string) (amount.Amount, error) {
	if strings.TrimSpace(raw) == "" {
		return amount.Amount{}, nil
	}
	value, err := amount.Parse(raw)
	if err != nil {
		return amount.Amount{}, fmt.Errorf("value: %w", err)
	}
	return value, nil
}
