package scenario

import (
	"fmt"
	"log"
	"math"
	"strings"

	"github.com/louisbranch/chronoquest/internal/services/quest/domain/amount"
	"github.com/louisbranch/chronoquest/internal/services/quest/domain/command"
)

// AssertionMode controls whether failed expectations stop the scenario.
type AssertionMode int

const (
	// AssertionStrict fails the scenario on the first unmet expectation.
	AssertionStrict AssertionMode = iota
	// AssertionLogOnly logs unmet expectations and keeps going.
	AssertionLogOnly
)

// Assertions reports unmet expectations according to Mode.
type Assertions struct {
	Mode   AssertionMode
	Logger *log.Logger
}

// Failf reports an unmet expectation.
func (a Assertions) Failf(format string, args ...any) error {
	err := fmt.Errorf(format, args...)
	if a.Mode == AssertionLogOnly {
		if a.Logger != nil {
			a.Logger.Printf("expectation: %v", err)
		}
		return nil
	}
	return err
}

func stringArg(args map[string]any, key string) string {
	value, _ := args[key].(string)
	return strings.TrimSpace(value)
}

func requiredString(args map[string]any, key string) (string, error) {
	value := stringArg(args, key)
	if value == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return value, nil
}

func toUint64(value any) (uint64, error) {
	switch v := value.(type) {
	case int:
		if v < 0 {
			return 0, fmt.Errorf("value %d is negative", v)
		}
		return uint64(v), nil
	case int64:
		if v < 0 {
			return 0, fmt.Errorf("value %d is negative", v)
		}
		return uint64(v), nil
	case float64:
		if v < 0 || v != math.Trunc(v) || v > math.MaxUint64 {
			return 0, fmt.Errorf("value %v is not a whole number", v)
		}
		return uint64(v), nil
	default:
		return 0, fmt.Errorf("number expected, got %T", value)
	}
}

func toInt64(value any) (int64, error) {
	switch v := value.(type) {
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("value %v is not a whole number", v)
		}
		return int64(v), nil
	default:
		return 0, fmt.Errorf("number expected, got %T", value)
	}
}

func uintArg(args map[string]any, key string, fallback uint64) (uint64, error) {
	value, ok := args[key]
	if !ok || value == nil {
		return fallback, nil
	}
	parsed, err := toUint64(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return parsed, nil
}

func intArg(args map[string]any, key string, fallback int64) (int64, error) {
	value, ok := args[key]
	if !ok || value == nil {
		return fallback, nil
	}
	parsed, err := toInt64(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return parsed, nil
}

// amountArg reads a number or a decimal string. Strings carry values past
// the float range of Lua numbers.
func amountArg(args map[string]any, key string) (amount.Amount, bool, error) {
	value, ok := args[key]
	if !ok || value == nil {
		return amount.Amount{}, false, nil
	}
	if text, isString := value.(string); isString {
		parsed, err := amount.Parse(text)
		if err != nil {
			return amount.Amount{}, false, fmt.Errorf("%s: %w", key, err)
		}
		return parsed, true, nil
	}
	parsed, err := toUint64(value)
	if err != nil {
		return amount.Amount{}, false, fmt.Errorf("%s: %w", key, err)
	}
	return amount.FromUint64(parsed), true, nil
}

func listArg(args map[string]any, key string) []any {
	switch value := args[key].(type) {
	case []any:
		return value
	case map[string]any:
		// An empty Lua table converts to a map.
		if len(value) == 0 {
			return []any{}
		}
	}
	return nil
}

func rejectionCodes(rejections []command.Rejection) []string {
	codes := make([]string, 0, len(rejections))
	for _, rejection := range rejections {
		codes = append(codes, rejection.Code)
	}
	return codes
}

func hasCode(rejections []command.Rejection, code string) bool {
	for _, rejection := range rejections {
		if rejection.Code == code {
			return true
		}
	}
	return false
}
