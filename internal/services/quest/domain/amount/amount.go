// Package amount models the unsigned 128-bit value unit used for entry fees,
// payments, and prize pools.
//
// Values are held in a 256-bit integer so proportional settlement can multiply
// two 128-bit values without overflow; every constructor and Add keep the
// result inside the 128-bit range.
package amount

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/holiman/uint256"
)

// Bits is the width of the value domain.
const Bits = 128

var (
	// ErrInvalid indicates a value that is not a base-10 unsigned integer.
	ErrInvalid = errors.New("amount must be an unsigned base-10 integer")
	// ErrOutOfRange indicates a value that does not fit in 128 bits.
	ErrOutOfRange = errors.New("amount exceeds 128 bits")
)

// Amount is an unsigned 128-bit quantity. The zero value is zero.
type Amount struct {
	v uint256.Int
}

// Zero is the additive identity.
var Zero = Amount{}

// Max returns the largest representable amount (2^128 - 1).
func Max() Amount {
	var one, out uint256.Int
	one.SetOne()
	out.Lsh(&one, Bits)
	out.Sub(&out, &one)
	return Amount{v: out}
}

// FromUint64 converts a uint64.
func FromUint64(value uint64) Amount {
	var out Amount
	out.v.SetUint64(value)
	return out
}

// Parse reads a base-10 string.
func Parse(value string) (Amount, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return Amount{}, ErrInvalid
	}
	if strings.HasPrefix(value, "+") || strings.HasPrefix(value, "-") {
		return Amount{}, ErrInvalid
	}
	var out Amount
	if err := out.v.SetFromDecimal(value); err != nil {
		if errors.Is(err, uint256.ErrBig256Range) {
			return Amount{}, ErrOutOfRange
		}
		return Amount{}, fmt.Errorf("%w: %q", ErrInvalid, value)
	}
	if out.v.BitLen() > Bits {
		return Amount{}, ErrOutOfRange
	}
	return out, nil
}

// MustParse is Parse for constants and tests.
func MustParse(value string) Amount {
	out, err := Parse(value)
	if err != nil {
		panic(err)
	}
	return out
}

// String renders the base-10 value.
func (a Amount) String() string {
	return a.v.Dec()
}

// IsZero reports whether a is zero.
func (a Amount) IsZero() bool {
	return a.v.IsZero()
}

// Cmp returns -1, 0, or +1 comparing a to b.
func (a Amount) Cmp(b Amount) int {
	return a.v.Cmp(&b.v)
}

// Less reports whether a < b.
func (a Amount) Less(b Amount) bool {
	return a.v.Lt(&b.v)
}

// Equal reports whether a == b.
func (a Amount) Equal(b Amount) bool {
	return a.v.Eq(&b.v)
}

// Uint64 returns the value and whether it fits in a uint64.
func (a Amount) Uint64() (uint64, bool) {
	return a.v.Uint64(), a.v.IsUint64()
}

// Add returns a+b. ok is false when the sum leaves the 128-bit range, in which
// case the returned amount is undefined.
func (a Amount) Add(b Amount) (sum Amount, ok bool) {
	sum.v.Add(&a.v, &b.v)
	return sum, sum.v.BitLen() <= Bits
}

// Sum adds values, reporting false on 128-bit overflow.
func Sum(values ...Amount) (Amount, bool) {
	total := Zero
	for _, value := range values {
		next, ok := total.Add(value)
		if !ok {
			return Amount{}, false
		}
		total = next
	}
	return total, true
}

// MulDiv returns floor(a*b/d). The product is computed in 256 bits, so it
// cannot overflow for 128-bit operands. A zero divisor yields zero.
func MulDiv(a, b, d Amount) Amount {
	if d.v.IsZero() {
		return Zero
	}
	var product, out uint256.Int
	product.Mul(&a.v, &b.v)
	out.Div(&product, &d.v)
	return Amount{v: out}
}

// MarshalJSON encodes the amount as a decimal string so 128-bit values survive
// JSON consumers that decode numbers as float64.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON accepts either a decimal string or a bare JSON integer.
func (a *Amount) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*a = Zero
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		raw = text
	}
	parsed, err := Parse(raw)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (a Amount) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Amount) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
