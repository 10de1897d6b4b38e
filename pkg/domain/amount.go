package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	dErrors "pulseaid/pkg/domain-errors"
)

var weiPerEther = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// Amount is a non-fractional quantity of wei. The zero value is 0 and every
// operation returns a new Amount; the underlying big.Int is never shared.
type Amount struct {
	wei *big.Int
}

func NewAmount(wei int64) Amount {
	return Amount{wei: big.NewInt(wei)}
}

// AmountFromBig copies v into a new Amount.
func AmountFromBig(v *big.Int) Amount {
	if v == nil {
		return Amount{}
	}
	return Amount{wei: new(big.Int).Set(v)}
}

// ParseAmount parses a base-10 wei quantity.
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Amount{}, dErrors.New(dErrors.CodeInvalidAmount, "amount must be a base-10 wei integer")
	}
	return Amount{wei: v}, nil
}

// ParseEther parses a decimal ether quantity such as "0.05" into wei.
// Quantities finer than one wei are rejected.
func ParseEther(s string) (Amount, error) {
	r, ok := new(big.Rat).SetString(strings.TrimSpace(s))
	if !ok {
		return Amount{}, dErrors.New(dErrors.CodeInvalidAmount, "invalid ether amount")
	}
	r.Mul(r, new(big.Rat).SetInt(weiPerEther))
	if !r.IsInt() {
		return Amount{}, dErrors.New(dErrors.CodeInvalidAmount, "ether amount has more than 18 decimals")
	}
	return Amount{wei: new(big.Int).Set(r.Num())}, nil
}

// MustEther is ParseEther for constants and tests.
func MustEther(s string) Amount {
	a, err := ParseEther(s)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Amount) big() *big.Int {
	if a.wei == nil {
		return new(big.Int)
	}
	return a.wei
}

// Big returns a copy of the wei value.
func (a Amount) Big() *big.Int {
	return new(big.Int).Set(a.big())
}

func (a Amount) Add(b Amount) Amount {
	return Amount{wei: new(big.Int).Add(a.big(), b.big())}
}

func (a Amount) Sub(b Amount) Amount {
	return Amount{wei: new(big.Int).Sub(a.big(), b.big())}
}

// MulDiv returns floor(a * num / den). den must be non-zero.
func (a Amount) MulDiv(num, den uint64) Amount {
	v := new(big.Int).Mul(a.big(), new(big.Int).SetUint64(num))
	return Amount{wei: v.Quo(v, new(big.Int).SetUint64(den))}
}

func (a Amount) Cmp(b Amount) int {
	return a.big().Cmp(b.big())
}

func (a Amount) Sign() int {
	return a.big().Sign()
}

func (a Amount) IsZero() bool {
	return a.Sign() == 0
}

func (a Amount) IsPositive() bool {
	return a.Sign() > 0
}

func (a Amount) LessThan(b Amount) bool {
	return a.Cmp(b) < 0
}

func (a Amount) Equal(b Amount) bool {
	return a.Cmp(b) == 0
}

func (a Amount) String() string {
	return a.big().String()
}

// MarshalJSON encodes the amount as a decimal string so clients never lose precision.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return dErrors.New(dErrors.CodeInvalidAmount, "amount must be a string or integer")
		}
		s = n.String()
	}
	parsed, err := ParseAmount(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Value stores the amount as NUMERIC text.
func (a Amount) Value() (driver.Value, error) {
	return a.String(), nil
}

func (a *Amount) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*a = Amount{}
		return nil
	case int64:
		*a = NewAmount(v)
		return nil
	case []byte:
		return a.scanString(string(v))
	case string:
		return a.scanString(v)
	default:
		return fmt.Errorf("scan amount: unsupported type %T", src)
	}
}

func (a *Amount) scanString(s string) error {
	parsed, err := ParseAmount(s)
	if err != nil {
		return fmt.Errorf("scan amount %q: %w", s, err)
	}
	*a = parsed
	return nil
}
