// Package core provides money parsing and handling utilities.
//
// Amounts are kept as integer paise so that sums over a customer's history
// never drift. The wire format is a plain decimal number of rupees.
package core

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// MaxRupees bounds any single amount. Paise for it, and sums over a long
// ledger history, stay far inside int64.
const (
	MaxRupees = 1_000_000_000_000
	maxPaise  = MaxRupees * 100
)

// Money is an amount in paise (1/100 rupee).
type Money struct {
	Paise int64
}

// Rupees builds a Money from a rupee value, rounding half away from zero.
// The value must be finite and within MaxRupees; use RupeesChecked for
// input that is not.
func Rupees(v float64) Money {
	return Money{Paise: int64(math.Round(v * 100))}
}

// RupeesChecked is Rupees for untrusted input. NaN, infinities and values
// beyond MaxRupees in either direction are rejected with ErrInvalidAmount.
func RupeesChecked(v float64) (Money, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) > MaxRupees {
		return Money{}, ErrInvalidAmount
	}
	return Rupees(v), nil
}

// Value returns the rupee value as a float64 for display purposes.
// Use Paise for calculations.
func (m Money) Value() float64 {
	return float64(m.Paise) / 100.0
}

func (m Money) Add(o Money) Money { return Money{Paise: m.Paise + o.Paise} }
func (m Money) Sub(o Money) Money { return Money{Paise: m.Paise - o.Paise} }

func (m Money) IsZero() bool     { return m.Paise == 0 }
func (m Money) IsPositive() bool { return m.Paise > 0 }

// FloorZero clamps negative amounts to zero.
func (m Money) FloorZero() Money {
	if m.Paise < 0 {
		return Money{}
	}
	return m
}

// InRange reports whether the amount lies within ±MaxRupees.
func (m Money) InRange() bool {
	return m.Paise >= -maxPaise && m.Paise <= maxPaise
}

// Validate accepts positive amounts up to MaxRupees. Sub-paise input has
// already rounded to zero and is rejected here.
func (m Money) Validate() error {
	if m.Paise <= 0 || m.Paise > maxPaise {
		return ErrInvalidAmount
	}
	return nil
}

// String renders the amount as "Rs. 1234.50".
func (m Money) String() string {
	return FormatCurrency(m)
}

// FormatCurrency renders an amount with the rupee prefix and two decimals.
func FormatCurrency(m Money) string {
	return fmt.Sprintf("Rs. %.2f", m.Value())
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatFloat(m.Value(), 'f', -1, 64)), nil
}

// UnmarshalJSON accepts a JSON number or a numeric string. Empty strings
// and null decode to zero, matching records written by older clients.
// Amounts beyond MaxRupees are ErrInvalidAmount.
func (m *Money) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		m.Paise = 0
		return nil
	}
	s := string(data)
	if data[0] == '"' {
		unq, err := strconv.Unquote(s)
		if err != nil {
			return fmt.Errorf("decode amount: %w", err)
		}
		s = strings.TrimSpace(unq)
		if s == "" {
			m.Paise = 0
			return nil
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("decode amount %q: %w", s, ErrInvalidAmount)
	}
	checked, err := RupeesChecked(v)
	if err != nil {
		return fmt.Errorf("decode amount %q: %w", s, err)
	}
	*m = checked
	return nil
}

// ParseAmount converts a decimal string to Money with proper rounding.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and performs
// half-up rounding on the third decimal place. Zero, negative, malformed
// and over-MaxRupees input is rejected with ErrInvalidAmount.
//
//	ParseAmount("500")    -> 50000 paise
//	ParseAmount("12,34")  -> 1234 paise
//	ParseAmount("12.346") -> 1235 paise
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return Money{}, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return Money{}, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart + fracPart {
		if !unicode.IsDigit(r) {
			return Money{}, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	if iv > MaxRupees {
		return Money{}, ErrInvalidAmount
	}
	var frac int64
	if len(fracPart) > 0 {
		frac = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			frac += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				frac++
			}
		}
	}
	m := Money{Paise: iv*100 + frac}
	if err := m.Validate(); err != nil {
		return Money{}, err
	}
	return m, nil
}
