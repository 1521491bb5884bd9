package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/fleetdesk/contracts/config"
)

var (
	ErrNegativePrice = errors.New("price must not be negative")
	ErrNoBracket     = errors.New("no fee bracket covers the price")
)

var hundred = decimal.NewFromInt(100)

// FeeBracket charges Flat plus Percent of the hammer price for prices up to
// and including UpTo. A nil UpTo is unbounded.
type FeeBracket struct {
	UpTo    *decimal.Decimal
	Flat    decimal.Decimal
	Percent decimal.Decimal
}

// FeeSchedule is an ordered list of auction buyer-fee brackets
type FeeSchedule struct {
	Brackets []FeeBracket
	MinFee   *decimal.Decimal
	MaxFee   *decimal.Decimal
}

// DefaultFeeSchedule is used when no pricing brackets are configured
func DefaultFeeSchedule() *FeeSchedule {
	maxFee := decimal.NewFromInt(1500)
	return &FeeSchedule{
		Brackets: []FeeBracket{
			{UpTo: decimalPtr(1000), Flat: decimal.NewFromInt(50)},
			{UpTo: decimalPtr(5000), Flat: decimal.NewFromInt(75), Percent: decimal.NewFromInt(2)},
			{UpTo: decimalPtr(15000), Flat: decimal.NewFromInt(150), Percent: decimal.RequireFromString("1.5")},
			{Flat: decimal.NewFromInt(250), Percent: decimal.NewFromInt(1)},
		},
		MaxFee: &maxFee,
	}
}

// NewFeeSchedule parses and validates the configured schedule
func NewFeeSchedule(cfg *config.PricingConfig) (*FeeSchedule, error) {
	if len(cfg.Brackets) == 0 {
		return DefaultFeeSchedule(), nil
	}

	s := &FeeSchedule{}
	var err error
	if s.MinFee, err = parseOptionalDecimal("min_fee", cfg.MinFee); err != nil {
		return nil, err
	}
	if s.MaxFee, err = parseOptionalDecimal("max_fee", cfg.MaxFee); err != nil {
		return nil, err
	}
	for i, b := range cfg.Brackets {
		bracket := FeeBracket{}
		if bracket.UpTo, err = parseOptionalDecimal(fmt.Sprintf("brackets[%d].up_to", i), b.UpTo); err != nil {
			return nil, err
		}
		if bracket.Flat, err = parseDecimalOrZero(fmt.Sprintf("brackets[%d].flat", i), b.Flat); err != nil {
			return nil, err
		}
		if bracket.Percent, err = parseDecimalOrZero(fmt.Sprintf("brackets[%d].percent", i), b.Percent); err != nil {
			return nil, err
		}
		s.Brackets = append(s.Brackets, bracket)
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks the brackets ascend strictly and only the last is unbounded
func (s *FeeSchedule) Validate() error {
	if len(s.Brackets) == 0 {
		return errors.New("fee schedule has no brackets")
	}
	var prev *decimal.Decimal
	for i, b := range s.Brackets {
		if b.Flat.IsNegative() || b.Percent.IsNegative() {
			return fmt.Errorf("bracket %d: flat and percent must not be negative", i)
		}
		if b.UpTo == nil {
			if i != len(s.Brackets)-1 {
				return fmt.Errorf("bracket %d: only the last bracket may be unbounded", i)
			}
			continue
		}
		if b.UpTo.IsNegative() {
			return fmt.Errorf("bracket %d: up_to must not be negative", i)
		}
		if prev != nil && !b.UpTo.GreaterThan(*prev) {
			return fmt.Errorf("bracket %d: up_to %s must be greater than %s", i, b.UpTo, prev)
		}
		prev = b.UpTo
	}
	if s.MinFee != nil && s.MaxFee != nil && s.MinFee.GreaterThan(*s.MaxFee) {
		return errors.New("min_fee must not exceed max_fee")
	}
	return nil
}

// BracketFor returns the index of the first bracket covering price
func (s *FeeSchedule) BracketFor(price decimal.Decimal) (int, error) {
	if price.IsNegative() {
		return -1, ErrNegativePrice
	}
	for i, b := range s.Brackets {
		if b.UpTo == nil || price.LessThanOrEqual(*b.UpTo) {
			return i, nil
		}
	}
	return -1, ErrNoBracket
}

// Fee computes the buyer fee for a hammer price, rounded half away from zero to cents
func (s *FeeSchedule) Fee(price decimal.Decimal) (decimal.Decimal, error) {
	idx, err := s.BracketFor(price)
	if err != nil {
		return decimal.Zero, err
	}
	b := s.Brackets[idx]
	fee := b.Flat.Add(price.Mul(b.Percent).Div(hundred)).Round(2)

	if s.MinFee != nil && fee.LessThan(*s.MinFee) {
		fee = *s.MinFee
	}
	if s.MaxFee != nil && fee.GreaterThan(*s.MaxFee) {
		fee = *s.MaxFee
	}
	return fee, nil
}

func decimalPtr(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func parseOptionalDecimal(field, raw string) (*decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, fmt.Errorf("pricing.%s: %w", field, err)
	}
	return &d, nil
}

func parseDecimalOrZero(field, raw string) (decimal.Decimal, error) {
	d, err := parseOptionalDecimal(field, raw)
	if err != nil || d == nil {
		return decimal.Zero, err
	}
	return *d, nil
}
