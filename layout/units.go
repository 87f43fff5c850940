package layout

import (
	"fmt"
	"strconv"
	"strings"
)

// All layout geometry is expressed in millimetres; font sizes are points.

// Unit represents the unit a length was written in.
type Unit int

const (
	UnitNone Unit = iota // unit-less numbers, read as mm
	UnitMM
	UnitCM
	UnitIN
	UnitPT
)

// Conversion constants between pt and mm.
const (
	PtToMm = 0.352777
	MmToPt = 1.0 / PtToMm
)

func (u Unit) String() string {
	switch u {
	case UnitMM:
		return "mm"
	case UnitCM:
		return "cm"
	case UnitIN:
		return "in"
	case UnitPT:
		return "pt"
	default:
		return ""
	}
}

// Length preserves a numeric value with its unit.
type Length struct {
	Value float64 `json:"value"`
	Unit  Unit    `json:"unit"`
}

func (l Length) IsZero() bool { return l.Value == 0 }

// ToMM converts the length to millimetres.
func (l Length) ToMM() float64 {
	switch l.Unit {
	case UnitCM:
		return l.Value * 10
	case UnitIN:
		return l.Value * 25.4
	case UnitPT:
		return l.Value * PtToMm
	default:
		return l.Value
	}
}

// ToPT converts the length to points.
func (l Length) ToPT() float64 {
	if l.Unit == UnitPT {
		return l.Value
	}
	return l.ToMM() * MmToPt
}

var unitSuffixes = []struct {
	s string
	u Unit
}{{"mm", UnitMM}, {"cm", UnitCM}, {"in", UnitIN}, {"pt", UnitPT}}

// ParseRawLengthStr parses a length string preserving its unit. Invalid
// input yields the zero Length.
func ParseRawLengthStr(value string) Length {
	l, _ := parseLengthStrict(value)
	return l
}

// ParseLength parses a length and returns millimetres. A bare number is
// taken as millimetres.
func ParseLength(value string) (float64, error) {
	l, ok := parseLengthStrict(value)
	if !ok {
		return 0, fmt.Errorf("长度 %q 无法解析: %w", value, ErrInvalidArgument)
	}
	return l.ToMM(), nil
}

func parseLengthStrict(value string) (Length, bool) {
	lower := strings.ToLower(strings.TrimSpace(value))
	if lower == "" {
		return Length{}, false
	}
	unit := UnitNone
	num := lower
	for _, suf := range unitSuffixes {
		if strings.HasSuffix(lower, suf.s) {
			unit = suf.u
			num = strings.TrimSpace(strings.TrimSuffix(lower, suf.s))
			break
		}
	}
	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return Length{}, false
	}
	return Length{Value: f, Unit: unit}, true
}

// ParseSpacing reads one to four space separated lengths in CSS order
// (top right bottom left) and returns them in millimetres.
func ParseSpacing(value string) (Spacing, error) {
	fields := strings.Fields(value)
	vals := make([]float64, 0, len(fields))
	for _, f := range fields {
		l, ok := parseLengthStrict(f)
		if !ok {
			return Spacing{}, fmt.Errorf("长度 %q 无法解析: %w", f, ErrInvalidArgument)
		}
		vals = append(vals, l.ToMM())
	}
	switch len(vals) {
	case 1:
		return Uniform(vals[0]), nil
	case 2:
		return Symmetric(vals[0], vals[1]), nil
	case 3:
		return Spacing{Top: vals[0], Right: vals[1], Bottom: vals[2], Left: vals[1]}, nil
	case 4:
		return Spacing{Top: vals[0], Right: vals[1], Bottom: vals[2], Left: vals[3]}, nil
	default:
		return Spacing{}, fmt.Errorf("间距 %q 需要 1 到 4 个长度: %w", value, ErrInvalidArgument)
	}
}
