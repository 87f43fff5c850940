package layout

import (
	"fmt"
	"strconv"
	"strings"
)

// DimensionKind 区分宽高的四种取值方式。
type DimensionKind int

const (
	DimAbsolute DimensionKind = iota
	DimPercent
	DimStar
	DimAuto
)

func (k DimensionKind) String() string {
	switch k {
	case DimAbsolute:
		return "absolute"
	case DimPercent:
		return "percent"
	case DimStar:
		return "star"
	case DimAuto:
		return "auto"
	default:
		return fmt.Sprintf("DimensionKind(%d)", int(k))
	}
}

// DimensionSpec describes how a container sizes one track (row height or
// column width). Value is in mm for absolute specs and 0–100 for percent.
type DimensionSpec struct {
	Kind  DimensionKind `json:"kind"`
	Value float64       `json:"value,omitempty"`
}

func Abs(mm float64) DimensionSpec      { return DimensionSpec{Kind: DimAbsolute, Value: mm} }
func Perc(percent float64) DimensionSpec { return DimensionSpec{Kind: DimPercent, Value: percent} }
func Star() DimensionSpec                { return DimensionSpec{Kind: DimStar} }
func Auto() DimensionSpec                { return DimensionSpec{Kind: DimAuto} }

func (d DimensionSpec) IsAbsolute() bool { return d.Kind == DimAbsolute }
func (d DimensionSpec) IsPercent() bool  { return d.Kind == DimPercent }
func (d DimensionSpec) IsStar() bool     { return d.Kind == DimStar }
func (d DimensionSpec) IsAuto() bool     { return d.Kind == DimAuto }

// EffectiveValue resolves absolute and percent specs against available.
// Star and auto specs have no intrinsic value and return available.
func (d DimensionSpec) EffectiveValue(available float64) float64 {
	switch d.Kind {
	case DimAbsolute:
		return d.Value
	case DimPercent:
		return available * d.Value / 100
	default:
		return available
	}
}

func (d DimensionSpec) String() string {
	switch d.Kind {
	case DimAbsolute:
		return strconv.FormatFloat(d.Value, 'f', -1, 64) + "mm"
	case DimPercent:
		return strconv.FormatFloat(d.Value, 'f', -1, 64) + "%"
	case DimStar:
		return "*"
	default:
		return "auto"
	}
}

// ParseDimension accepts "auto", "*", "25%" and any length understood by
// ParseRawLengthStr (unit-less numbers are millimetres).
func ParseDimension(value string) (DimensionSpec, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	switch {
	case v == "" || v == "auto":
		return Auto(), nil
	case v == "*":
		return Star(), nil
	case strings.HasSuffix(v, "%"):
		f, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(v, "%")), 64)
		if err != nil || f < 0 {
			return DimensionSpec{}, fmt.Errorf("百分比 %q 无法解析: %w", value, ErrInvalidArgument)
		}
		return Perc(f), nil
	}
	l, ok := parseLengthStrict(v)
	if !ok || l.Value < 0 {
		return DimensionSpec{}, fmt.Errorf("尺寸 %q 无法解析: %w", value, ErrInvalidArgument)
	}
	return Abs(l.ToMM()), nil
}
