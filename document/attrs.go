package document

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ByLCY/quire/dsl"
	"github.com/ByLCY/quire/layout"
)

// attrs 是命令参数中的 key value 对，经样式合并后使用。
type attrs map[string]string

// parseArgs 读取命令参数。参数个数为奇数时第一个参数作为 lead 返回
// （样式名、图片路径或链接地址），其余按 key value 成对读取。
func parseArgs(args []*dsl.Lexeme) (*dsl.Lexeme, attrs) {
	result := attrs{}
	cursor := 0
	var lead *dsl.Lexeme
	if len(args)%2 == 1 {
		lead = args[0]
		cursor = 1
	}
	for cursor < len(args)-1 {
		result[args[cursor].Value] = args[cursor+1].Value
		cursor += 2
	}
	return lead, result
}

func mergeStyleAttributes(style string, inline attrs, styles map[string]Style) (attrs, error) {
	out := attrs{}
	if style != "" {
		s, ok := styles[style]
		if !ok {
			return nil, fmt.Errorf("style %s 未定义", style)
		}
		for k, v := range s.Props {
			out[k] = v
		}
	}
	for k, v := range inline {
		out[k] = v
	}
	return out, nil
}

func (a attrs) has(key string) bool {
	_, ok := a[key]
	return ok
}

func (a attrs) length(key string) (float64, bool, error) {
	v, ok := a[key]
	if !ok {
		return 0, false, nil
	}
	mm, err := layout.ParseLength(v)
	if err != nil {
		return 0, true, fmt.Errorf("%s: %w", key, err)
	}
	return mm, true, nil
}

// points reads a font size; bare numbers are points.
func (a attrs) points(key string) (float64, bool, error) {
	v, ok := a[key]
	if !ok {
		return 0, false, nil
	}
	l := layout.ParseRawLengthStr(v)
	if l.Value <= 0 {
		return 0, true, fmt.Errorf("%s: 字号 %q 无法解析: %w", key, v, layout.ErrInvalidArgument)
	}
	if l.Unit == layout.UnitNone {
		return l.Value, true, nil
	}
	return l.ToPT(), true, nil
}

func (a attrs) number(key string) (float64, bool, error) {
	v, ok := a[key]
	if !ok {
		return 0, false, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, true, fmt.Errorf("%s: 数值 %q 无法解析: %w", key, v, layout.ErrInvalidArgument)
	}
	return f, true, nil
}

func (a attrs) boolean(key string, def bool) (bool, error) {
	v, ok := a[key]
	if !ok {
		return def, nil
	}
	switch strings.ToLower(v) {
	case "yes", "true", "on":
		return true, nil
	case "no", "false", "off":
		return false, nil
	default:
		return def, fmt.Errorf("%s: %q 不是布尔值: %w", key, v, layout.ErrInvalidArgument)
	}
}

func (a attrs) dimension(key string, def layout.DimensionSpec) (layout.DimensionSpec, error) {
	v, ok := a[key]
	if !ok {
		return def, nil
	}
	d, err := layout.ParseDimension(v)
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func (a attrs) spacing(key string) (layout.Spacing, bool, error) {
	v, ok := a[key]
	if !ok {
		return layout.Spacing{}, false, nil
	}
	s, err := layout.ParseSpacing(v)
	if err != nil {
		return s, true, fmt.Errorf("%s: %w", key, err)
	}
	return s, true, nil
}

func parseColor(value string) (layout.Color, error) {
	hex := strings.TrimPrefix(value, "#")
	var r, g, b string
	switch len(hex) {
	case 3:
		r, g, b = strings.Repeat(hex[0:1], 2), strings.Repeat(hex[1:2], 2), strings.Repeat(hex[2:3], 2)
	case 6, 8:
		r, g, b = hex[0:2], hex[2:4], hex[4:6]
	default:
		return layout.Color{}, fmt.Errorf("颜色值 %s 无法解析: %w", value, layout.ErrInvalidArgument)
	}
	var out [3]int
	for i, part := range []string{r, g, b} {
		v, err := strconv.ParseUint(part, 16, 8)
		if err != nil {
			return layout.Color{}, fmt.Errorf("颜色值 %s 无法解析: %w", value, layout.ErrInvalidArgument)
		}
		out[i] = int(v)
	}
	return layout.Color{R: out[0], G: out[1], B: out[2]}, nil
}

func parseHAlign(v string) (layout.HAlign, error) {
	switch strings.ToLower(v) {
	case "", "left", "start":
		return layout.AlignLeft, nil
	case "center", "middle":
		return layout.AlignCenter, nil
	case "right", "end":
		return layout.AlignRight, nil
	default:
		return layout.AlignLeft, fmt.Errorf("align: %q 无法识别: %w", v, layout.ErrInvalidArgument)
	}
}

func parseVAlign(v string) (layout.VAlign, error) {
	switch strings.ToLower(v) {
	case "", "top":
		return layout.AlignTop, nil
	case "middle", "center":
		return layout.AlignMiddle, nil
	case "bottom":
		return layout.AlignBottom, nil
	default:
		return layout.AlignTop, fmt.Errorf("valign: %q 无法识别: %w", v, layout.ErrInvalidArgument)
	}
}

func parseFontStyle(v string) (layout.FontStyle, error) {
	switch strings.ToLower(v) {
	case "", "regular", "normal":
		return layout.FontRegular, nil
	case "bold":
		return layout.FontBold, nil
	case "italic":
		return layout.FontItalic, nil
	case "bold-italic", "bolditalic":
		return layout.FontBoldItalic, nil
	default:
		return layout.FontRegular, fmt.Errorf("font-style: %q 无法识别: %w", v, layout.ErrInvalidArgument)
	}
}

func parseCap(v string) (layout.LineCap, error) {
	switch strings.ToLower(v) {
	case "", "butt":
		return layout.CapButt, nil
	case "round":
		return layout.CapRound, nil
	case "square":
		return layout.CapSquare, nil
	default:
		return layout.CapButt, fmt.Errorf("cap: %q 无法识别: %w", v, layout.ErrInvalidArgument)
	}
}

func parseJoin(v string) (layout.LineJoin, error) {
	switch strings.ToLower(v) {
	case "", "miter":
		return layout.JoinMiter, nil
	case "round":
		return layout.JoinRound, nil
	case "bevel":
		return layout.JoinBevel, nil
	default:
		return layout.JoinMiter, fmt.Errorf("join: %q 无法识别: %w", v, layout.ErrInvalidArgument)
	}
}

func valueToString(val *dsl.Value) string {
	if val == nil {
		return ""
	}
	switch {
	case val.String != nil:
		return string(*val.String)
	case val.Number != nil:
		return *val.Number
	case val.Color != nil:
		return *val.Color
	case val.Expr != nil:
		return val.Expr.String()
	default:
		return ""
	}
}

func valueToStringSlice(val *dsl.Value) []string {
	if val == nil {
		return nil
	}
	if val.Array != nil {
		out := make([]string, 0, len(val.Array.Values))
		for _, item := range val.Array.Values {
			if s := valueToString(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	if s := valueToString(val); s != "" {
		return []string{s}
	}
	return nil
}
