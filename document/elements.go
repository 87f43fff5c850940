package document

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/ByLCY/quire/binding"
	"github.com/ByLCY/quire/dsl"
	"github.com/ByLCY/quire/layout"
)

// placed 是构建好的元素，attrs 里保留 width/height，供父容器决定轨道尺寸。
type placed struct {
	el    layout.Element
	attrs attrs
}

type builder struct {
	res     ResourceSet
	font    layout.FontSpec
	baseDir string
	logger  *log.Logger
}

func interpolate(text string, data any) string {
	return binding.Interpolate(text, data)
}

func (b *builder) block(block *dsl.Block, data any) ([]placed, error) {
	if block == nil {
		return nil, nil
	}
	var out []placed
	for _, stmt := range block.Statements {
		switch {
		case stmt.Text != nil:
			content := interpolate(string(stmt.Text.Value), data)
			out = append(out, placed{el: layout.NewText(content, b.font), attrs: attrs{}})
		case stmt.Command != nil:
			items, err := b.command(stmt.Command, data)
			if err != nil {
				return nil, err
			}
			out = append(out, items...)
		case stmt.Assignment != nil:
			return nil, fmt.Errorf("元素块中不允许赋值 %s: %w", stmt.Assignment.Key, layout.ErrInvalidArgument)
		}
	}
	return out, nil
}

func (b *builder) command(cmd *dsl.Command, data any) ([]placed, error) {
	if cmd.Name == "each" {
		return eachItem(b, cmd, data, b.block)
	}

	lead, inline := parseArgs(cmd.Args)
	for k, v := range inline {
		inline[k] = interpolate(v, data)
	}
	style := ""
	if lead != nil && lead.Type == "Ident" && cmd.Name != "image" && cmd.Name != "link" {
		style = lead.Value
	}
	a, err := mergeStyleAttributes(style, inline, b.res.Styles)
	if err != nil {
		return nil, wrapCommand(cmd, err)
	}

	var el layout.Element
	switch cmd.Name {
	case "text":
		el, err = b.text(cmd, lead, a, data)
	case "flow":
		el, err = b.flow(cmd, a, data)
	case "column":
		el, err = b.column(cmd, a, data)
	case "row":
		el, err = b.row(cmd, a, data)
	case "box":
		el, err = b.box(cmd, a, data)
	case "table":
		el, err = b.table(cmd, a, data)
	case "image":
		el, err = b.image(lead, a, data)
	case "spacer":
		el, err = b.spacer(a)
	default:
		return nil, fmt.Errorf("第 %d 行: 未知元素 %s", cmd.Pos.Line, cmd.Name)
	}
	if err != nil {
		return nil, wrapCommand(cmd, err)
	}
	return []placed{{el: el, attrs: a}}, nil
}

func wrapCommand(cmd *dsl.Command, err error) error {
	return fmt.Errorf("%s (第 %d 行): %w", cmd.Name, cmd.Pos.Line, err)
}

// eachItem 对数据中的数组逐项调用 body：`each items [as item] { ... }`。
func eachItem[T any](b *builder, cmd *dsl.Command, data any, body func(*dsl.Block, any) ([]T, error)) ([]T, error) {
	path := cmd.Arg(0)
	if path == "" {
		return nil, wrapCommand(cmd, fmt.Errorf("缺少数据路径: %w", layout.ErrInvalidArgument))
	}
	name := "item"
	if len(cmd.Args) >= 3 && cmd.Arg(1) == "as" {
		name = cmd.Arg(2)
	}
	val, ok := binding.Lookup(data, path)
	if !ok || val == nil {
		b.logger.Warn("each: data path not found", "path", path, "line", cmd.Pos.Line)
		return nil, nil
	}
	items, ok := val.([]any)
	if !ok {
		return nil, wrapCommand(cmd, fmt.Errorf("%s 不是数组: %w", path, layout.ErrInvalidArgument))
	}
	var out []T
	for _, item := range items {
		got, err := body(cmd.Block, binding.With(data, name, item))
		if err != nil {
			return nil, err
		}
		out = append(out, got...)
	}
	return out, nil
}

func (b *builder) options(a attrs) ([]layout.Option, error) {
	var opts []layout.Option
	if id := a["id"]; id != "" {
		opts = append(opts, layout.WithID(id))
	}
	if s, ok, err := a.spacing("margin"); err != nil {
		return nil, err
	} else if ok {
		opts = append(opts, layout.WithMargin(s))
	}
	if s, ok, err := a.spacing("padding"); err != nil {
		return nil, err
	} else if ok {
		opts = append(opts, layout.WithPadding(s))
	}
	if a.has("border") {
		border, err := b.border(a)
		if err != nil {
			return nil, err
		}
		opts = append(opts, layout.WithBorder(border))
	}
	if v, ok := a["fill"]; ok {
		c, err := b.res.color(v)
		if err != nil {
			return nil, fmt.Errorf("fill: %w", err)
		}
		opts = append(opts, layout.WithFill(c))
	}
	if a.has("align") || a.has("valign") {
		h, err := parseHAlign(a["align"])
		if err != nil {
			return nil, err
		}
		v, err := parseVAlign(a["valign"])
		if err != nil {
			return nil, err
		}
		opts = append(opts, layout.WithAlign(h, v))
	}
	minSize, hasMin, err := sizeAttrs(a, "min-width", "min-height")
	if err != nil {
		return nil, err
	}
	if hasMin {
		opts = append(opts, layout.WithMinSize(minSize))
	}
	maxSize, hasMax, err := sizeAttrs(a, "max-width", "max-height")
	if err != nil {
		return nil, err
	}
	if hasMax {
		opts = append(opts, layout.WithMaxSize(maxSize))
	}
	split, err := a.boolean("split", true)
	if err != nil {
		return nil, err
	}
	if !split {
		opts = append(opts, layout.WithSplittable(false))
	}
	return opts, nil
}

func sizeAttrs(a attrs, wKey, hKey string) (layout.Size, bool, error) {
	w, okW, err := a.length(wKey)
	if err != nil {
		return layout.Size{}, false, err
	}
	h, okH, err := a.length(hKey)
	if err != nil {
		return layout.Size{}, false, err
	}
	return layout.Size{Width: w, Height: h}, okW || okH, nil
}

func (b *builder) border(a attrs) (layout.Border, error) {
	widths, _, err := a.spacing("border")
	if err != nil {
		return layout.Border{}, err
	}
	border := layout.Border{Widths: widths, Color: layout.Black}
	if v, ok := a["border-color"]; ok {
		if border.Color, err = b.res.color(v); err != nil {
			return border, fmt.Errorf("border-color: %w", err)
		}
	}
	if border.Cap, err = parseCap(a["cap"]); err != nil {
		return border, err
	}
	if border.Join, err = parseJoin(a["join"]); err != nil {
		return border, err
	}
	return border, nil
}

// fontSpec 在 base 上叠加 font/size/font-style/color 属性。
func (b *builder) fontSpec(base layout.FontSpec, a attrs) (layout.FontSpec, error) {
	spec := base
	if v := a["font"]; v != "" {
		spec.Family = v
	}
	if size, ok, err := a.points("size"); err != nil {
		return spec, err
	} else if ok {
		spec.Size = size
	}
	if v, ok := a["font-style"]; ok {
		style, err := parseFontStyle(v)
		if err != nil {
			return spec, err
		}
		spec.Style = style
	}
	if v, ok := a["color"]; ok {
		c, err := b.res.color(v)
		if err != nil {
			return spec, fmt.Errorf("color: %w", err)
		}
		spec.Color = c
	}
	return spec, nil
}

func (b *builder) text(cmd *dsl.Command, lead *dsl.Lexeme, a attrs, data any) (*layout.Text, error) {
	parts := cmd.Texts()
	if lead != nil && lead.Type == "String" {
		parts = append([]string{lead.Value}, parts...)
	}
	return b.newText(interpolate(strings.Join(parts, "\n"), data), b.font, a)
}

func (b *builder) newText(content string, base layout.FontSpec, a attrs) (*layout.Text, error) {
	font, err := b.fontSpec(base, a)
	if err != nil {
		return nil, err
	}
	opts, err := b.options(a)
	if err != nil {
		return nil, err
	}
	t := layout.NewText(content, font, opts...)
	if v, ok, err := a.number("line-spacing"); err != nil {
		return nil, err
	} else if ok {
		if err := t.SetLineSpacing(v); err != nil {
			return nil, err
		}
	}
	if v, ok, err := a.number("max-rows"); err != nil {
		return nil, err
	} else if ok {
		if err := t.SetMaxRows(int(v)); err != nil {
			return nil, err
		}
	}
	if uri := a["link"]; uri != "" {
		if err := t.SetLink(uri); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (b *builder) flow(cmd *dsl.Command, a attrs, data any) (*layout.FlowText, error) {
	base, err := b.fontSpec(b.font, a)
	if err != nil {
		return nil, err
	}
	runs, err := b.runs(cmd.Block, base, data)
	if err != nil {
		return nil, err
	}
	opts, err := b.options(a)
	if err != nil {
		return nil, err
	}
	f := layout.NewFlowText(runs, opts...)
	if n, ok, err := a.number("header-rows"); err != nil {
		return nil, err
	} else if ok {
		if err := f.SetHeaderRowCount(int(n)); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// runs reads flow content: literals, `run [style] attrs { "..." }`,
// `link "uri" attrs { "..." }` and each.
func (b *builder) runs(block *dsl.Block, base layout.FontSpec, data any) ([]layout.Run, error) {
	if block == nil {
		return nil, nil
	}
	var out []layout.Run
	for _, stmt := range block.Statements {
		if stmt.Text != nil {
			out = append(out, layout.Run{Text: interpolate(string(stmt.Text.Value), data), Font: base})
			continue
		}
		cmd := stmt.Command
		if cmd == nil {
			continue
		}
		if cmd.Name == "each" {
			items, err := eachItem(b, cmd, data, func(blk *dsl.Block, scoped any) ([]layout.Run, error) {
				return b.runs(blk, base, scoped)
			})
			if err != nil {
				return nil, err
			}
			out = append(out, items...)
			continue
		}

		lead, inline := parseArgs(cmd.Args)
		run := layout.Run{Font: base}
		style := ""
		switch cmd.Name {
		case "run":
			if lead != nil {
				style = lead.Value
			}
		case "link":
			if lead == nil {
				return nil, wrapCommand(cmd, fmt.Errorf("缺少链接地址: %w", layout.ErrInvalidArgument))
			}
			run.URI = interpolate(lead.Value, data)
			run.Font.Color = layout.LinkColor
		default:
			return nil, wrapCommand(cmd, fmt.Errorf("flow 中不支持 %s: %w", cmd.Name, layout.ErrInvalidArgument))
		}
		a, err := mergeStyleAttributes(style, inline, b.res.Styles)
		if err != nil {
			return nil, wrapCommand(cmd, err)
		}
		if run.Font, err = b.fontSpec(run.Font, a); err != nil {
			return nil, wrapCommand(cmd, err)
		}
		run.Text = interpolate(strings.Join(cmd.Texts(), ""), data)
		out = append(out, run)
	}
	return out, nil
}

func (b *builder) column(cmd *dsl.Command, a attrs, data any) (*layout.ColumnBox, error) {
	opts, err := b.options(a)
	if err != nil {
		return nil, err
	}
	c := layout.NewColumnBox(opts...)
	children, err := b.block(cmd.Block, data)
	if err != nil {
		return nil, err
	}
	for _, child := range children {
		h, err := child.attrs.dimension("height", layout.Auto())
		if err != nil {
			return nil, err
		}
		if err := c.AddRow(child.el, h); err != nil {
			return nil, err
		}
	}
	if n, ok, err := a.number("header-rows"); err != nil {
		return nil, err
	} else if ok {
		if err := c.SetHeaderRowCount(int(n)); err != nil {
			return nil, err
		}
	}
	full, err := a.boolean("full-width", true)
	if err != nil {
		return nil, err
	}
	if err := c.SetFullWidth(full); err != nil {
		return nil, err
	}
	return c, nil
}

func (b *builder) row(cmd *dsl.Command, a attrs, data any) (*layout.RowBox, error) {
	opts, err := b.options(a)
	if err != nil {
		return nil, err
	}
	r := layout.NewRowBox(opts...)
	children, err := b.block(cmd.Block, data)
	if err != nil {
		return nil, err
	}
	for _, child := range children {
		w, err := child.attrs.dimension("width", layout.Star())
		if err != nil {
			return nil, err
		}
		if err := r.AddColumn(child.el, w); err != nil {
			return nil, err
		}
	}
	full, err := a.boolean("full-width", false)
	if err != nil {
		return nil, err
	}
	if err := r.SetFullWidth(full); err != nil {
		return nil, err
	}
	return r, nil
}

func (b *builder) box(cmd *dsl.Command, a attrs, data any) (*layout.Box, error) {
	opts, err := b.options(a)
	if err != nil {
		return nil, err
	}
	// 多个子元素时包一层 column
	child, err := b.single(cmd.Block, data)
	if err != nil {
		return nil, err
	}
	return layout.NewBox(child, opts...), nil
}

type tableRow struct {
	header bool
	cells  []layout.Element
}

func (b *builder) table(cmd *dsl.Command, a attrs, data any) (*layout.Table, error) {
	if cmd.Block == nil {
		return nil, fmt.Errorf("table 缺少内容: %w", layout.ErrInvalidArgument)
	}
	var columns []layout.DimensionSpec
	for _, stmt := range cmd.Block.Statements {
		if stmt.Command == nil || stmt.Command.Name != "columns" {
			continue
		}
		for _, arg := range stmt.Command.Args {
			d, err := layout.ParseDimension(arg.Value)
			if err != nil {
				return nil, fmt.Errorf("columns: %w", err)
			}
			columns = append(columns, d)
		}
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("table 缺少 columns: %w", layout.ErrInvalidArgument)
	}

	// 表格自身的字体属性作为单元格默认字体
	cellFont, err := b.fontSpec(b.font, a)
	if err != nil {
		return nil, err
	}
	opts, err := b.options(a)
	if err != nil {
		return nil, err
	}
	t := layout.NewTable(columns, opts...)
	if w, ok, err := a.length("grid"); err != nil {
		return nil, err
	} else if ok {
		grid := layout.UniformBorder(w, layout.Black)
		if v, ok := a["grid-color"]; ok {
			if grid.Color, err = b.res.color(v); err != nil {
				return nil, fmt.Errorf("grid-color: %w", err)
			}
		}
		if err := t.SetGrid(grid); err != nil {
			return nil, err
		}
	}

	rows, err := b.tableRows(cmd.Block, cellFont, data)
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		if r.header {
			err = t.AddHeaderRow(r.cells...)
		} else {
			err = t.AddRow(r.cells...)
		}
		if err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (b *builder) tableRows(block *dsl.Block, font layout.FontSpec, data any) ([]tableRow, error) {
	if block == nil {
		return nil, nil
	}
	var out []tableRow
	for _, stmt := range block.Statements {
		cmd := stmt.Command
		if cmd == nil {
			continue
		}
		switch cmd.Name {
		case "columns":
		case "each":
			rows, err := eachItem(b, cmd, data, func(blk *dsl.Block, scoped any) ([]tableRow, error) {
				return b.tableRows(blk, font, scoped)
			})
			if err != nil {
				return nil, err
			}
			out = append(out, rows...)
		case "header", "row":
			cells, err := b.cells(cmd, font, data)
			if err != nil {
				return nil, wrapCommand(cmd, err)
			}
			out = append(out, tableRow{header: cmd.Name == "header", cells: cells})
		default:
			return nil, fmt.Errorf("第 %d 行: table 中不支持 %s", cmd.Pos.Line, cmd.Name)
		}
	}
	return out, nil
}

// cells builds one table row. Literal cells take the row attributes, so
// `header heading { "Name" "Qty" }` styles every header cell.
func (b *builder) cells(cmd *dsl.Command, font layout.FontSpec, data any) ([]layout.Element, error) {
	lead, inline := parseArgs(cmd.Args)
	for k, v := range inline {
		inline[k] = interpolate(v, data)
	}
	style := ""
	if lead != nil {
		style = lead.Value
	}
	a, err := mergeStyleAttributes(style, inline, b.res.Styles)
	if err != nil {
		return nil, err
	}
	delete(a, "id")

	if cmd.Block == nil {
		return nil, nil
	}
	var cells []layout.Element
	for _, stmt := range cmd.Block.Statements {
		switch {
		case stmt.Text != nil:
			t, err := b.newText(interpolate(string(stmt.Text.Value), data), font, a)
			if err != nil {
				return nil, err
			}
			cells = append(cells, t)
		case stmt.Command != nil:
			items, err := b.command(stmt.Command, data)
			if err != nil {
				return nil, err
			}
			for _, it := range items {
				cells = append(cells, it.el)
			}
		}
	}
	return cells, nil
}

// image 构建位图或 SVG 元素，按文件扩展名区分。
func (b *builder) image(lead *dsl.Lexeme, a attrs, data any) (layout.Element, error) {
	if lead == nil {
		return nil, fmt.Errorf("缺少图片路径: %w", layout.ErrInvalidArgument)
	}
	src := interpolate(lead.Value, data)
	var width, height float64
	if res, ok := b.res.Images[src]; ok && lead.Type == "Ident" {
		src, width, height = res.Src, res.Width, res.Height
	}
	if w := absolute(a["width"]); w > 0 {
		width = w
	}
	if h := absolute(a["height"]); h > 0 {
		height = h
	}
	opts, err := b.options(a)
	if err != nil {
		return nil, err
	}
	fit, err := a.boolean("fit", false)
	if err != nil {
		return nil, err
	}

	if isSVG(src) {
		g, err := loadVector(b.baseDir, src)
		if err != nil {
			return nil, err
		}
		el := layout.NewVector(g, width, height, opts...)
		if err := el.SetScaleToFit(fit); err != nil {
			return nil, err
		}
		return el, nil
	}

	img, err := loadImage(b.baseDir, src)
	if err != nil {
		return nil, err
	}
	width, height = imageSize(img, width, height)
	el := layout.NewImage(img, width, height, opts...)
	if err := el.SetScaleToFit(fit); err != nil {
		return nil, err
	}
	return el, nil
}

func (b *builder) spacer(a attrs) (*layout.Spacer, error) {
	opts, err := b.options(a)
	if err != nil {
		return nil, err
	}
	return layout.NewSpacer(absolute(a["width"]), absolute(a["height"]), opts...), nil
}

// absolute returns the mm value of an absolute dimension and 0 for
// auto, star and percent, which only size the surrounding track.
func absolute(value string) float64 {
	if value == "" {
		return 0
	}
	d, err := layout.ParseDimension(value)
	if err != nil || !d.IsAbsolute() {
		return 0
	}
	return d.Value
}

// single builds block as one element, stacking several children in a
// column.
func (b *builder) single(block *dsl.Block, data any) (layout.Element, error) {
	children, err := b.block(block, data)
	if err != nil {
		return nil, err
	}
	switch len(children) {
	case 0:
		return nil, nil
	case 1:
		return children[0].el, nil
	}
	c := layout.NewColumnBox()
	for _, ch := range children {
		h, err := ch.attrs.dimension("height", layout.Auto())
		if err != nil {
			return nil, err
		}
		if err := c.AddRow(ch.el, h); err != nil {
			return nil, err
		}
	}
	return c, nil
}
