package layout

import (
	"fmt"
	"math"
	"sync/atomic"
)

// Element 是所有布局节点的公共接口。
//
// Render 与 SplitVertical 之前必须且只能 Prepare 一次，需要重新准备时先调用
// MarkNotPrepared。Prepare 与 PreparedSize 返回的尺寸不含 outline。
type Element interface {
	ID() string
	Outline() Outline
	OutlineXSum() float64
	OutlineYSum() float64
	IsSplittable() bool
	IsPrepared() bool

	Prepare(ctx *PrepareContext) (Size, error)
	PreparedSize() (Size, error)
	MarkNotPrepared()
	Render(ctx *RenderContext) error
	Visit(v Visitor) (bool, error)

	// SplitVertical 把元素切成放得进 availableHeight 的头部与剩余的尾部。
	// 无需或无法拆分时返回 nil 且不报错。availableHeight 不含自身 outline。
	SplitVertical(availableWidth, availableHeight float64) (*SplitResult, error)
}

// tolerance 比较分配与实际尺寸时容忍的舍入误差。
const tolerance = 0.01

type lifecycle int

const (
	stateUnprepared lifecycle = iota
	statePrepared
)

var idSeq atomic.Int64

// node 保存各元素共有的状态。
type node struct {
	id         string
	kind       string
	outline    Outline
	minSize    Size
	maxSize    Size
	splittable bool

	state    lifecycle
	prepared Size
	stretch  Size
	pass     *PassContext
}

// Option configures the shared part of an element at construction time.
type Option func(*node)

func WithID(id string) Option           { return func(n *node) { n.id = id } }
func WithMargin(s Spacing) Option       { return func(n *node) { n.outline.Margin = s } }
func WithPadding(s Spacing) Option      { return func(n *node) { n.outline.Padding = s } }
func WithBorder(b Border) Option        { return func(n *node) { n.outline.Border = b } }
func WithMinSize(s Size) Option         { return func(n *node) { n.minSize = s } }
func WithMaxSize(s Size) Option         { return func(n *node) { n.maxSize = s } }
func WithSplittable(split bool) Option  { return func(n *node) { n.splittable = split } }
func WithOutline(o Outline) Option      { return func(n *node) { n.outline = o } }
func WithAlign(h HAlign, v VAlign) Option {
	return func(n *node) { n.outline.HAlign, n.outline.VAlign = h, v }
}

func WithFill(c Color) Option {
	return func(n *node) {
		fill := c
		n.outline.Fill = &fill
	}
}

func newNode(kind string, splittable bool, opts []Option) node {
	n := node{kind: kind, splittable: splittable}
	for _, opt := range opts {
		opt(&n)
	}
	if n.id == "" {
		n.id = fmt.Sprintf("%s-%d", kind, idSeq.Add(1))
	}
	return n
}

// derive 为拆分出的片段复制 id 与 outline。
func (n *node) derive(suffix string, splittable bool) node {
	return node{
		id:         n.id + suffix,
		kind:       n.kind,
		outline:    n.outline,
		minSize:    Size{Width: n.minSize.Width},
		maxSize:    Size{Width: n.maxSize.Width},
		splittable: splittable,
		pass:       n.pass,
	}
}

func (n *node) ID() string           { return n.id }
func (n *node) Kind() string         { return n.kind }
func (n *node) Outline() Outline     { return n.outline }
func (n *node) OutlineXSum() float64 { return n.outline.XSum() }
func (n *node) OutlineYSum() float64 { return n.outline.YSum() }
func (n *node) IsSplittable() bool   { return n.splittable }
func (n *node) IsPrepared() bool     { return n.state == statePrepared }

// SetSplittable 不影响几何尺寸，任何阶段都可调用。
func (n *node) SetSplittable(split bool) { n.splittable = split }

// PreparedSize 返回缓存的净尺寸。
func (n *node) PreparedSize() (Size, error) {
	if n.state != statePrepared {
		return Size{}, usageError("prepared size", n.id, ErrNotPrepared)
	}
	return n.prepared, nil
}

func (n *node) MarkNotPrepared() {
	n.state = stateUnprepared
	n.prepared = Size{}
	n.stretch = Size{}
}

func (n *node) checkMutable(op string) error {
	if n.state == statePrepared {
		return usageError(op, n.id, ErrAlreadyPrepared)
	}
	return nil
}

func (n *node) SetMargin(s Spacing) error {
	if err := n.checkMutable("set margin"); err != nil {
		return err
	}
	n.outline.Margin = s
	return nil
}

func (n *node) SetPadding(s Spacing) error {
	if err := n.checkMutable("set padding"); err != nil {
		return err
	}
	n.outline.Padding = s
	return nil
}

func (n *node) SetBorder(b Border) error {
	if err := n.checkMutable("set border"); err != nil {
		return err
	}
	n.outline.Border = b
	return nil
}

func (n *node) SetFill(c *Color) error {
	if err := n.checkMutable("set fill"); err != nil {
		return err
	}
	n.outline.Fill = c
	return nil
}

func (n *node) SetAlign(h HAlign, v VAlign) error {
	if err := n.checkMutable("set align"); err != nil {
		return err
	}
	n.outline.HAlign, n.outline.VAlign = h, v
	return nil
}

func (n *node) SetMinSize(s Size) error {
	if err := n.checkMutable("set min size"); err != nil {
		return err
	}
	n.minSize = s
	return nil
}

// SetMaxSize 限制净尺寸，0 表示不限。
func (n *node) SetMaxSize(s Size) error {
	if err := n.checkMutable("set max size"); err != nil {
		return err
	}
	n.maxSize = s
	return nil
}

// prepare 在生命周期检查下执行 onPrepare，并套用最小与最大尺寸。
func (n *node) prepare(ctx *PrepareContext, onPrepare func(*PrepareContext) (Size, error)) (Size, error) {
	if n.state == statePrepared {
		return Size{}, usageError("prepare", n.id, ErrAlreadyPrepared)
	}
	if ctx == nil || ctx.pass == nil {
		return Size{}, usageError("prepare", n.id, ErrInvalidArgument)
	}
	n.pass = ctx.pass

	w, h := ctx.AvailableWidth, ctx.AvailableHeight
	if n.maxSize.Width > 0 {
		w = math.Min(w, n.maxSize.Width+n.OutlineXSum())
	}
	if n.maxSize.Height > 0 {
		h = math.Min(h, n.maxSize.Height+n.OutlineYSum())
	}
	size, err := onPrepare(ctx.Sub(w, h))
	if err != nil {
		return Size{}, err
	}

	size.Width = math.Max(size.Width, n.minSize.Width)
	size.Height = math.Max(size.Height, n.minSize.Height)
	if n.maxSize.Width > 0 {
		size.Width = math.Min(size.Width, n.maxSize.Width)
	}
	if n.maxSize.Height > 0 {
		size.Height = math.Min(size.Height, n.maxSize.Height)
	}
	n.markPrepared(size)

	if n.pass.debug.Prepare {
		n.pass.logger.Debug("prepared", "id", n.id, "kind", n.kind,
			"availableWidth", ctx.AvailableWidth, "availableHeight", ctx.AvailableHeight,
			"width", size.Width, "height", size.Height)
	}
	return size, nil
}

func (n *node) markPrepared(size Size) {
	n.prepared = size
	n.state = statePrepared
}

// checkSplit 是每个 SplitVertical 开头的公共检查，返回是否需要尝试拆分。
func (n *node) checkSplit(availableWidth, availableHeight float64) (bool, error) {
	if n.state != statePrepared {
		return false, usageError("split", n.id, ErrNotPrepared)
	}
	if availableWidth < 0 {
		return false, usageError("split", n.id, ErrInvalidArgument)
	}
	if availableHeight <= 0 || !n.splittable {
		return false, nil
	}
	return n.prepared.Height > availableHeight, nil
}

func (n *node) debugSplit(msg string, keyvals ...any) {
	if n.pass == nil || !n.pass.debug.Split {
		return
	}
	n.pass.logger.Debug(msg, append([]any{"id", n.id}, keyvals...)...)
}

func (n *node) warn(msg string, keyvals ...any) {
	if n.pass == nil {
		return
	}
	n.pass.logger.Warn(msg, append([]any{"id", n.id}, keyvals...)...)
}

func (n *node) stretchTo(net Size) { n.stretch = net }

// renderSize 是实际绘制的净尺寸：准备尺寸经父容器拉伸，再抬到最小尺寸。
func (n *node) renderSize() Size {
	return Size{
		Width:  math.Max(n.prepared.Width, math.Max(n.stretch.Width, n.minSize.Width)),
		Height: math.Max(n.prepared.Height, math.Max(n.stretch.Height, n.minSize.Height)),
	}
}

// renderFrame 绘制背景和边框，返回内容区域。
func (n *node) renderFrame(ctx *RenderContext) (Rect, error) {
	if n.state != statePrepared {
		return Rect{}, usageError("render", n.id, ErrNotPrepared)
	}
	size := n.renderSize().Plus(n.OutlineXSum(), n.OutlineYSum())
	box := Rect{X: ctx.X, Y: ctx.Y, Width: size.Width, Height: size.Height}.Inset(n.outline.Margin)

	if n.outline.Fill != nil {
		if err := ctx.Surface.FillRect(box, *n.outline.Fill); err != nil {
			return Rect{}, err
		}
	}
	if err := drawBorder(ctx.Surface, box, n.outline.Border); err != nil {
		return Rect{}, err
	}
	return box.Inset(n.outline.Border.Widths).Inset(n.outline.Padding), nil
}

// drawBorder 沿每条边框带的中线描边。
func drawBorder(s Surface, box Rect, b Border) error {
	w := b.Widths
	right, bottom := box.X+box.Width, box.Y+box.Height
	sides := []struct {
		width          float64
		x1, y1, x2, y2 float64
	}{
		{w.Top, box.X, box.Y + w.Top/2, right, box.Y + w.Top/2},
		{w.Right, right - w.Right/2, box.Y, right - w.Right/2, bottom},
		{w.Bottom, box.X, bottom - w.Bottom/2, right, bottom - w.Bottom/2},
		{w.Left, box.X + w.Left/2, box.Y, box.X + w.Left/2, bottom},
	}
	for _, side := range sides {
		if side.width <= 0 {
			continue
		}
		if err := s.StrokeLine(side.x1, side.y1, side.x2, side.y2, b.style(side.width)); err != nil {
			return err
		}
	}
	return nil
}

// stretchable is implemented by elements of this package.
type stretchable interface {
	stretchTo(net Size)
}

// stretch 让 e 至少按给定的完整尺寸绘制。
func stretch(e Element, full Size) {
	if s, ok := e.(stretchable); ok {
		s.stretchTo(Size{
			Width:  math.Max(full.Width-e.OutlineXSum(), 0),
			Height: math.Max(full.Height-e.OutlineYSum(), 0),
		})
	}
}

// fullSize 返回准备尺寸加上 outline。
func fullSize(e Element) (Size, error) {
	s, err := e.PreparedSize()
	if err != nil {
		return Size{}, err
	}
	return s.Plus(e.OutlineXSum(), e.OutlineYSum()), nil
}

// kindOf reports the element kind for diagnostics.
func kindOf(e Element) string {
	if k, ok := e.(interface{ Kind() string }); ok {
		return k.Kind()
	}
	return fmt.Sprintf("%T", e)
}
