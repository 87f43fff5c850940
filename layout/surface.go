package layout

import "image"

// Surface 是 render 阶段唯一使用的绘图接口，坐标为页面坐标（mm，y 向下）。
type Surface interface {
	FillRect(r Rect, c Color) error
	StrokeLine(x1, y1, x2, y2 float64, style LineStyle) error
	DrawText(x, baseline float64, text string, font FontSpec) error
	DrawImage(r Rect, img image.Image) error
	// DrawVector 把 g 缩放到 r 内绘制。
	DrawVector(r Rect, g Graphic) error
}
