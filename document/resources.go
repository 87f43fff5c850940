package document

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/tdewolff/canvas"

	"github.com/ByLCY/quire/dsl"
	"github.com/ByLCY/quire/layout"
)

// FontFiles 是 font 资源声明的各样式字体文件路径，路径可带 embed: 前缀。
type FontFiles struct {
	Regular    string
	Bold       string
	Italic     string
	BoldItalic string
}

// Style 是一个具名属性集合，可通过 extends 继承。
type Style struct {
	Name    string
	Extends string
	Props   map[string]string
}

type imageResource struct {
	Name   string
	Src    string
	Width  float64
	Height float64
}

// ResourceSet 汇总 resources 段中声明的字体、颜色、图片与样式。
type ResourceSet struct {
	Fonts  map[string]FontFiles
	Colors map[string]layout.Color
	Images map[string]imageResource
	Styles map[string]Style
}

func collectResources(doc *dsl.Document) (ResourceSet, error) {
	res := ResourceSet{
		Fonts:  map[string]FontFiles{},
		Colors: map[string]layout.Color{},
		Images: map[string]imageResource{},
		Styles: map[string]Style{},
	}
	rawStyles := map[string]Style{}

	for _, cmd := range doc.Resources() {
		switch cmd.Name {
		case "font":
			name, files, err := parseFontResource(cmd)
			if err != nil {
				return res, err
			}
			res.Fonts[name] = files
		case "color":
			name, value := parseColorResource(cmd)
			if name == "" || value == "" {
				return res, fmt.Errorf("第 %d 行: color 需要名称和值: %w", cmd.Pos.Line, layout.ErrInvalidArgument)
			}
			c, err := parseColor(value)
			if err != nil {
				return res, fmt.Errorf("第 %d 行: %w", cmd.Pos.Line, err)
			}
			res.Colors[name] = c
		case "image":
			img, err := parseImageResource(cmd)
			if err != nil {
				return res, err
			}
			res.Images[img.Name] = img
		case "style":
			style := parseStyleResource(cmd)
			if style.Name != "" {
				rawStyles[style.Name] = style
			}
		default:
			return res, fmt.Errorf("第 %d 行: 未知资源类型 %s", cmd.Pos.Line, cmd.Name)
		}
	}

	resolved, err := resolveStyles(rawStyles)
	if err != nil {
		return res, err
	}
	res.Styles = resolved
	return res, nil
}

func collectMeta(doc *dsl.Document, data any) layout.DocumentMeta {
	meta := layout.DocumentMeta{
		Creator: "Quire",
	}
	for _, assign := range doc.Meta() {
		value := assign.Value
		switch strings.ToLower(assign.Key) {
		case "title":
			meta.Title = interpolate(valueToString(value), data)
		case "author":
			meta.Author = interpolate(valueToString(value), data)
		case "subject":
			meta.Subject = interpolate(valueToString(value), data)
		case "creator":
			meta.Creator = interpolate(valueToString(value), data)
		case "keywords":
			for _, kw := range valueToStringSlice(value) {
				meta.Keywords = append(meta.Keywords, interpolate(kw, data))
			}
		}
	}
	return meta
}

func parseFontResource(cmd *dsl.Command) (string, FontFiles, error) {
	var files FontFiles
	name := cmd.Arg(0)
	if name == "" {
		return "", files, fmt.Errorf("第 %d 行: font 需要名称: %w", cmd.Pos.Line, layout.ErrInvalidArgument)
	}
	if cmd.Block != nil {
		for _, stmt := range cmd.Block.Statements {
			if stmt.Assignment == nil {
				continue
			}
			src := valueToString(stmt.Assignment.Value)
			switch stmt.Assignment.Key {
			case "regular", "src":
				files.Regular = src
			case "bold":
				files.Bold = src
			case "italic":
				files.Italic = src
			case "bold-italic":
				files.BoldItalic = src
			default:
				return "", files, fmt.Errorf("font %s: 未知字段 %s", name, stmt.Assignment.Key)
			}
		}
	}
	if files.Regular == "" {
		return "", files, fmt.Errorf("font %s 缺少 regular 字体文件: %w", name, layout.ErrInvalidArgument)
	}
	return name, files, nil
}

func parseImageResource(cmd *dsl.Command) (imageResource, error) {
	img := imageResource{Name: cmd.Arg(0)}
	if img.Name == "" {
		return img, fmt.Errorf("第 %d 行: image 需要名称: %w", cmd.Pos.Line, layout.ErrInvalidArgument)
	}
	if cmd.Block == nil {
		return img, fmt.Errorf("image %s 缺少 src", img.Name)
	}
	for _, stmt := range cmd.Block.Statements {
		if stmt.Assignment == nil {
			continue
		}
		raw := valueToString(stmt.Assignment.Value)
		switch stmt.Assignment.Key {
		case "src":
			img.Src = raw
		case "width", "height":
			mm, err := layout.ParseLength(raw)
			if err != nil {
				return img, fmt.Errorf("image %s: %s: %w", img.Name, stmt.Assignment.Key, err)
			}
			if stmt.Assignment.Key == "width" {
				img.Width = mm
			} else {
				img.Height = mm
			}
		}
	}
	if img.Src == "" {
		return img, fmt.Errorf("image %s 缺少 src", img.Name)
	}
	return img, nil
}

func parseStyleResource(cmd *dsl.Command) Style {
	if len(cmd.Args) == 0 {
		return Style{}
	}
	style := Style{
		Name:  cmd.Args[0].Value,
		Props: map[string]string{},
	}
	if len(cmd.Args) >= 3 && strings.EqualFold(cmd.Args[1].Value, "extends") {
		style.Extends = cmd.Args[2].Value
	}
	if cmd.Block == nil {
		return style
	}
	for _, stmt := range cmd.Block.Statements {
		if stmt.Assignment == nil {
			continue
		}
		if val := valueToString(stmt.Assignment.Value); val != "" {
			style.Props[stmt.Assignment.Key] = val
		}
	}
	return style
}

func resolveStyles(styles map[string]Style) (map[string]Style, error) {
	resolved := map[string]Style{}
	visiting := map[string]bool{}

	var dfs func(name string) (Style, error)
	dfs = func(name string) (Style, error) {
		if style, ok := resolved[name]; ok {
			return style, nil
		}
		style, ok := styles[name]
		if !ok {
			return Style{}, fmt.Errorf("style %s 未定义", name)
		}
		if visiting[name] {
			return Style{}, fmt.Errorf("style 继承存在循环：%s", name)
		}
		visiting[name] = true

		props := map[string]string{}
		if style.Extends != "" {
			parent, err := dfs(style.Extends)
			if err != nil {
				return Style{}, err
			}
			for k, v := range parent.Props {
				props[k] = v
			}
		}
		for k, v := range style.Props {
			props[k] = v
		}
		style.Props = props
		resolved[name] = style
		delete(visiting, name)
		return style, nil
	}

	for name := range styles {
		if _, err := dfs(name); err != nil {
			return nil, err
		}
	}
	return resolved, nil
}

// color resource: `color Name = #hex` or `color Name #hex`.
func parseColorResource(cmd *dsl.Command) (string, string) {
	if len(cmd.Args) < 2 {
		return cmd.Arg(0), ""
	}
	return cmd.Args[0].Value, cmd.Args[len(cmd.Args)-1].Value
}

func (r ResourceSet) color(value string) (layout.Color, error) {
	if c, ok := r.Colors[value]; ok {
		return c, nil
	}
	return parseColor(value)
}

// pixelsPerMM is used when an image has no explicit size.
const pixelsPerMM = 4.0

func openAsset(baseDir, src string) (*os.File, error) {
	path := src
	if !filepath.IsAbs(path) && baseDir != "" {
		path = filepath.Join(baseDir, path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("读取图片 %s 失败: %w", src, err)
	}
	return f, nil
}

func isSVG(src string) bool { return strings.EqualFold(filepath.Ext(src), ".svg") }

// loadVector 解析 SVG 文件，尺寸取自 width/height 或 viewBox。
func loadVector(baseDir, src string) (*canvas.Canvas, error) {
	f, err := openAsset(baseDir, src)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	c, err := canvas.ParseSVG(f)
	if err != nil {
		return nil, fmt.Errorf("解析 SVG %s 失败: %w", src, err)
	}
	return c, nil
}

func loadImage(baseDir, src string) (image.Image, error) {
	f, err := openAsset(baseDir, src)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("解码图片 %s 失败: %w", src, err)
	}
	return img, nil
}

// imageSize fills a missing dimension from the pixel aspect ratio.
func imageSize(img image.Image, width, height float64) (float64, float64) {
	b := img.Bounds()
	pw, ph := float64(b.Dx()), float64(b.Dy())
	if pw <= 0 || ph <= 0 {
		return width, height
	}
	switch {
	case width <= 0 && height <= 0:
		return pw / pixelsPerMM, ph / pixelsPerMM
	case width <= 0:
		return height * pw / ph, height
	case height <= 0:
		return width, width * ph / pw
	default:
		return width, height
	}
}
