package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/ByLCY/quire/binding"
	"github.com/ByLCY/quire/config"
	"github.com/ByLCY/quire/document"
	"github.com/ByLCY/quire/dsl"
	"github.com/ByLCY/quire/fonts"
	"github.com/ByLCY/quire/layout"
	canvasrenderer "github.com/ByLCY/quire/renderer/canvas"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// runOpts 是 render 与 inspect 共用的参数。
type runOpts struct {
	data    string
	config  string
	verbose bool
}

func newRootCmd() *cobra.Command {
	opts := &runOpts{}
	root := &cobra.Command{
		Use:          "quire",
		Short:        "quire 将 .qdl 文档排版并输出为 PDF",
		SilenceUsage: true,
	}
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "输出调试日志")
	root.PersistentFlags().StringVar(&opts.data, "data", "", "绑定到文档的 JSON 数据，以 @ 开头时读取文件")
	root.PersistentFlags().StringVarP(&opts.config, "config", "c", "", "TOML 配置文件路径")

	root.AddCommand(newRenderCmd(opts), newInspectCmd(opts), newFontsCmd())
	return root
}

func newRenderCmd(opts *runOpts) *cobra.Command {
	var output, debugPath string
	cmd := &cobra.Command{
		Use:   "render <input.qdl>",
		Short: "排版并生成 PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()
			input := args[0]
			p, err := paginate(input, opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if output == "" {
				output = strings.TrimSuffix(input, filepath.Ext(input)) + ".pdf"
			}
			if debugPath != "" {
				if err := writeDebug(p.pages, debugPath); err != nil {
					return err
				}
			}

			pdfBytes, err := p.renderer.Render(p.pages, p.doc.Meta)
			if err != nil {
				return fmt.Errorf("渲染 PDF 失败: %w", err)
			}
			if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
				return fmt.Errorf("创建输出目录失败: %w", err)
			}
			if err := os.WriteFile(output, pdfBytes, 0o644); err != nil {
				return fmt.Errorf("写入 PDF 文件失败: %w", err)
			}
			p.logger.Info("已生成 PDF", "output", output, "pages", len(p.pages), "elapsed", time.Since(start).Round(time.Millisecond))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "PDF 输出路径，默认与输入同名")
	cmd.Flags().StringVar(&debugPath, "debug-json", "", "布局调试 JSON 输出路径")
	return cmd
}

func newInspectCmd(opts *runOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <input.qdl>",
		Short: "输出分页结果的 JSON，不生成 PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := paginate(args[0], opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			out, err := layout.DebugDump(p.pages)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return err
		},
	}
}

func newFontsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fonts",
		Short: "列出内置字体，可用 embed:<name> 引用",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range fonts.Names() {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), name); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

// pipeline 是一次解析、构建与分页的结果。
type pipeline struct {
	doc      *document.Document
	pages    []*layout.PageLayout
	renderer *canvasrenderer.Renderer
	logger   *log.Logger
}

// paginate 串联配置、解析、构建与分页。
func paginate(input string, opts *runOpts, stderr io.Writer) (*pipeline, error) {
	cfg, err := config.Load(opts.config)
	if err != nil {
		return nil, err
	}
	level, err := cfg.Level()
	if err != nil {
		return nil, err
	}
	if opts.verbose {
		level = log.DebugLevel
	}
	logger := newLogger(stderr, level)

	data, err := loadData(opts.data)
	if err != nil {
		return nil, err
	}

	parsed, err := dsl.ParseFile(input)
	if err != nil {
		return nil, fmt.Errorf("解析文档失败: %w", err)
	}

	baseDir := filepath.Dir(input)
	doc, err := document.Build(parsed, data, document.Options{Config: cfg, BaseDir: baseDir, Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("构建文档失败: %w", err)
	}

	fontDir := cfg.FontDir
	if fontDir == "" {
		fontDir = baseDir
	}
	r := canvasrenderer.NewRendererWithOptions(canvasrenderer.Options{
		BaseDir:    fontDir,
		Fonts:      fontSources(doc.Fonts),
		Logger:     logger,
		BeforePage: binding.PageHook,
	})
	pass := layout.NewPassContext(r.Measurer(),
		layout.WithLogger(logger),
		layout.WithDebug(cfg.Debug),
		layout.WithEstimates(cfg.Estimates),
	)
	pages, err := doc.Layout(pass)
	if err != nil {
		return nil, fmt.Errorf("布局计算失败: %w", err)
	}
	logger.Debug("layout done", "pages", len(pages))
	return &pipeline{doc: doc, pages: pages, renderer: r, logger: logger}, nil
}

func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

func loadData(value string) (any, error) {
	if value == "" {
		return nil, nil
	}
	raw := []byte(value)
	if path, ok := strings.CutPrefix(value, "@"); ok {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("读取数据文件失败: %w", err)
		}
		raw = b
	}
	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("解析 data JSON 失败: %w", err)
	}
	return data, nil
}

func fontSources(files map[string]document.FontFiles) map[string]canvasrenderer.FontSource {
	out := make(map[string]canvasrenderer.FontSource, len(files))
	for name, f := range files {
		out[name] = canvasrenderer.FontSource{
			Regular:    canvasrenderer.Resource{Path: f.Regular},
			Bold:       canvasrenderer.Resource{Path: f.Bold},
			Italic:     canvasrenderer.Resource{Path: f.Italic},
			BoldItalic: canvasrenderer.Resource{Path: f.BoldItalic},
		}
	}
	return out
}

func writeDebug(pages []*layout.PageLayout, debugPath string) error {
	if err := os.MkdirAll(filepath.Dir(debugPath), 0o755); err != nil {
		return fmt.Errorf("创建调试目录失败: %w", err)
	}
	if err := layout.WriteDebugJSON(pages, debugPath); err != nil {
		return fmt.Errorf("输出调试 JSON 失败: %w", err)
	}
	return nil
}
