// Package config loads quire's TOML settings: page defaults, the default
// font, debug switches and placeholder estimates.
package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"github.com/ByLCY/quire/binding"
	"github.com/ByLCY/quire/layout"
)

// Config is the decoded configuration file.
type Config struct {
	Page      Page              `toml:"page"`
	Font      Font              `toml:"font"`
	FontDir   string            `toml:"font_dir"`
	LogLevel  string            `toml:"log_level"`
	Debug     layout.DebugFlags `toml:"debug"`
	Estimates map[string]string `toml:"estimates"`
}

// Page holds the defaults used when a page section omits them.
type Page struct {
	Size        string `toml:"size"`
	Orientation string `toml:"orientation"`
	Margin      string `toml:"margin"`
}

// Font is the default text font.
type Font struct {
	Family string  `toml:"family"`
	Size   float64 `toml:"size"`
	Color  string  `toml:"color"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Page:      Page{Size: "A4", Orientation: "portrait", Margin: "20mm"},
		Font:      Font{Family: "Go", Size: 11, Color: "#1e1e1e"},
		LogLevel:  "info",
		Estimates: binding.DefaultEstimates(),
	}
}

// Load reads path on top of Default. Unknown keys are reported as errors.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("读取配置 %s 失败: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return Config{}, fmt.Errorf("配置 %s 含有未知字段: %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("配置 %s 无效: %w", path, err)
	}
	return cfg, nil
}

// Validate checks values that TOML decoding cannot.
func (c Config) Validate() error {
	var errs []error
	if c.Font.Size <= 0 {
		errs = append(errs, fmt.Errorf("font.size 必须为正数，当前为 %g", c.Font.Size))
	}
	switch strings.ToLower(c.Page.Orientation) {
	case "", "portrait", "landscape":
	default:
		errs = append(errs, fmt.Errorf("page.orientation 只能是 portrait 或 landscape，当前为 %q", c.Page.Orientation))
	}
	if c.Page.Margin != "" {
		if _, err := layout.ParseSpacing(c.Page.Margin); err != nil {
			errs = append(errs, fmt.Errorf("page.margin: %w", err))
		}
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Level parses LogLevel; an empty value means info.
func (c Config) Level() (log.Level, error) {
	if c.LogLevel == "" {
		return log.InfoLevel, nil
	}
	lvl, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel, fmt.Errorf("log_level %q 无法识别", c.LogLevel)
	}
	return lvl, nil
}
