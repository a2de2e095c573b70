package config

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/ByLCY/labelkit/fonts"
	"github.com/ByLCY/labelkit/layout"
	"github.com/ByLCY/labelkit/renderer"
)

// 环境变量名。未设置、无法解析或不为正数时保留原值。
const (
	EnvMaxWidth    = "LABELS_MAX_WIDTH"
	EnvMaxHeight   = "LABELS_MAX_HEIGHT"
	EnvColumns     = "LABELS_COLUMNS"
	EnvColumnSpace = "LABELS_COLUMN_SPACE"
	EnvPadding     = "LABELS_PADDING"
	EnvLineGap     = "LABELS_LINE_GAP"
	EnvFormats     = "LABELS_FORMATS"
	EnvConcurrency = "LABELS_CONCURRENCY"
	EnvDPMM        = "LABELS_DPMM"
)

// Config 是一次导出运行的完整配置。按值传递，导出开始后不再修改。
type Config struct {
	Name        string
	Canvas      layout.CanvasSpec
	Formats     []string
	Palette     map[string]string
	Document    Document
	Concurrency int
}

// Document 配置打印文档的页眉、页脚与栅格化分辨率。
type Document struct {
	// Logo 为页眉图片路径，空表示不绘制页眉图片。
	Logo string
	// Header 绘制在页眉图片右侧，支持 ${group}、${page}、${pages}、${date}。
	Header string
	// Footer 自下而上第二行起依次排列，右对齐到画布右边缘。
	Footer []string
	// Font 为内置字体名或 TTF 文件路径。
	Font string
	// DPMM 是页面栅格化分辨率（每毫米像素数）。
	DPMM float64
}

// Default 返回默认配置：600×300mm 画布，输出矢量页与切割工程文件。
func Default() Config {
	return Config{
		Canvas:  layout.DefaultCanvas(),
		Formats: []string{renderer.FormatSVG, renderer.FormatLBRN},
		Document: Document{
			Footer: []string{"_________________________", "Client Signature"},
			Font:   fonts.MonoBold,
			DPMM:   10,
		},
		Concurrency: 4,
	}
}

// Clone 返回不与 c 共享切片和 map 的副本。
func (c Config) Clone() Config {
	out := c
	out.Formats = slices.Clone(c.Formats)
	out.Palette = maps.Clone(c.Palette)
	out.Document.Footer = slices.Clone(c.Document.Footer)
	return out
}

// LoadEnvFile 读取 .env 文件并与进程环境合并后应用到 base。
// 文件中的值覆盖进程环境；path 为空或文件不存在时仅使用进程环境。
func LoadEnvFile(base Config, path string) (Config, error) {
	env := processEnv()
	if path != "" {
		fileEnv, err := godotenv.Read(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return base, fmt.Errorf("读取环境文件 %s 失败: %w", path, err)
		default:
			maps.Copy(env, fileEnv)
		}
	}
	return FromEnv(base, env), nil
}

// FromEnv 将环境变量应用到 base 并返回新配置，无效值被忽略。
func FromEnv(base Config, env map[string]string) Config {
	c := base.Clone()
	positiveMM(env, EnvMaxWidth, &c.Canvas.MaxWidth)
	positiveMM(env, EnvMaxHeight, &c.Canvas.MaxHeight)
	positiveMM(env, EnvColumnSpace, &c.Canvas.ColumnSpacing)
	positiveMM(env, EnvPadding, &c.Canvas.Padding)
	positiveMM(env, EnvLineGap, &c.Canvas.LineGap)
	positiveInt(env, EnvColumns, &c.Canvas.Columns)
	positiveInt(env, EnvConcurrency, &c.Concurrency)
	if v, ok := env[EnvDPMM]; ok {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil && f > 0 {
			c.Document.DPMM = f
		}
	}
	if v, ok := env[EnvFormats]; ok {
		if formats, err := ParseFormats(strings.Split(v, ",")); err == nil && len(formats) > 0 {
			c.Formats = formats
		}
	}
	return c
}

// ParseFormats 规范化并去重格式列表，保持首次出现的顺序。
func ParseFormats(names []string) ([]string, error) {
	var out []string
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		f, ok := renderer.NormalizeFormat(name)
		if !ok {
			return nil, fmt.Errorf("不支持的输出格式 %q（可选 %s）", name, strings.Join(renderer.Formats, ", "))
		}
		if !slices.Contains(out, f) {
			out = append(out, f)
		}
	}
	return out, nil
}

// Validate 检查配置是否可用于导出。
func (c Config) Validate() error {
	if err := c.Canvas.Validate(); err != nil {
		return err
	}
	if len(c.Formats) == 0 {
		return fmt.Errorf("至少需要一种输出格式")
	}
	if _, err := ParseFormats(c.Formats); err != nil {
		return err
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("并发数必须为正整数 (%d)", c.Concurrency)
	}
	if c.Document.DPMM <= 0 {
		return fmt.Errorf("栅格化分辨率必须为正数 (%g)", c.Document.DPMM)
	}
	return nil
}

func processEnv() map[string]string {
	env := map[string]string{}
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return env
}

func positiveMM(env map[string]string, key string, dst *float64) {
	v, ok := env[key]
	if !ok {
		return
	}
	if mm, ok := layout.ParseMM(v); ok && mm > 0 {
		*dst = mm
	}
}

func positiveInt(env map[string]string, key string, dst *int) {
	v, ok := env[key]
	if !ok {
		return
	}
	if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 0 {
		*dst = n
	}
}
