package renderer

import (
	"fmt"
	"strings"

	"github.com/ByLCY/labelkit/layout"
)

// 支持的输出格式，同时也是文件扩展名。
const (
	FormatSVG  = "svg"
	FormatPDF  = "pdf"
	FormatLBRN = "lbrn2"
)

// Formats 按固定顺序列出全部输出格式。
var Formats = []string{FormatSVG, FormatPDF, FormatLBRN}

// MinLegibleSize 是字号适配返回 0 时的绘制字号（mm）：标签照常输出，只是文字可能溢出。
const MinLegibleSize = 1.0

// Renderer 将同一个 Plan 输出为某种格式的文件。
// Render 只读取 plan，不得自行推导坐标；group 仅用于文件命名与页眉页脚。
type Renderer interface {
	Format() string
	Render(group string, plan *layout.Plan) ([]File, error)
}

// File 是渲染器产出的一个命名文件。Name 不含目录，由导出阶段放入分组目录。
type File struct {
	Name string
	Data []byte
}

// PageError 标记失败发生在哪一页，便于导出结果报告。
type PageError struct {
	Format string
	Page   int
	Err    error
}

func (e *PageError) Error() string {
	return fmt.Sprintf("%s 第 %d 页: %v", e.Format, e.Page, e.Err)
}

func (e *PageError) Unwrap() error { return e.Err }

// NormalizeFormat 规范化格式名，大小写不敏感，"lbrn" 视为 "lbrn2"。
func NormalizeFormat(name string) (string, bool) {
	f := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "."))
	if f == "lbrn" {
		f = FormatLBRN
	}
	for _, known := range Formats {
		if f == known {
			return f, true
		}
	}
	return "", false
}

// DrawSize 返回实际绘制字号：适配失败（<=0）时取 MinLegibleSize。
func DrawSize(fitted float64) float64 {
	if fitted <= 0 {
		return MinLegibleSize
	}
	return fitted
}

// PageFileName 返回按页输出的文件名，如 "combined_labels_black_white_1.svg"。
func PageFileName(group string, page int, ext string) string {
	return fmt.Sprintf("%s_%d.%s", group, page, ext)
}

// DocumentFileName 返回整组输出一个文件时的文件名，如 "combined_labels_black_white.pdf"。
func DocumentFileName(group, ext string) string {
	return group + "." + ext
}
