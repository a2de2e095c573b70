package layout

import (
	"fmt"

	"github.com/ByLCY/labelkit/label"
)

// 该文件定义画布配置与打包结果，供打包、各渲染器与调试 JSON 共用。所有长度单位均为毫米（mm）。

// CanvasSpec 是一次导出运行的画布配置，按值传递，运行期间不可变。
type CanvasSpec struct {
	MaxWidth  float64 `json:"maxWidth"`
	MaxHeight float64 `json:"maxHeight"`
	// Columns 将画布宽度划分为若干列带，仅用于决定何时插入列间距。
	Columns       int     `json:"columns"`
	ColumnSpacing float64 `json:"columnSpacing"`
	// Padding 是文字适配时从标签宽高中扣除的留白。
	Padding float64 `json:"padding"`
	// LineGap 是两行文字之间的固定间隔。
	LineGap float64 `json:"lineGap"`
}

// DefaultCanvas 返回下单表单的默认画布：600×300mm，3 列，列间距 6mm。
func DefaultCanvas() CanvasSpec {
	return CanvasSpec{
		MaxWidth:      600,
		MaxHeight:     300,
		Columns:       3,
		ColumnSpacing: 6,
		Padding:       1,
		LineGap:       10,
	}
}

// ColumnThreshold 返回列带宽度 maxWidth / columns。
func (c CanvasSpec) ColumnThreshold() float64 {
	return c.MaxWidth / float64(c.Columns)
}

// Validate 检查画布配置是否可用于打包。
func (c CanvasSpec) Validate() error {
	switch {
	case c.MaxWidth <= 0 || c.MaxHeight <= 0:
		return fmt.Errorf("%w: 画布尺寸必须为正数 (%g×%g)", ErrInvalidCanvas, c.MaxWidth, c.MaxHeight)
	case c.Columns <= 0:
		return fmt.Errorf("%w: 列数必须为正整数 (%d)", ErrInvalidCanvas, c.Columns)
	case c.ColumnSpacing < 0 || c.Padding < 0 || c.LineGap < 0:
		return fmt.Errorf("%w: 间距与留白不能为负数", ErrInvalidCanvas)
	}
	return nil
}

// Extent 是文字测量结果。
type Extent struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Plan 是打包结果：按顺序排列的页面，每页包含已定位、已确定字号的标签。
// Plan 一经生成即只读，所有渲染器都直接消费它，不再自行推导坐标。
type Plan struct {
	Canvas CanvasSpec `json:"canvas"`
	Pages  []Page     `json:"pages"`
}

// Page 是画布上的一页。
type Page struct {
	Index  int           `json:"index"` // 从 1 开始
	Labels []PlacedLabel `json:"labels"`
}

// PlacedLabel 是定位后的一张标签。X/Y 为左上角坐标。
type PlacedLabel struct {
	Record label.Record `json:"record"`
	X      float64      `json:"x"`
	Y      float64      `json:"y"`

	FirstSize   float64 `json:"firstSize"`
	FirstExtent Extent  `json:"firstExtent"`
	// FirstLineY/SecondLineY 为每行文字垂直中线在页面中的 y 坐标。
	FirstLineY float64 `json:"firstLineY"`

	SecondSize   float64 `json:"secondSize,omitempty"`
	SecondExtent Extent  `json:"secondExtent,omitempty"`
	SecondLineY  float64 `json:"secondLineY,omitempty"`

	// Oversized 表示标签本身超出画布，无法完整落在页面内。
	Oversized bool `json:"oversized,omitempty"`
}

func (p PlacedLabel) Width() float64  { return p.Record.Width }
func (p PlacedLabel) Height() float64 { return p.Record.Height }

// CenterX 返回标签水平中线，文字均以此居中。
func (p PlacedLabel) CenterX() float64 { return p.X + p.Record.Width/2 }

// CenterY 返回标签垂直中线。
func (p PlacedLabel) CenterY() float64 { return p.Y + p.Record.Height/2 }

// HasSecondLine 判断是否需要绘制第二行。
func (p PlacedLabel) HasSecondLine() bool { return p.Record.HasSecondLine() }

// LabelCount 返回计划中的标签总数。
func (p *Plan) LabelCount() int {
	n := 0
	for _, page := range p.Pages {
		n += len(page.Labels)
	}
	return n
}
