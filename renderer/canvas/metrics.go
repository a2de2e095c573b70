package canvasrenderer

import (
	"math"
	"sync"

	"github.com/tdewolff/canvas"

	"github.com/ByLCY/labelkit/layout"
)

// Metrics 实现 layout.TextMetrics，使用与渲染相同的字体测量文字。
// 约定：入参字号与返回的宽高均为毫米（mm）；创建字体面时换算为 pt。
// 同一个 Metrics 可被多个分组并发调用，测量在内部串行执行。
type Metrics struct {
	mu     sync.Mutex
	family *canvas.FontFamily
}

var _ layout.TextMetrics = (*Metrics)(nil)

// NewMetrics 从字体源加载测量用字体。
func NewMetrics(src *FontSource) (*Metrics, error) {
	family, err := src.Family()
	if err != nil {
		return nil, err
	}
	return &Metrics{family: family}, nil
}

// Measure 返回 text 在 fontSize 下的宽度与高度，高度为 max(fontSize, ascent+descent)。
func (m *Metrics) Measure(text string, fontSize float64) (layout.Extent, error) {
	if fontSize <= 0 {
		return layout.Extent{}, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	face := m.family.Face(toPt(fontSize), canvas.Black, textStyle, canvas.FontNormal)
	fm := face.Metrics()
	return layout.Extent{
		Width:  face.TextWidth(text),
		Height: math.Max(fontSize, fm.Ascent+math.Abs(fm.Descent)),
	}, nil
}

// toPt 将毫米(mm)转换为点(pt)。
func toPt(mm float64) float64 { return mm * layout.MmToPt }
