package layout

import (
	"fmt"

	"github.com/ByLCY/labelkit/label"
)

// Pack 按输入顺序将标签放入画布的列与页，生成与输出格式无关的 Plan。
// 算法是确定性的单遍列折返：纵向放不下时换列，横向放不下时换页。
// 同一输入与同一画布配置总是得到完全相同的结果。
func Pack(records []label.Record, canvas CanvasSpec, opts Options) (*Plan, error) {
	if err := canvas.Validate(); err != nil {
		return nil, err
	}
	if opts.Metrics == nil {
		return nil, fmt.Errorf("layout: 缺少文字测量后端 TextMetrics")
	}

	p := newPacker(canvas, opts)
	for _, rec := range records {
		if err := p.place(rec); err != nil {
			return nil, err
		}
	}
	return p.finish(), nil
}

// packer 保存单遍打包过程中的游标状态。
type packer struct {
	canvas    CanvasSpec
	opts      Options
	threshold float64

	cursorX        float64
	cursorY        float64
	columnWidth    float64 // 当前列中最宽的标签
	thresholdIndex int     // 已插入的列间距数 + 1

	current []PlacedLabel
	pages   []Page
}

func newPacker(canvas CanvasSpec, opts Options) *packer {
	return &packer{
		canvas:         canvas,
		opts:           opts,
		threshold:      canvas.ColumnThreshold(),
		thresholdIndex: 1,
	}
}

func (p *packer) place(rec label.Record) error {
	c := p.canvas

	// 纵向溢出：回到顶部开新列；当前列越过列带边界时先插入列间距。
	if p.cursorY+rec.Height > c.MaxHeight {
		p.cursorY = 0
		if p.cursorX+p.columnWidth >= p.threshold*float64(p.thresholdIndex) {
			p.cursorX += c.ColumnSpacing
			p.thresholdIndex++
		}
		p.cursorX += p.columnWidth
		p.columnWidth = 0
	}

	// 横向溢出：结束当前页。
	if p.cursorX+rec.Width > c.MaxWidth {
		p.newPage()
	}

	placed := PlacedLabel{
		Record:    rec,
		X:         p.cursorX,
		Y:         p.cursorY,
		Oversized: rec.Width > c.MaxWidth || rec.Height > c.MaxHeight,
	}
	if placed.Oversized {
		p.opts.logger().Printf("标签 %.1f×%.1fmm（第 %d 行）超出画布 %.1f×%.1fmm，放置于第 %d 页 (%.1f, %.1f)",
			rec.Width, rec.Height, rec.Row, c.MaxWidth, c.MaxHeight, len(p.pages)+1, placed.X, placed.Y)
	}

	if err := p.fitText(&placed); err != nil {
		return err
	}

	p.current = append(p.current, placed)
	p.cursorY += rec.Height
	if rec.Width > p.columnWidth {
		p.columnWidth = rec.Width
	}
	return nil
}

// fitText 计算每行字号并在标签内垂直居中：单行居中，双行按固定行距整体居中。
func (p *packer) fitText(pl *PlacedLabel) error {
	rec := pl.Record
	m := p.opts.Metrics
	pad := p.canvas.Padding

	size, ext, err := Fit(m, rec.FirstLine, rec.Width, rec.Height, pad, rec.FirstLineSize())
	if err != nil {
		return err
	}
	pl.FirstSize, pl.FirstExtent = size, ext

	centerY := pl.CenterY()
	if !rec.HasSecondLine() {
		pl.FirstLineY = centerY
		return nil
	}

	size, ext, err = Fit(m, rec.SecondLine, rec.Width, rec.Height, pad, rec.SecondLineSize())
	if err != nil {
		return err
	}
	pl.SecondSize, pl.SecondExtent = size, ext

	gap := p.canvas.LineGap
	total := pl.FirstSize + gap + pl.SecondSize
	top := centerY - total/2
	pl.FirstLineY = top + pl.FirstSize/2
	pl.SecondLineY = top + pl.FirstSize + gap + pl.SecondSize/2
	return nil
}

// newPage 关闭当前页并重置游标。空页不会被输出。
func (p *packer) newPage() {
	if len(p.current) > 0 {
		p.pages = append(p.pages, Page{Index: len(p.pages) + 1, Labels: p.current})
		p.current = nil
	}
	p.cursorX = 0
	p.cursorY = 0
	p.columnWidth = 0
	p.thresholdIndex = 1
}

func (p *packer) finish() *Plan {
	if len(p.current) > 0 {
		p.pages = append(p.pages, Page{Index: len(p.pages) + 1, Labels: p.current})
		p.current = nil
	}
	return &Plan{Canvas: p.canvas, Pages: p.pages}
}
