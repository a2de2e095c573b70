package canvasrenderer

import (
	"fmt"
	"image/color"
	"math"

	"github.com/tdewolff/canvas"

	"github.com/ByLCY/labelkit/layout"
	"github.com/ByLCY/labelkit/palette"
	"github.com/ByLCY/labelkit/renderer"
)

// outlineWidth 是标签边框线宽（mm）。
const outlineWidth = 0.2

// labelStyle 决定同一几何在不同输出中的着色方式。
type labelStyle int

const (
	// outlineStyle：白色填充，背景色描边，供切割驱动读取外框。
	outlineStyle labelStyle = iota
	// proofStyle：背景色填充，白色描边，供打印确认。
	proofStyle
)

// painter 按 Plan 中的坐标与字号绘制标签，自身不做任何布局推导。
type painter struct {
	family  *canvas.FontFamily
	palette *palette.Resolver
}

// pageCanvas 将一页标签绘制到 maxWidth×maxHeight 的画布上，坐标以左上角为原点。
func (p painter) pageCanvas(spec layout.CanvasSpec, page layout.Page, style labelStyle) (*canvas.Canvas, error) {
	c := canvas.New(spec.MaxWidth, spec.MaxHeight)
	ctx := canvas.NewContext(c)
	ctx.SetCoordSystem(canvas.CartesianIV)
	for _, pl := range page.Labels {
		if err := p.drawLabel(ctx, pl, style); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (p painter) drawLabel(ctx *canvas.Context, pl layout.PlacedLabel, style labelStyle) error {
	rec := pl.Record
	bg, err := p.palette.RGBA(rec.BackgroundColor)
	if err != nil {
		return fmt.Errorf("第 %d 行背景色无效: %w", rec.Row, err)
	}
	fg, err := p.palette.RGBA(rec.TextColor)
	if err != nil {
		return fmt.Errorf("第 %d 行文字颜色无效: %w", rec.Row, err)
	}

	switch style {
	case proofStyle:
		ctx.SetFillColor(bg)
		ctx.SetStrokeColor(canvas.White)
	default:
		ctx.SetFillColor(canvas.White)
		ctx.SetStrokeColor(bg)
	}
	ctx.SetStrokeWidth(outlineWidth)
	ctx.DrawPath(pl.X, pl.Y, canvas.Rectangle(pl.Width(), pl.Height()))

	p.drawCentered(ctx, rec.FirstLine, pl.CenterX(), pl.FirstLineY, pl.FirstSize, fg)
	if pl.HasSecondLine() {
		p.drawCentered(ctx, rec.SecondLine, pl.CenterX(), pl.SecondLineY, pl.SecondSize, fg)
	}
	return nil
}

// drawCentered 以 (centerX, midY) 为文字视觉中心绘制一行，字号为 0 时按最小可读字号绘制。
func (p painter) drawCentered(ctx *canvas.Context, text string, centerX, midY, size float64, col color.Color) {
	face := p.family.Face(toPt(renderer.DrawSize(size)), col, textStyle, canvas.FontNormal)
	ctx.DrawText(centerX, baselineFor(face, midY), canvas.NewTextLine(face, text, canvas.Center))
}

// baselineFor 返回使 [baseline-ascent, baseline+descent] 以 midY 为中点的基线位置（y 轴向下）。
func baselineFor(face *canvas.FontFace, midY float64) float64 {
	fm := face.Metrics()
	return midY + (fm.Ascent-math.Abs(fm.Descent))/2
}
