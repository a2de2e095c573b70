package canvasrenderer

import (
	"bytes"
	"fmt"
	"image"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"
	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"

	"github.com/ByLCY/labelkit/binding"
	"github.com/ByLCY/labelkit/layout"
	"github.com/ByLCY/labelkit/palette"
	"github.com/ByLCY/labelkit/renderer"
)

// 文档页面几何（mm）：页面为 (maxWidth+20)×(maxHeight+80)，
// 页眉图片框位于 (10,10)，大小 100×20；标签栅格图位于 (10,40)；
// 页脚各行右对齐到 x=maxWidth，最后一行基线距底边 10mm，向上每行递增 10mm。
const (
	docMargin      = 10.0
	docLogoWidth   = 100.0
	docLogoHeight  = 20.0
	docContentTop  = 40.0
	docExtraHeight = 80.0
	docFooterStep  = 10.0
	docFooterPt    = 8.0
	docHeaderPt    = 12.0
	docHeaderGap   = 5.0
)

// DocumentOptions 配置打印文档渲染器。
type DocumentOptions struct {
	Fonts   *FontSource
	Palette *palette.Resolver
	// Converter 为空时使用 Rasterizer{DPMM}。
	Converter RasterConverter
	DPMM      float64
	// Logo 为页眉图片路径，相对路径基于 BaseDir。
	Logo    string
	BaseDir string
	// Header/Footer 支持 ${group}、${page}、${pages}、${date}、${job}。
	Header string
	Footer []string
	Job    string
	Now    func() time.Time
}

// Document 将整组 Plan 输出为一个多页 PDF：每页含页眉图片、栅格化的标签页与签名页脚。
type Document struct {
	opts DocumentOptions
	logo image.Image
}

var _ renderer.Renderer = (*Document)(nil)

// NewDocument 创建文档渲染器并预先加载页眉图片。
func NewDocument(opts DocumentOptions) (*Document, error) {
	if opts.Fonts == nil {
		return nil, fmt.Errorf("文档渲染器缺少字体源")
	}
	if opts.Palette == nil {
		opts.Palette = palette.Default()
	}
	if opts.DPMM <= 0 {
		opts.DPMM = DefaultDPMM
	}
	if opts.Converter == nil {
		opts.Converter = Rasterizer{DPMM: opts.DPMM}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	d := &Document{opts: opts}
	if opts.Logo != "" {
		path := opts.Logo
		if !filepath.IsAbs(path) && opts.BaseDir != "" {
			path = filepath.Join(opts.BaseDir, path)
		}
		img, err := imaging.Open(path, imaging.AutoOrientation(true))
		if err != nil {
			return nil, fmt.Errorf("读取页眉图片 %s 失败: %w", opts.Logo, err)
		}
		maxW := int(docLogoWidth * opts.DPMM)
		maxH := int(docLogoHeight * opts.DPMM)
		d.logo = imaging.Fit(img, maxW, maxH, imaging.Lanczos)
	}
	return d, nil
}

func (d *Document) Format() string { return renderer.FormatPDF }

// PageSize 返回文档页面尺寸（mm）。
func PageSize(spec layout.CanvasSpec) (float64, float64) {
	return spec.MaxWidth + 2*docMargin, spec.MaxHeight + docExtraHeight
}

// ContentOrigin 返回标签页在文档页面中的左上角位置（mm）。
// 矢量页中 (x, y) 处的标签在文档中位于 (x+ox, y+oy)。
func ContentOrigin() (float64, float64) { return docMargin, docContentTop }

// Render 生成 <group>.pdf。任一页栅格化失败时返回 *RasterConversionError。
func (d *Document) Render(group string, plan *layout.Plan) ([]renderer.File, error) {
	if plan == nil || len(plan.Pages) == 0 {
		return nil, fmt.Errorf("缺少可渲染的页面")
	}
	family, err := d.opts.Fonts.Family()
	if err != nil {
		return nil, err
	}
	p := painter{family: family, palette: d.opts.Palette}

	pageW, pageH := PageSize(plan.Canvas)
	var buf bytes.Buffer
	writer := pdf.New(&buf, pageW, pageH, nil)
	writer.SetInfo(group, d.opts.Job, "labels", "", "labelkit")
	for i, page := range plan.Pages {
		if i > 0 {
			writer.NewPage(pageW, pageH)
		}
		c, err := d.composePage(p, group, plan, page)
		if err != nil {
			return nil, err
		}
		c.RenderTo(writer)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("写入 PDF 失败: %w", err)
	}
	return []renderer.File{{
		Name: renderer.DocumentFileName(group, renderer.FormatPDF),
		Data: buf.Bytes(),
	}}, nil
}

// composePage 绘制完整的文档页：页眉、栅格化的标签页、页脚。
func (d *Document) composePage(p painter, group string, plan *layout.Plan, page layout.Page) (*canvas.Canvas, error) {
	content, err := p.pageCanvas(plan.Canvas, page, proofStyle)
	if err != nil {
		return nil, &renderer.PageError{Format: renderer.FormatPDF, Page: page.Index, Err: err}
	}
	raw, err := d.opts.Converter.Convert(content)
	if err != nil {
		return nil, &RasterConversionError{Group: group, Page: page.Index, Err: err}
	}
	raster, err := imaging.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, &RasterConversionError{Group: group, Page: page.Index, Err: fmt.Errorf("解码栅格图失败: %w", err)}
	}
	if raster.Bounds().Dx() == 0 {
		return nil, &RasterConversionError{Group: group, Page: page.Index, Err: fmt.Errorf("栅格图为空")}
	}

	vars := binding.Vars{
		"group": group,
		"page":  page.Index,
		"pages": len(plan.Pages),
		"date":  d.opts.Now().Format("2006-01-02"),
		"job":   d.opts.Job,
	}

	pageW, pageH := PageSize(plan.Canvas)
	c := canvas.New(pageW, pageH)
	ctx := canvas.NewContext(c)
	ctx.SetCoordSystem(canvas.CartesianIV)

	d.drawHeader(ctx, p.family, vars)

	// 以实际像素宽度反推分辨率，保证栅格图在页面上恰好占 maxWidth 毫米。
	ox, oy := ContentOrigin()
	dpmm := float64(raster.Bounds().Dx()) / plan.Canvas.MaxWidth
	ctx.DrawImage(ox, oy, raster, canvas.DPMM(dpmm))

	face := p.family.Face(docFooterPt, canvas.Black, textStyle, canvas.FontNormal)
	for _, line := range footerLayout(face, d.footerLines(vars), plan.Canvas.MaxWidth, pageH) {
		ctx.DrawText(line.X, line.Baseline, canvas.NewTextLine(face, line.Text, canvas.Left))
	}
	return c, nil
}

func (d *Document) drawHeader(ctx *canvas.Context, family *canvas.FontFamily, vars binding.Vars) {
	if d.logo != nil {
		ctx.DrawImage(docMargin, docMargin, d.logo, canvas.DPMM(d.opts.DPMM))
	}
	if d.opts.Header == "" {
		return
	}
	face := family.Face(docHeaderPt, canvas.Black, textStyle, canvas.FontNormal)
	x := docMargin + docLogoWidth + docHeaderGap
	midY := docMargin + docLogoHeight/2
	ctx.DrawText(x, baselineFor(face, midY), canvas.NewTextLine(face, binding.Expand(d.opts.Header, vars), canvas.Left))
}

func (d *Document) footerLines(vars binding.Vars) []string {
	out := make([]string, 0, len(d.opts.Footer))
	for _, line := range d.opts.Footer {
		out = append(out, binding.Expand(line, vars))
	}
	return out
}

// footerLine 是一行已定位的页脚文字。X 为左端，文字右端对齐到 rightEdge。
type footerLine struct {
	Text     string
	X        float64
	Baseline float64
}

// footerLayout 自下而上排列页脚：最后一行基线距底边 docFooterStep，每上一行再加 docFooterStep。
func footerLayout(face *canvas.FontFace, lines []string, rightEdge, pageH float64) []footerLine {
	out := make([]footerLine, 0, len(lines))
	for i, text := range lines {
		fromBottom := len(lines) - i
		out = append(out, footerLine{
			Text:     text,
			X:        rightEdge - face.TextWidth(text),
			Baseline: pageH - docFooterStep*float64(fromBottom),
		})
	}
	return out
}
