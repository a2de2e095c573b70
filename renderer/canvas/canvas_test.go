package canvasrenderer

import (
	"bytes"
	"errors"
	"image"
	"io"
	"log"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/rasterizer"

	"github.com/ByLCY/labelkit/fonts"
	"github.com/ByLCY/labelkit/label"
	"github.com/ByLCY/labelkit/layout"
	"github.com/ByLCY/labelkit/palette"
	"github.com/ByLCY/labelkit/renderer"
)

var quiet = log.New(io.Discard, "", 0)

func newMetrics(t *testing.T) *Metrics {
	t.Helper()
	m, err := NewMetrics(NewFontSource(fonts.MonoBold, "", quiet))
	if err != nil {
		t.Fatalf("NewMetrics error: %v", err)
	}
	return m
}

func samplePlan(t *testing.T, n int) *layout.Plan {
	t.Helper()
	spec := layout.CanvasSpec{MaxWidth: 200, MaxHeight: 100, Columns: 2, ColumnSpacing: 4, Padding: 1, LineGap: 3}
	recs := make([]label.Record, n)
	for i := range recs {
		recs[i] = label.Record{
			Width: 40, Height: 30,
			TextColor: "black", BackgroundColor: "yellow",
			FirstLine: "A1", SecondLine: "B", FirstSize: 10, SecondSize: 6,
			Row: i + 2,
		}
	}
	plan, err := layout.Pack(recs, spec, layout.Options{Metrics: newMetrics(t), Logger: quiet})
	if err != nil {
		t.Fatalf("Pack error: %v", err)
	}
	return plan
}

func TestMetricsMeasure(t *testing.T) {
	m := newMetrics(t)
	small, err := m.Measure("HELLO", 5)
	if err != nil {
		t.Fatalf("Measure error: %v", err)
	}
	large, err := m.Measure("HELLO", 10)
	if err != nil {
		t.Fatalf("Measure error: %v", err)
	}
	if small.Width <= 0 || large.Width <= small.Width {
		t.Fatalf("宽度应随字号增大: %g -> %g", small.Width, large.Width)
	}
	// 等宽字体：宽度与字号成正比
	if math.Abs(large.Width-2*small.Width) > 1e-6 {
		t.Fatalf("等宽字体宽度应与字号成正比: %g vs %g", large.Width, small.Width)
	}
	if large.Height < 10 {
		t.Fatalf("高度应不小于字号: %g", large.Height)
	}
	if ext, _ := m.Measure("HELLO", 0); ext != (layout.Extent{}) {
		t.Fatalf("字号为 0 时应返回空 Extent: %+v", ext)
	}
}

func TestFitWithFontMetrics(t *testing.T) {
	m := newMetrics(t)
	size, ext, err := layout.Fit(m, "Kitchen cabinet", 60, 20, 1, 20)
	if err != nil {
		t.Fatalf("Fit error: %v", err)
	}
	if size <= 0 || size >= 20 {
		t.Fatalf("长文本应被缩小到 (0, 20) 之间，实际 %g", size)
	}
	if ext.Width > 59 || ext.Height > 19 {
		t.Fatalf("适配后的文字应放入盒子: %+v", ext)
	}
}

func TestFontSourceFallback(t *testing.T) {
	var logs bytes.Buffer
	src := NewFontSource("missing/font.ttf", t.TempDir(), log.New(&logs, "", 0))
	family, err := src.Family()
	if err != nil {
		t.Fatalf("缺失字体应回退到内置字体: %v", err)
	}
	if family == nil {
		t.Fatalf("回退字体为空")
	}
	if !strings.Contains(logs.String(), "missing/font.ttf") {
		t.Fatalf("回退时应记录日志，实际 %q", logs.String())
	}
}

func TestVectorRender(t *testing.T) {
	plan := samplePlan(t, 14)
	if len(plan.Pages) < 2 {
		t.Fatalf("测试需要至少 2 页，实际 %d", len(plan.Pages))
	}
	v := NewVector(NewFontSource("", "", quiet), nil)
	files, err := v.Render("combined_labels_black_yellow", plan)
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}
	if len(files) != len(plan.Pages) {
		t.Fatalf("每页应输出一个 SVG，期望 %d 实际 %d", len(plan.Pages), len(files))
	}
	for i, f := range files {
		want := renderer.PageFileName("combined_labels_black_yellow", i+1, renderer.FormatSVG)
		if f.Name != want {
			t.Fatalf("文件名不符: %s != %s", f.Name, want)
		}
		if !bytes.Contains(f.Data, []byte("<svg")) {
			t.Fatalf("%s 不是 SVG", f.Name)
		}
	}
}

func TestVectorRenderInvalidColor(t *testing.T) {
	plan := samplePlan(t, 1)
	plan.Pages[0].Labels[0].Record.BackgroundColor = "not a color"
	_, err := NewVector(NewFontSource("", "", quiet), palette.Default()).Render("g", plan)
	var pageErr *renderer.PageError
	if !errors.As(err, &pageErr) || pageErr.Page != 1 {
		t.Fatalf("无效颜色应返回第 1 页的 PageError，实际 %v", err)
	}
}

func TestDocumentRender(t *testing.T) {
	plan := samplePlan(t, 3)
	d, err := NewDocument(DocumentOptions{
		Fonts:  NewFontSource("", "", quiet),
		DPMM:   2,
		Header: "${group}",
		Footer: []string{"_________________________", "Client Signature"},
	})
	if err != nil {
		t.Fatalf("NewDocument error: %v", err)
	}
	files, err := d.Render("combined_labels_black_yellow", plan)
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}
	if len(files) != 1 || files[0].Name != "combined_labels_black_yellow.pdf" {
		t.Fatalf("应输出单个 PDF，实际 %+v", files)
	}
	if !bytes.HasPrefix(files[0].Data, []byte("%PDF")) {
		t.Fatalf("输出不是 PDF")
	}
}

func TestDocumentMissingLogo(t *testing.T) {
	_, err := NewDocument(DocumentOptions{Fonts: NewFontSource("", "", quiet), Logo: "nope.png", BaseDir: t.TempDir()})
	if err == nil {
		t.Fatalf("页眉图片不存在时应报错")
	}
}

type failingConverter struct{ err error }

func (f failingConverter) Convert(*canvas.Canvas) ([]byte, error) { return nil, f.err }

func TestDocumentRasterFailure(t *testing.T) {
	boom := errors.New("raster backend offline")
	d, err := NewDocument(DocumentOptions{Fonts: NewFontSource("", "", quiet), Converter: failingConverter{err: boom}})
	if err != nil {
		t.Fatalf("NewDocument error: %v", err)
	}
	_, err = d.Render("combined_labels_black_yellow", samplePlan(t, 2))
	var rasterErr *RasterConversionError
	if !errors.As(err, &rasterErr) {
		t.Fatalf("期望 RasterConversionError，实际 %v", err)
	}
	if rasterErr.Page != 1 || rasterErr.Group != "combined_labels_black_yellow" || !errors.Is(err, boom) {
		t.Fatalf("错误信息不完整: %+v", rasterErr)
	}
}

func TestFooterLayoutRightAligned(t *testing.T) {
	family, err := NewFontSource("", "", quiet).Family()
	if err != nil {
		t.Fatal(err)
	}
	face := family.Face(docFooterPt, canvas.Black, textStyle, canvas.FontNormal)
	spec := layout.DefaultCanvas()
	_, pageH := PageSize(spec)
	lines := footerLayout(face, []string{"_________________________", "Client Signature"}, spec.MaxWidth, pageH)
	if len(lines) != 2 {
		t.Fatalf("期望 2 行页脚")
	}
	if lines[0].Baseline != pageH-20 || lines[1].Baseline != pageH-10 {
		t.Fatalf("页脚基线应距底边 20/10mm: %+v", lines)
	}
	for _, l := range lines {
		if right := l.X + face.TextWidth(l.Text); math.Abs(right-spec.MaxWidth) > 1e-9 {
			t.Fatalf("页脚应右对齐到 %g，实际右端 %g", spec.MaxWidth, right)
		}
	}
	if lines[0].X >= lines[1].X {
		t.Fatalf("较长的签名线应从更左侧开始: %+v", lines)
	}
}

func TestPageGeometry(t *testing.T) {
	w, h := PageSize(layout.DefaultCanvas())
	if w != 620 || h != 380 {
		t.Fatalf("600×300 画布对应文档页面应为 620×380，实际 %g×%g", w, h)
	}
	if x, y := ContentOrigin(); x != 10 || y != 40 {
		t.Fatalf("标签页原点应为 (10, 40)，实际 (%g, %g)", x, y)
	}
}

// TestVectorAndDocumentAgree 矢量页与文档页中同一标签位于相同的相对位置（相差固定的内容原点偏移）。
func TestVectorAndDocumentAgree(t *testing.T) {
	const dpmm = 4.0
	plan := samplePlan(t, 5)
	family, err := NewFontSource("", "", quiet).Family()
	if err != nil {
		t.Fatal(err)
	}
	p := painter{family: family, palette: palette.Default()}
	d, err := NewDocument(DocumentOptions{Fonts: NewFontSource("", "", quiet), DPMM: dpmm, Now: func() time.Time { return time.Unix(0, 0) }})
	if err != nil {
		t.Fatal(err)
	}

	page := plan.Pages[0]
	vectorCanvas, err := p.pageCanvas(plan.Canvas, page, outlineStyle)
	if err != nil {
		t.Fatal(err)
	}
	docCanvas, err := d.composePage(p, "g", plan, page)
	if err != nil {
		t.Fatal(err)
	}
	vectorImg := rasterizer.Draw(vectorCanvas, canvas.DPMM(dpmm), canvas.DefaultColorSpace)
	docImg := rasterizer.Draw(docCanvas, canvas.DPMM(dpmm), canvas.DefaultColorSpace)

	ox, oy := ContentOrigin()
	white := [3]uint8{255, 255, 255}
	yellow := [3]uint8{0xfc, 0xe2, 0x04}
	for _, pl := range page.Labels {
		// 距左上角 2mm 处位于标签内部，且避开居中的文字与边框。
		x, y := pl.X+2, pl.Y+2
		if got := rgbAt(vectorImg, x, y, dpmm); !near(got, white) {
			t.Fatalf("矢量页 (%g,%g) 应为白色填充，实际 %v", x, y, got)
		}
		if got := rgbAt(docImg, x+ox, y+oy, dpmm); !near(got, yellow) {
			t.Fatalf("文档页 (%g,%g) 应为背景色，实际 %v", x+ox, y+oy, got)
		}
	}
}

func rgbAt(img image.Image, xmm, ymm, dpmm float64) [3]uint8 {
	r, g, b, _ := img.At(int(xmm*dpmm), int(ymm*dpmm)).RGBA()
	return [3]uint8{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8)}
}

func near(a, b [3]uint8) bool {
	for i := range a {
		if math.Abs(float64(a[i])-float64(b[i])) > 3 {
			return false
		}
	}
	return true
}
