package canvasrenderer

import (
	"bytes"
	"fmt"

	"github.com/tdewolff/canvas/renderers/svg"

	"github.com/ByLCY/labelkit/layout"
	"github.com/ByLCY/labelkit/palette"
	"github.com/ByLCY/labelkit/renderer"
)

// Vector 将每页输出为一个 maxWidth×maxHeight 的 SVG 文件，供切割驱动读取。
type Vector struct {
	fonts   *FontSource
	palette *palette.Resolver
}

var _ renderer.Renderer = (*Vector)(nil)

// NewVector 创建矢量页渲染器。palette 为空时使用内置颜色表。
func NewVector(fonts *FontSource, pal *palette.Resolver) *Vector {
	if pal == nil {
		pal = palette.Default()
	}
	return &Vector{fonts: fonts, palette: pal}
}

func (v *Vector) Format() string { return renderer.FormatSVG }

// Render 为 plan 的每一页生成 <group>_<n>.svg。
func (v *Vector) Render(group string, plan *layout.Plan) ([]renderer.File, error) {
	if plan == nil || len(plan.Pages) == 0 {
		return nil, fmt.Errorf("缺少可渲染的页面")
	}
	family, err := v.fonts.Family()
	if err != nil {
		return nil, err
	}
	p := painter{family: family, palette: v.palette}

	files := make([]renderer.File, 0, len(plan.Pages))
	for _, page := range plan.Pages {
		c, err := p.pageCanvas(plan.Canvas, page, outlineStyle)
		if err != nil {
			return nil, &renderer.PageError{Format: renderer.FormatSVG, Page: page.Index, Err: err}
		}
		var buf bytes.Buffer
		writer := svg.New(&buf, plan.Canvas.MaxWidth, plan.Canvas.MaxHeight, nil)
		c.RenderTo(writer)
		if err := writer.Close(); err != nil {
			return nil, &renderer.PageError{Format: renderer.FormatSVG, Page: page.Index, Err: fmt.Errorf("写入 SVG 失败: %w", err)}
		}
		files = append(files, renderer.File{
			Name: renderer.PageFileName(group, page.Index, renderer.FormatSVG),
			Data: buf.Bytes(),
		})
	}
	return files, nil
}
