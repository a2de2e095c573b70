package canvasrenderer

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/rasterizer"
)

// DefaultDPMM 是未指定分辨率时的栅格化精度（每毫米像素数，约 254 dpi）。
const DefaultDPMM = 10.0

// RasterConverter 将一页矢量内容转换为图片字节，供文档渲染器嵌入。
type RasterConverter interface {
	Convert(page *canvas.Canvas) ([]byte, error)
}

// Rasterizer 是基于 tdewolff/canvas 光栅化器的 RasterConverter，输出 PNG。
type Rasterizer struct {
	DPMM float64
}

var _ RasterConverter = Rasterizer{}

// Convert 以 r.DPMM 的分辨率栅格化 page 并编码为 PNG。
func (r Rasterizer) Convert(page *canvas.Canvas) ([]byte, error) {
	if page == nil {
		return nil, fmt.Errorf("栅格化的页面为空")
	}
	dpmm := r.DPMM
	if dpmm <= 0 {
		dpmm = DefaultDPMM
	}
	img := rasterizer.Draw(page, canvas.DPMM(dpmm), canvas.DefaultColorSpace)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("编码 PNG 失败: %w", err)
	}
	return buf.Bytes(), nil
}

// RasterConversionError 表示文档渲染时某一页栅格化失败；只影响该分组的文档。
type RasterConversionError struct {
	Group string
	Page  int
	Err   error
}

func (e *RasterConversionError) Error() string {
	return fmt.Sprintf("分组 %s 第 %d 页栅格化失败: %v", e.Group, e.Page, e.Err)
}

func (e *RasterConversionError) Unwrap() error { return e.Err }
