package export

import (
	"errors"
	"fmt"

	"github.com/ByLCY/labelkit/renderer"
	canvasrenderer "github.com/ByLCY/labelkit/renderer/canvas"
)

// ErrNoRecords 表示没有任何可导出的标签记录。
var ErrNoRecords = errors.New("export: 没有可导出的标签")

// GroupError 记录某个分组在哪个阶段失败。Format 为空表示打包阶段失败；Page 为 0 表示无法定位到页。
type GroupError struct {
	Group  string
	Format string
	Page   int
	Err    error
}

func (e *GroupError) Error() string {
	switch {
	case e.Format == "":
		return fmt.Sprintf("分组 %s 打包失败: %v", e.Group, e.Err)
	case e.Page > 0:
		return fmt.Sprintf("分组 %s 输出 %s 第 %d 页失败: %v", e.Group, e.Format, e.Page, e.Err)
	default:
		return fmt.Sprintf("分组 %s 输出 %s 失败: %v", e.Group, e.Format, e.Err)
	}
}

func (e *GroupError) Unwrap() error { return e.Err }

// ArchiveWriteError 表示归档写入失败，整个导出随之失败。
type ArchiveWriteError struct {
	Name string
	Err  error
}

func (e *ArchiveWriteError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("关闭归档失败: %v", e.Err)
	}
	return fmt.Sprintf("写入归档 %s 失败: %v", e.Name, e.Err)
}

func (e *ArchiveWriteError) Unwrap() error { return e.Err }

// failedPage 从渲染错误中提取失败页码，找不到时返回 0。
func failedPage(err error) int {
	var pageErr *renderer.PageError
	if errors.As(err, &pageErr) {
		return pageErr.Page
	}
	var rasterErr *canvasrenderer.RasterConversionError
	if errors.As(err, &rasterErr) {
		return rasterErr.Page
	}
	return 0
}
