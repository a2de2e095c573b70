package layout

import (
	"errors"
	"fmt"
)

// ErrInvalidCanvas 表示画布配置不可用（尺寸或列数非正）。
var ErrInvalidCanvas = errors.New("layout: 画布配置无效")

// MetricsUnavailableError 表示文字测量后端失败，当前适配无法继续。
type MetricsUnavailableError struct {
	Text string
	Size float64
	Err  error
}

func (e *MetricsUnavailableError) Error() string {
	return fmt.Sprintf("测量文字 %q (字号 %g) 失败: %v", e.Text, e.Size, e.Err)
}

func (e *MetricsUnavailableError) Unwrap() error { return e.Err }
