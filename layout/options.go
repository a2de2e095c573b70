package layout

import (
	"log"
	"unicode/utf8"
)

// Options 配置打包阶段所需的依赖，例如文字测量后端。
type Options struct {
	Metrics TextMetrics
	// Logger 接收超尺寸标签等诊断信息，为空时使用 log.Default()。
	Logger *log.Logger
}

func (o Options) logger() *log.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return log.Default()
}

// TextMetrics 负责测量一行文字在给定字号（mm）下的宽高（mm）。
// 高度约定为 max(fontSize, ascent+descent)。
type TextMetrics interface {
	Measure(text string, fontSize float64) (Extent, error)
}

// MonospaceMetrics 是等宽近似测量：宽度 = 字符数 × Advance × 字号，高度 = 字号。
// 不依赖任何字体文件，适合测试与无字体环境。
type MonospaceMetrics struct {
	Advance float64 // 字宽与字号之比，<=0 时取 0.6
}

var _ TextMetrics = MonospaceMetrics{}

func (m MonospaceMetrics) Measure(text string, fontSize float64) (Extent, error) {
	advance := m.Advance
	if advance <= 0 {
		advance = 0.6
	}
	if fontSize <= 0 {
		return Extent{}, nil
	}
	return Extent{
		Width:  float64(utf8.RuneCountInString(text)) * advance * fontSize,
		Height: fontSize,
	}, nil
}
