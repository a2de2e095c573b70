package layout

import "fmt"

// 字号搜索以半步（0.5）为网格：宽度每次下降 1 个半步，高度每次下降 2 个半步。
// 字号始终由 initialSize - halfStep*n 直接算出，同一网格点无论经由哪条路径都得到相同的浮点值。
const (
	halfStep    = 0.5
	widthSteps  = 1
	heightSteps = 2
)

// Fit 从 initialSize 开始缩小字号，直到 text 在扣除 padding 后的盒子内放得下。
// 先按宽度以 0.5 为步长递减，宽度满足后再按高度以 1 为步长递减。
// 返回的 Extent 为最终字号下的测量结果；没有任何正字号满足约束时返回 0，
// 由调用方决定以最小可读字号绘制，而不是丢弃标签。
func Fit(m TextMetrics, text string, boxWidth, boxHeight, padding, initialSize float64) (float64, Extent, error) {
	if m == nil {
		return 0, Extent{}, fmt.Errorf("layout: 缺少文字测量后端 TextMetrics")
	}
	if initialSize <= 0 {
		return 0, Extent{}, nil
	}
	availWidth := boxWidth - padding
	availHeight := boxHeight - padding
	sizeAt := func(n int) float64 { return initialSize - halfStep*float64(n) }

	n := 0
	ext, err := measure(m, text, sizeAt(n))
	if err != nil {
		return 0, Extent{}, err
	}
	for ext.Width > availWidth {
		n += widthSteps
		if sizeAt(n) <= 0 {
			return 0, Extent{}, nil
		}
		if ext, err = measure(m, text, sizeAt(n)); err != nil {
			return 0, Extent{}, err
		}
	}

	widthFit := n
	for ext.Height > availHeight {
		n += heightSteps
		if sizeAt(n) <= 0 {
			break
		}
		if ext, err = measure(m, text, sizeAt(n)); err != nil {
			return 0, Extent{}, err
		}
	}

	// 高度按整步下降可能越过半步处的可行解，回补半步使结果随盒子尺寸单调。
	if n > widthFit {
		if back := n - 1; back >= widthFit && sizeAt(back) > 0 {
			bext, err := measure(m, text, sizeAt(back))
			if err != nil {
				return 0, Extent{}, err
			}
			if bext.Height <= availHeight && bext.Width <= availWidth {
				n, ext = back, bext
			}
		}
	}
	if sizeAt(n) <= 0 {
		return 0, Extent{}, nil
	}
	return sizeAt(n), ext, nil
}

func measure(m TextMetrics, text string, size float64) (Extent, error) {
	ext, err := m.Measure(text, size)
	if err != nil {
		return Extent{}, &MetricsUnavailableError{Text: text, Size: size, Err: err}
	}
	return ext, nil
}
