package palette

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/text/cases"
)

// builtin 是下单表单中可选的颜色名称，以及少量常用 CSS 名称。键为折叠后的小写形式。
var builtin = map[string]string{
	"black":     "#000000",
	"white":     "#FFFFFF",
	"turquoise": "#aeddd3",
	"yellow":    "#fce204",
	"red":       "#FF0000",
	"green":     "#008000",
	"blue":      "#0000FF",
	"gray":      "#808080",
	"grey":      "#808080",
	"silver":    "#C0C0C0",
	"orange":    "#FFA500",
}

// Resolver 将颜色名称解析为颜色值。未知名称原样返回，视为已是合法的颜色值（如 hex）。
// Resolver 创建后只读，可在多个导出分组间并发使用。
type Resolver struct {
	names map[string]string
}

// New 以内置颜色表为基础创建 Resolver，overrides 中的同名条目覆盖内置值。
func New(overrides map[string]string) *Resolver {
	names := make(map[string]string, len(builtin)+len(overrides))
	for k, v := range builtin {
		names[k] = v
	}
	for k, v := range overrides {
		if key := fold(k); key != "" {
			names[key] = strings.TrimSpace(v)
		}
	}
	return &Resolver{names: names}
}

// Default 返回仅含内置颜色的 Resolver。
func Default() *Resolver { return New(nil) }

// Resolve 返回 name 对应的颜色值；名称大小写不敏感，未知名称原样返回。
func (r *Resolver) Resolve(name string) string {
	if r != nil {
		if v, ok := r.names[fold(name)]; ok {
			return v
		}
	}
	return strings.TrimSpace(name)
}

// RGBA 解析名称并转换为可直接绘制的颜色。
func (r *Resolver) RGBA(name string) (color.RGBA, error) {
	return Parse(r.Resolve(name))
}

// Parse 将 "#rrggbb"、"#rgb" 或不带 # 的十六进制串转换为不透明颜色。
func Parse(value string) (color.RGBA, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return color.RGBA{}, fmt.Errorf("palette: 颜色值为空")
	}
	if !strings.HasPrefix(v, "#") {
		v = "#" + v
	}
	c, err := colorful.Hex(v)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("palette: 无法解析颜色 %q: %w", value, err)
	}
	red, green, blue := c.RGB255()
	return color.RGBA{R: red, G: green, B: blue, A: 0xff}, nil
}

// fold 做与语言无关的大小写折叠。cases.Caser 有内部状态，每次调用单独创建。
func fold(name string) string {
	return cases.Fold().String(strings.TrimSpace(name))
}
