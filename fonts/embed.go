package fonts

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/goregular"
)

// 内置字体名称。标签文字默认使用等宽粗体，与等宽近似测量保持一致。
const (
	Mono     = "mono"
	MonoBold = "mono-bold"
	Sans     = "sans"
	SansBold = "sans-bold"
)

var builtin = map[string][]byte{
	Mono:     gomono.TTF,
	MonoBold: gomonobold.TTF,
	Sans:     goregular.TTF,
	SansBold: gobold.TTF,
}

// Load 返回内置字体的字节数据，name 可写为 "embed:mono-bold" 或直接 "mono-bold"。
func Load(name string) ([]byte, error) {
	key := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "embed:"))
	data, ok := builtin[key]
	if !ok {
		return nil, fmt.Errorf("读取内置字体 %s 失败: 可选 %s", name, strings.Join(Names(), ", "))
	}
	return data, nil
}

// IsBuiltin 判断 name 是否指向内置字体（而非文件路径）。
func IsBuiltin(name string) bool {
	_, err := Load(name)
	return err == nil
}

// Names 返回所有内置字体名称（已排序）。
func Names() []string {
	names := make([]string, 0, len(builtin))
	for k := range builtin {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
