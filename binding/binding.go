package binding

import (
	"fmt"
	"regexp"
	"strings"
)

// Vars 是模板变量。值可以是标量，也可以是嵌套的 map，用点号路径访问，如 ${group.text}。
type Vars map[string]any

var exprPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Expand 将文本中的 ${name} 或 ${a.b} 替换为 vars 中的值。
// ${name:-fallback} 在变量不存在或为空串时使用 fallback；
// 其余无法解析的占位符原样保留，便于在输出中发现拼写错误。
func Expand(text string, vars Vars) string {
	if !strings.Contains(text, "${") {
		return text
	}
	return exprPattern.ReplaceAllStringFunc(text, func(match string) string {
		expr := strings.TrimSpace(match[2 : len(match)-1])
		path, fallback, hasFallback := strings.Cut(expr, ":-")
		path = strings.TrimSpace(path)
		if path == "" {
			return match
		}
		if val, ok := resolvePath(vars, path); ok {
			if s := fmt.Sprint(val); s != "" || !hasFallback {
				return s
			}
		}
		if hasFallback {
			return fallback
		}
		return match
	})
}

// Placeholders 返回 text 中引用的全部变量路径（按出现顺序，去重）。
func Placeholders(text string) []string {
	var out []string
	seen := map[string]bool{}
	for _, groups := range exprPattern.FindAllStringSubmatch(text, -1) {
		path, _, _ := strings.Cut(groups[1], ":-")
		path = strings.TrimSpace(path)
		if path == "" || seen[path] {
			continue
		}
		seen[path] = true
		out = append(out, path)
	}
	return out
}

func resolvePath(vars Vars, path string) (any, bool) {
	var current any = map[string]any(vars)
	for _, segment := range strings.Split(path, ".") {
		next, ok := descend(current, segment)
		if !ok {
			return nil, false
		}
		current = next
	}
	return current, true
}

func descend(current any, key string) (any, bool) {
	switch c := current.(type) {
	case map[string]any:
		val, ok := c[key]
		return val, ok
	case Vars:
		val, ok := c[key]
		return val, ok
	case map[string]string:
		val, ok := c[key]
		return val, ok
	default:
		return nil, false
	}
}
