package label

import (
	"errors"
	"fmt"
)

// ErrMissingHeader 表示表头缺少必需列，整个文件无法解析。
var ErrMissingHeader = errors.New("label: 表头缺少必需列")

// MalformedRowError 表示某一行缺少必需列（行结构不完整）。该行会被跳过。
type MalformedRowError struct {
	Row     int
	Missing []string
}

func (e *MalformedRowError) Error() string {
	return fmt.Sprintf("第 %d 行结构不完整，缺少列 %q", e.Row, e.Missing)
}

// InvalidRecordError 表示行结构完整但取值违反记录不变式（例如宽度为 0）。
type InvalidRecordError struct {
	Row    int
	Field  string
	Reason string
}

func (e *InvalidRecordError) Error() string {
	return fmt.Sprintf("第 %d 行字段 %q 无效: %s", e.Row, e.Field, e.Reason)
}
