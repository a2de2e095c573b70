package label

import (
	"fmt"
	"strings"
)

// 缺省颜色：CSV 中颜色列为空时使用。
const DefaultColor = "black"

// Record 表示一张实体标签，数量已展开为独立记录。尺寸单位均为毫米（mm）。
// Record 创建后只读，打包与渲染阶段都不会修改它。
type Record struct {
	Width           float64 `json:"width"`
	Height          float64 `json:"height"`
	TextColor       string  `json:"textColor"`
	BackgroundColor string  `json:"backgroundColor"`
	FirstLine       string  `json:"firstLine"`
	SecondLine      string  `json:"secondLine,omitempty"`
	// FirstSize/SecondSize 为请求字号（mm），0 表示未指定。
	FirstSize  float64 `json:"firstSize,omitempty"`
	SecondSize float64 `json:"secondSize,omitempty"`
	// Row 是来源表格中的行号（表头为第 1 行），仅用于诊断输出。
	Row int `json:"row,omitempty"`
}

// FirstLineSize 返回第一行文字的初始字号：未指定时取标签高度。
func (r Record) FirstLineSize() float64 {
	if r.FirstSize > 0 {
		return r.FirstSize
	}
	return r.Height
}

// SecondLineSize 返回第二行文字的初始字号：未指定时沿用第一行。
func (r Record) SecondLineSize() float64 {
	if r.SecondSize > 0 {
		return r.SecondSize
	}
	return r.FirstLineSize()
}

func (r Record) HasSecondLine() bool { return r.SecondLine != "" }

// GroupKey 是分组的显示名 textColor_backgroundColor，仅用于展示；分组本身按颜色对划分。
func (r Record) GroupKey() string {
	return r.TextColor + "_" + r.BackgroundColor
}

// Validate 检查记录不变式：宽高为正，第一行文字非空。
func (r Record) Validate() error {
	switch {
	case r.Width <= 0:
		return &InvalidRecordError{Row: r.Row, Field: ColumnWidth, Reason: fmt.Sprintf("宽度必须为正数，实际 %g", r.Width)}
	case r.Height <= 0:
		return &InvalidRecordError{Row: r.Row, Field: ColumnHeight, Reason: fmt.Sprintf("高度必须为正数，实际 %g", r.Height)}
	case strings.TrimSpace(r.FirstLine) == "":
		return &InvalidRecordError{Row: r.Row, Field: ColumnFirstLine, Reason: "第一行文字为空"}
	}
	return nil
}

// Group 是共享同一 (textColor, backgroundColor) 的记录集合，保持输入顺序。
type Group struct {
	Key             string   `json:"key"`
	TextColor       string   `json:"textColor"`
	BackgroundColor string   `json:"backgroundColor"`
	Records         []Record `json:"records"`
}

// GroupByColor 按 (textColor, backgroundColor) 划分记录。
// 每条记录恰好落入一个分组；分组按首次出现的顺序返回，组内保持输入顺序。
func GroupByColor(records []Record) []Group {
	type colorPair struct{ text, bg string }
	index := map[colorPair]int{}
	var groups []Group
	for _, rec := range records {
		pair := colorPair{rec.TextColor, rec.BackgroundColor}
		i, ok := index[pair]
		if !ok {
			i = len(groups)
			index[pair] = i
			groups = append(groups, Group{
				Key:             rec.GroupKey(),
				TextColor:       rec.TextColor,
				BackgroundColor: rec.BackgroundColor,
			})
		}
		groups[i].Records = append(groups[i].Records, rec)
	}
	return groups
}
