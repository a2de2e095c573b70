package config

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/ByLCY/labelkit/dsl"
	"github.com/ByLCY/labelkit/layout"
)

// LoadJobFile 解析 .labeljob 文件并应用到 base。
func LoadJobFile(base Config, path string) (Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return base, fmt.Errorf("无法打开任务文件 %s: %w", path, err)
	}
	defer file.Close()
	return LoadJob(base, path, file)
}

// LoadJob 从 r 解析任务并应用到 base。
func LoadJob(base Config, name string, r io.Reader) (Config, error) {
	job, err := dsl.Parse(name, r)
	if err != nil {
		return base, fmt.Errorf("解析任务文件失败: %w", err)
	}
	return ApplyJob(base, job)
}

// ApplyJob 将任务文件中的设置覆盖到 base，返回新配置；base 本身不被修改。
// 任务文件中的值必须合法，否则报告所在位置。
func ApplyJob(base Config, job *dsl.Job) (Config, error) {
	c := base.Clone()
	if job == nil {
		return c, nil
	}
	if job.Name != "" {
		c.Name = string(job.Name)
	}
	for _, section := range job.Sections {
		var err error
		switch {
		case section.Canvas != nil:
			err = applyCanvas(&c, section.Canvas.Block)
		case section.Palette != nil:
			err = applyPalette(&c, section.Palette.Block)
		case section.Document != nil:
			err = applyDocument(&c, section.Document.Block)
		case section.Output != nil:
			err = applyOutput(&c, section.Output.Block)
		}
		if err != nil {
			return base, err
		}
	}
	return c, nil
}

func applyCanvas(c *Config, block *dsl.Block) error {
	for _, a := range block.Assignments {
		switch a.Key {
		case "width":
			if err := lengthValue(a, &c.Canvas.MaxWidth, true); err != nil {
				return err
			}
		case "height":
			if err := lengthValue(a, &c.Canvas.MaxHeight, true); err != nil {
				return err
			}
		case "column-spacing":
			if err := lengthValue(a, &c.Canvas.ColumnSpacing, false); err != nil {
				return err
			}
		case "padding":
			if err := lengthValue(a, &c.Canvas.Padding, false); err != nil {
				return err
			}
		case "line-gap":
			if err := lengthValue(a, &c.Canvas.LineGap, false); err != nil {
				return err
			}
		case "columns":
			n, err := strconv.Atoi(a.Value.Raw())
			if err != nil || n <= 0 {
				return positionError(a, "列数必须为正整数")
			}
			c.Canvas.Columns = n
		default:
			return positionError(a, "canvas 中未知的配置项")
		}
	}
	return nil
}

func applyPalette(c *Config, block *dsl.Block) error {
	if c.Palette == nil {
		c.Palette = map[string]string{}
	}
	for _, a := range block.Assignments {
		if a.Value.Array != nil {
			return positionError(a, "颜色值不能是数组")
		}
		c.Palette[string(a.Key)] = a.Value.Raw()
	}
	return nil
}

func applyDocument(c *Config, block *dsl.Block) error {
	for _, a := range block.Assignments {
		switch a.Key {
		case "logo":
			c.Document.Logo = a.Value.Raw()
		case "header":
			c.Document.Header = a.Value.Raw()
		case "footer":
			c.Document.Footer = a.Value.List()
		case "font":
			c.Document.Font = a.Value.Raw()
		case "dpmm":
			f, err := strconv.ParseFloat(a.Value.Raw(), 64)
			if err != nil || f <= 0 {
				return positionError(a, "dpmm 必须为正数")
			}
			c.Document.DPMM = f
		default:
			return positionError(a, "document 中未知的配置项")
		}
	}
	return nil
}

func applyOutput(c *Config, block *dsl.Block) error {
	for _, a := range block.Assignments {
		switch a.Key {
		case "formats":
			formats, err := ParseFormats(a.Value.List())
			if err != nil {
				return positionError(a, err.Error())
			}
			if len(formats) == 0 {
				return positionError(a, "至少需要一种输出格式")
			}
			c.Formats = formats
		case "concurrency":
			n, err := strconv.Atoi(a.Value.Raw())
			if err != nil || n <= 0 {
				return positionError(a, "并发数必须为正整数")
			}
			c.Concurrency = n
		default:
			return positionError(a, "output 中未知的配置项")
		}
	}
	return nil
}

// lengthValue 解析带单位的长度，positive 为 true 时要求大于 0，否则允许 0。
func lengthValue(a *dsl.Assignment, dst *float64, positive bool) error {
	mm, ok := layout.ParseMM(a.Value.Raw())
	if !ok || mm < 0 || (positive && mm == 0) {
		return positionError(a, fmt.Sprintf("无效的长度 %q", a.Value.Raw()))
	}
	*dst = mm
	return nil
}

func positionError(a *dsl.Assignment, msg string) error {
	return fmt.Errorf("%s:%d:%d: %s: %s", a.Pos.Filename, a.Pos.Line, a.Pos.Column, a.Key, msg)
}
