package lbrn

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"
)

// Element 是一个极简的 XML 元素树节点，属性保持插入顺序。
type Element struct {
	Name     string
	Attrs    []xml.Attr
	Text     string
	Children []*Element
}

// NewElement 创建元素，attrs 为交替出现的键值对。
func NewElement(name string, attrs ...string) *Element {
	if len(attrs)%2 != 0 {
		panic(fmt.Sprintf("lbrn: 元素 %s 的属性必须成对出现", name))
	}
	e := &Element{Name: name}
	for i := 0; i < len(attrs); i += 2 {
		e.Attrs = append(e.Attrs, xml.Attr{Name: xml.Name{Local: attrs[i]}, Value: attrs[i+1]})
	}
	return e
}

// ValueElement 创建 LightBurn 常用的 <key Value="v"/> 形式元素。
func ValueElement(name, value string) *Element {
	return NewElement(name, "Value", value)
}

// Append 追加子元素并返回 e，便于链式构建。
func (e *Element) Append(children ...*Element) *Element {
	e.Children = append(e.Children, children...)
	return e
}

// WithText 设置文本内容并返回 e。
func (e *Element) WithText(text string) *Element {
	e.Text = text
	return e
}

// Attr 返回属性值。
func (e *Element) Attr(name string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

// MarshalXML 实现 xml.Marshaler。
func (e *Element) MarshalXML(enc *xml.Encoder, _ xml.StartElement) error {
	start := xml.StartElement{Name: xml.Name{Local: e.Name}, Attr: e.Attrs}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	if e.Text != "" {
		if err := enc.EncodeToken(xml.CharData(e.Text)); err != nil {
			return err
		}
	}
	for _, child := range e.Children {
		if err := enc.Encode(child); err != nil {
			return err
		}
	}
	return enc.EncodeToken(start.End())
}

// Document 序列化为带 XML 声明的缩进文本。
func Document(root *Element) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "    ")
	if err := enc.Encode(root); err != nil {
		return nil, fmt.Errorf("序列化 XML 失败: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// num 以最短形式格式化数字，例如 50、12.5、-0.25。
func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
