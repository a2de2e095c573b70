package lbrn

import (
	"bytes"
	"encoding/xml"
	"io"
	"log"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ByLCY/labelkit/label"
	"github.com/ByLCY/labelkit/layout"
	"github.com/ByLCY/labelkit/renderer"
)

// node 是解析回来的通用 XML 节点。
type node struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Text     string     `xml:",chardata"`
	Children []node     `xml:",any"`
}

func (n node) attr(name string) string {
	for _, a := range n.Attrs {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

func (n node) children(name string) []node {
	var out []node
	for _, c := range n.Children {
		if c.XMLName.Local == name {
			out = append(out, c)
		}
	}
	return out
}

func parse(t *testing.T, data []byte) node {
	t.Helper()
	var root node
	if err := xml.Unmarshal(data, &root); err != nil {
		t.Fatalf("输出不是合法 XML: %v", err)
	}
	return root
}

func packed(t *testing.T, recs []label.Record) *layout.Plan {
	t.Helper()
	plan, err := layout.Pack(recs, layout.DefaultCanvas(), layout.Options{
		Metrics: layout.MonospaceMetrics{},
		Logger:  log.New(io.Discard, "", 0),
	})
	if err != nil {
		t.Fatalf("Pack error: %v", err)
	}
	return plan
}

func TestRenderPreamblePerPage(t *testing.T) {
	recs := make([]label.Record, 10)
	for i := range recs {
		recs[i] = label.Record{Width: 100, Height: 300, FirstLine: "TALL"}
	}
	plan := packed(t, recs)
	files, err := New().Render("combined_labels_black_white", plan)
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}
	if len(files) != len(plan.Pages) {
		t.Fatalf("每页应输出一个工程文件，期望 %d 实际 %d", len(plan.Pages), len(files))
	}
	for i, f := range files {
		if want := renderer.PageFileName("combined_labels_black_white", i+1, "lbrn2"); f.Name != want {
			t.Fatalf("文件名不符: %s != %s", f.Name, want)
		}
		if !bytes.HasPrefix(f.Data, []byte(xml.Header)) {
			t.Fatalf("%s 缺少 XML 声明", f.Name)
		}
		root := parse(t, f.Data)
		if root.XMLName.Local != "LightBurnProject" {
			t.Fatalf("根元素应为 LightBurnProject，实际 %s", root.XMLName.Local)
		}
		for k, v := range map[string]string{"AppVersion": "1.6.03", "FormatVersion": "1", "MaterialHeight": "0", "MirrorX": "True", "MirrorY": "True"} {
			if got := root.attr(k); got != v {
				t.Fatalf("%s 属性 %s = %q，期望 %q", f.Name, k, got, v)
			}
		}
		if len(root.children("VariableText")) != 1 || len(root.children("UIPrefs")) != 1 {
			t.Fatalf("%s 每个文件都应包含完整前导部分", f.Name)
		}
		settings := root.children("CutSetting")
		if len(settings) != 2 || settings[0].attr("type") != "Cut" || settings[1].attr("type") != "Scan" {
			t.Fatalf("%s 应包含 Cut 与 Scan 两个切割参数", f.Name)
		}
		shapes := root.children("Shape")
		if len(shapes) != 2*len(plan.Pages[i].Labels) {
			t.Fatalf("%s 形状数量不符: %d", f.Name, len(shapes))
		}
	}
}

func TestCutSettingValues(t *testing.T) {
	root := parse(t, mustDocument(t, Project(layout.Page{Index: 1})))
	got := map[string]string{}
	for _, child := range root.children("CutSetting")[0].Children {
		got[child.XMLName.Local] = child.attr("Value")
	}
	want := map[string]string{
		"index": "4", "name": "C04", "minPower": "15", "maxPower": "15", "maxPower2": "20",
		"speed": "35", "dotTime": "1", "priority": "0", "tabCount": "1", "tabCountMax": "1",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Cut 参数不符 (-want +got):\n%s", diff)
	}
	vt := root.children("VariableText")[0]
	if vt.children("End")[0].attr("Value") != "1047140" {
		t.Fatalf("VariableText End 不符")
	}
	if len(root.children("UIPrefs")[0].Children) != 14 {
		t.Fatalf("UIPrefs 应有 14 项")
	}
}

func TestShapesUseSharedGeometry(t *testing.T) {
	plan := packed(t, []label.Record{
		{Width: 100, Height: 100, FirstLine: "ONE"},
		{Width: 80, Height: 60, FirstLine: "TOP", SecondLine: "BOTTOM", FirstSize: 20, SecondSize: 10},
	})
	root := parse(t, mustDocument(t, Project(plan.Pages[0])))
	shapes := root.children("Shape")
	if len(shapes) != 5 {
		t.Fatalf("期望 2 个矩形 + 3 个文字形状，实际 %d", len(shapes))
	}

	rect := shapes[0]
	if rect.attr("Type") != "Rect" || rect.attr("CutIndex") != "4" || rect.attr("W") != "100" || rect.attr("H") != "100" || rect.attr("Cr") != "0" {
		t.Fatalf("矩形属性不符: %+v", rect.Attrs)
	}
	if got := rect.children("XForm")[0].Text; got != "1 0 0 1 50 50" {
		t.Fatalf("矩形变换应以标签中心为原点，实际 %q", got)
	}

	text := shapes[1]
	if text.attr("Type") != "Text" || text.attr("CutIndex") != "23" || text.attr("Str") != "ONE" || text.attr("Font") != TextFont {
		t.Fatalf("文字属性不符: %+v", text.Attrs)
	}
	if got, want := text.attr("H"), num(plan.Pages[0].Labels[0].FirstSize); got != want {
		t.Fatalf("文字高度应为适配后的字号 %s，实际 %s", want, got)
	}
	backup := text.children("BackupPath")
	if len(backup) != 1 || backup[0].attr("Type") != "Path" || backup[0].attr("CutIndex") != "23" {
		t.Fatalf("缺少备用轮廓")
	}
	if len(backup[0].children("VertList")) != 1 || backup[0].children("PrimList")[0].Text != "L0 1L1 2L2 3L3 0" {
		t.Fatalf("备用轮廓应为闭合矩形")
	}

	second := plan.Pages[0].Labels[1]
	top, bottom := shapes[3], shapes[4]
	if top.attr("Str") != "TOP" || bottom.attr("Str") != "BOTTOM" {
		t.Fatalf("双行标签应输出两个文字形状")
	}
	if got, want := top.children("XForm")[0].Text, "1 0 0 1 "+num(second.CenterX())+" "+num(second.FirstLineY); got != want {
		t.Fatalf("第一行变换 %q，期望 %q", got, want)
	}
	if got, want := bottom.children("XForm")[0].Text, "1 0 0 1 "+num(second.CenterX())+" "+num(second.SecondLineY); got != want {
		t.Fatalf("第二行变换 %q，期望 %q", got, want)
	}
}

func TestZeroSizeUsesFloor(t *testing.T) {
	page := layout.Page{Index: 1, Labels: []layout.PlacedLabel{{
		Record: label.Record{Width: 10, Height: 10, FirstLine: "WAY TOO LONG"},
		X:      0, Y: 0, FirstLineY: 5,
	}}}
	root := parse(t, mustDocument(t, Project(page)))
	if got := root.children("Shape")[1].attr("H"); got != num(renderer.MinLegibleSize) {
		t.Fatalf("字号为 0 时应按最小可读字号输出，实际 %s", got)
	}
}

func TestRenderEmptyPlan(t *testing.T) {
	if _, err := New().Render("g", &layout.Plan{}); err == nil {
		t.Fatalf("空 Plan 应报错")
	}
}

func TestElementEscaping(t *testing.T) {
	data := mustDocument(t, NewElement("Shape", "Str", `Tom & "Jerry" <3`))
	root := parse(t, data)
	if got := root.attr("Str"); got != `Tom & "Jerry" <3` {
		t.Fatalf("属性应被正确转义并还原，实际 %q", got)
	}
}

func mustDocument(t *testing.T, root *Element) []byte {
	t.Helper()
	data, err := Document(root)
	if err != nil {
		t.Fatalf("Document error: %v", err)
	}
	return data
}
