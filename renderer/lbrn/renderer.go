// Package lbrn writes LightBurn (.lbrn2) cutter projects from a packed plan.
// Every page becomes a standalone project carrying the same machine preamble.
package lbrn

import (
	"fmt"

	"github.com/ByLCY/labelkit/layout"
	"github.com/ByLCY/labelkit/renderer"
)

// 切割参数索引：外框使用切割层，文字使用扫描（雕刻）层。
const (
	CutIndexOutline = "4"
	CutIndexText    = "23"
)

// TextFont 是文字形状使用的字体描述串。
const TextFont = "Arial,-1,100,5,75,0,0,0,0,0"

// Renderer 输出 LightBurn 工程文件，每页一个。
type Renderer struct{}

var _ renderer.Renderer = Renderer{}

// New 创建切割工程渲染器。
func New() Renderer { return Renderer{} }

func (Renderer) Format() string { return renderer.FormatLBRN }

// Render 为 plan 的每一页生成 <group>_<n>.lbrn2。
func (Renderer) Render(group string, plan *layout.Plan) ([]renderer.File, error) {
	if plan == nil || len(plan.Pages) == 0 {
		return nil, fmt.Errorf("缺少可渲染的页面")
	}
	files := make([]renderer.File, 0, len(plan.Pages))
	for _, page := range plan.Pages {
		data, err := Document(Project(page))
		if err != nil {
			return nil, &renderer.PageError{Format: renderer.FormatLBRN, Page: page.Index, Err: err}
		}
		files = append(files, renderer.File{
			Name: renderer.PageFileName(group, page.Index, renderer.FormatLBRN),
			Data: data,
		})
	}
	return files, nil
}

// Project 构建一页的工程元素树：固定前导部分，之后每个标签一个矩形与一到两个文字形状。
func Project(page layout.Page) *Element {
	root := preamble()
	for _, pl := range page.Labels {
		root.Append(rectShape(pl))
		root.Append(textShape(pl.Record.FirstLine, pl.CenterX(), pl.FirstLineY, pl.FirstSize, pl.FirstExtent))
		if pl.HasSecondLine() {
			root.Append(textShape(pl.Record.SecondLine, pl.CenterX(), pl.SecondLineY, pl.SecondSize, pl.SecondExtent))
		}
	}
	return root
}

func preamble() *Element {
	root := NewElement("LightBurnProject",
		"AppVersion", "1.6.03",
		"FormatVersion", "1",
		"MaterialHeight", "0",
		"MirrorX", "True",
		"MirrorY", "True",
	)
	root.Append(NewElement("VariableText").Append(
		ValueElement("Start", "0"),
		ValueElement("End", "1047140"),
		ValueElement("Current", "0"),
		ValueElement("Increment", "1"),
		ValueElement("AutoAdvance", "1"),
	))
	root.Append(NewElement("UIPrefs").Append(
		ValueElement("Optimize_ByLayer", "0"),
		ValueElement("Optimize_ByGroup", "-1"),
		ValueElement("Optimize_ByPriority", "1"),
		ValueElement("Optimize_WhichDirection", "0"),
		ValueElement("Optimize_InnerToOuter", "1"),
		ValueElement("Optimize_ByDirection", "0"),
		ValueElement("Optimize_ReduceTravel", "1"),
		ValueElement("Optimize_HideBacklash", "0"),
		ValueElement("Optimize_ReduceDirChanges", "0"),
		ValueElement("Optimize_ChooseCorners", "1"),
		ValueElement("Optimize_AllowReverse", "1"),
		ValueElement("Optimize_RemoveOverlaps", "1"),
		ValueElement("Optimize_OptimalEntryPoint", "1"),
		ValueElement("Optimize_OverlapDist", "0.025"),
	))
	root.Append(NewElement("CutSetting", "type", "Cut").Append(
		ValueElement("index", CutIndexOutline),
		ValueElement("name", "C04"),
		ValueElement("minPower", "15"),
		ValueElement("maxPower", "15"),
		ValueElement("maxPower2", "20"),
		ValueElement("speed", "35"),
		ValueElement("dotTime", "1"),
		ValueElement("priority", "0"),
		ValueElement("tabCount", "1"),
		ValueElement("tabCountMax", "1"),
	))
	root.Append(NewElement("CutSetting", "type", "Scan").Append(
		ValueElement("index", CutIndexText),
		ValueElement("name", "C23"),
		ValueElement("maxPower", "20"),
		ValueElement("maxPower2", "20"),
		ValueElement("speed", "2500"),
		ValueElement("dotTime", "1"),
		ValueElement("priority", "1"),
		ValueElement("tabCount", "1"),
		ValueElement("tabCountMax", "1"),
	))
	return root
}

// rectShape 以标签中心为变换原点描述外框。
func rectShape(pl layout.PlacedLabel) *Element {
	return NewElement("Shape",
		"Type", "Rect",
		"CutIndex", CutIndexOutline,
		"W", num(pl.Width()),
		"H", num(pl.Height()),
		"Cr", "0",
	).Append(xform(pl.CenterX(), pl.CenterY()))
}

// textShape 描述一行居中文字，附带由测量宽高生成的备用轮廓。
func textShape(text string, cx, cy, size float64, ext layout.Extent) *Element {
	h := renderer.DrawSize(size)
	return NewElement("Shape",
		"Type", "Text",
		"CutIndex", CutIndexText,
		"Font", TextFont,
		"H", num(h),
		"LS", "0",
		"LnS", "0",
		"Ah", "1",
		"Av", "1",
		"Bold", "1",
		"Weld", "1",
		"HasBackupPath", "1",
		"Str", text,
	).Append(backupPath(cx, cy, ext, h), xform(cx, cy))
}

// backupPath 生成以文字中心为原点的矩形轮廓（顶点列表 + 线段图元），
// 软件缺少字体时用它代替文字。
func backupPath(cx, cy float64, ext layout.Extent, size float64) *Element {
	w, h := ext.Width, ext.Height
	if h <= 0 {
		h = size
	}
	hw, hh := w/2, h/2
	verts := [][2]float64{{-hw, -hh}, {hw, -hh}, {hw, hh}, {-hw, hh}}
	var vertList string
	for _, v := range verts {
		vertList += fmt.Sprintf("V%s %sc0x1c1x1", num(v[0]), num(v[1]))
	}
	return NewElement("BackupPath", "Type", "Path", "CutIndex", CutIndexText).Append(
		xform(cx, cy),
		NewElement("VertList").WithText(vertList),
		NewElement("PrimList").WithText("L0 1L1 2L2 3L3 0"),
	)
}

func xform(cx, cy float64) *Element {
	return NewElement("XForm").WithText(fmt.Sprintf("1 0 0 1 %s %s", num(cx), num(cy)))
}
