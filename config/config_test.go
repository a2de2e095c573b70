package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ByLCY/labelkit/layout"
)

func TestDefault(t *testing.T) {
	c := Default()
	if diff := cmp.Diff(layout.DefaultCanvas(), c.Canvas); diff != "" {
		t.Fatalf("默认画布不符 (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"svg", "lbrn2"}, c.Formats); diff != "" {
		t.Fatalf("默认格式不符 (-want +got):\n%s", diff)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("默认配置应合法: %v", err)
	}
}

func TestFromEnvKeepsPreviousOnInvalid(t *testing.T) {
	env := map[string]string{
		EnvMaxWidth:    "800",
		EnvMaxHeight:   "abc",
		EnvColumns:     "0",
		EnvColumnSpace: "1cm",
		EnvPadding:     "-2",
		EnvFormats:     "PDF, lbrn",
		EnvConcurrency: "2",
		EnvDPMM:        "12.5",
	}
	c := FromEnv(Default(), env)
	want := layout.DefaultCanvas()
	want.MaxWidth = 800
	want.ColumnSpacing = 10
	if diff := cmp.Diff(want, c.Canvas); diff != "" {
		t.Fatalf("环境变量应用结果不符 (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"pdf", "lbrn2"}, c.Formats); diff != "" {
		t.Fatalf("格式不符 (-want +got):\n%s", diff)
	}
	if c.Concurrency != 2 || c.Document.DPMM != 12.5 {
		t.Fatalf("并发数或分辨率不符: %d %g", c.Concurrency, c.Document.DPMM)
	}

	if got := FromEnv(Default(), map[string]string{EnvFormats: "png"}); len(got.Formats) != 2 || got.Formats[0] != "svg" {
		t.Fatalf("非法格式应保留原值: %v", got.Formats)
	}
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("LABELS_MAX_WIDTH=420\nLABELS_COLUMNS=2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := LoadEnvFile(Default(), path)
	if err != nil {
		t.Fatalf("LoadEnvFile error: %v", err)
	}
	if c.Canvas.MaxWidth != 420 || c.Canvas.Columns != 2 {
		t.Fatalf(".env 未生效: %+v", c.Canvas)
	}
	if _, err := LoadEnvFile(Default(), filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("缺失的 .env 应被忽略: %v", err)
	}
}

func TestFromEnvDoesNotAliasBase(t *testing.T) {
	base := Default()
	c := FromEnv(base, map[string]string{EnvFormats: "pdf"})
	c.Formats[0] = "changed"
	if base.Formats[0] != "svg" {
		t.Fatalf("修改新配置不应影响 base: %v", base.Formats)
	}
}

const job = `job "Kitchen" {
  canvas {
    width: 60cm
    height: 300
    columns: 4
    column-spacing: 0
  }
  palette {
    "brand red": #c8102e
  }
  document {
    logo: "logo.png"
    header: "${group} ${page}/${pages}"
    footer: ["____", "Signature"]
    dpmm: 8
  }
  output {
    formats: [pdf]
    concurrency: 1
  }
}`

func TestApplyJob(t *testing.T) {
	base := Default()
	c, err := LoadJob(base, "kitchen.labeljob", strings.NewReader(job))
	if err != nil {
		t.Fatalf("LoadJob error: %v", err)
	}
	want := base.Clone()
	want.Name = "Kitchen"
	want.Canvas.MaxWidth = 600
	want.Canvas.MaxHeight = 300
	want.Canvas.Columns = 4
	want.Canvas.ColumnSpacing = 0
	want.Palette = map[string]string{"brand red": "#c8102e"}
	want.Document.Logo = "logo.png"
	want.Document.Header = "${group} ${page}/${pages}"
	want.Document.Footer = []string{"____", "Signature"}
	want.Document.DPMM = 8
	want.Formats = []string{"pdf"}
	want.Concurrency = 1
	if diff := cmp.Diff(want, c); diff != "" {
		t.Fatalf("任务文件应用结果不符 (-want +got):\n%s", diff)
	}
	if base.Palette != nil || base.Formats[0] != "svg" {
		t.Fatalf("ApplyJob 不应修改 base")
	}
}

func TestApplyJobErrors(t *testing.T) {
	bad := map[string]string{
		"unknown key":   `job "x" { canvas { depth: 3 } }`,
		"bad columns":   `job "x" { canvas { columns: 0 } }`,
		"zero width":    `job "x" { canvas { width: 0mm } }`,
		"bad format":    `job "x" { output { formats: [png] } }`,
		"array palette": `job "x" { palette { red: [a, b] } }`,
		"bad dpmm":      `job "x" { document { dpmm: wide } }`,
	}
	for name, src := range bad {
		_, err := LoadJob(Default(), "bad.labeljob", strings.NewReader(src))
		if err == nil {
			t.Fatalf("%s: 期望报错", name)
		}
	}
	_, err := LoadJob(Default(), "bad.labeljob", strings.NewReader(bad["unknown key"]))
	if !strings.Contains(err.Error(), "bad.labeljob:1:") {
		t.Fatalf("错误信息应包含位置: %v", err)
	}
}

func TestValidate(t *testing.T) {
	c := Default()
	c.Formats = nil
	if c.Validate() == nil {
		t.Fatalf("缺少输出格式应报错")
	}
	c = Default()
	c.Concurrency = 0
	if c.Validate() == nil {
		t.Fatalf("并发数为 0 应报错")
	}
	c = Default()
	c.Canvas.Columns = 0
	if c.Validate() == nil {
		t.Fatalf("非法画布应报错")
	}
}
