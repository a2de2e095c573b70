package renderer

import (
	"errors"
	"testing"
)

func TestNormalizeFormat(t *testing.T) {
	cases := map[string]string{"SVG": "svg", ".pdf": "pdf", "lbrn": "lbrn2", " LBRN2 ": "lbrn2"}
	for in, want := range cases {
		got, ok := NormalizeFormat(in)
		if !ok || got != want {
			t.Fatalf("NormalizeFormat(%q) = %q, %v；期望 %q", in, got, ok, want)
		}
	}
	if _, ok := NormalizeFormat("png"); ok {
		t.Fatalf("png 不是受支持的格式")
	}
}

func TestDrawSizeFloor(t *testing.T) {
	if DrawSize(0) != MinLegibleSize || DrawSize(-2) != MinLegibleSize {
		t.Fatalf("字号 <= 0 时应使用最小可读字号")
	}
	if DrawSize(12.5) != 12.5 {
		t.Fatalf("正字号应原样返回")
	}
}

func TestFileNames(t *testing.T) {
	if got := PageFileName("combined_labels_black_white", 2, FormatSVG); got != "combined_labels_black_white_2.svg" {
		t.Fatalf("PageFileName = %q", got)
	}
	if got := DocumentFileName("combined_labels_black_white", FormatPDF); got != "combined_labels_black_white.pdf" {
		t.Fatalf("DocumentFileName = %q", got)
	}
}

func TestPageErrorUnwrap(t *testing.T) {
	base := errors.New("boom")
	err := error(&PageError{Format: FormatSVG, Page: 3, Err: base})
	if !errors.Is(err, base) {
		t.Fatalf("PageError 应能解包底层错误")
	}
}
