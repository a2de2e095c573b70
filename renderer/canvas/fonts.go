package canvasrenderer

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/tdewolff/canvas"

	"github.com/ByLCY/labelkit/fonts"
)

// 标签文字一律使用粗体。
const textStyle = canvas.FontBold

// FontSource 解析并缓存字体字节数据。每次 Family 调用返回新的 FontFamily，
// 使并发的分组渲染互不共享可变的字体状态。
type FontSource struct {
	baseDir string
	name    string
	logger  *log.Logger

	mu    sync.Mutex
	blobs map[string][]byte
}

// NewFontSource 创建字体源。name 为内置字体名（见 fonts 包）或 TTF 路径，
// 相对路径基于 baseDir 解析；name 为空时使用 fonts.MonoBold。
func NewFontSource(name, baseDir string, logger *log.Logger) *FontSource {
	if name == "" {
		name = fonts.MonoBold
	}
	if logger == nil {
		logger = log.Default()
	}
	return &FontSource{baseDir: baseDir, name: name, logger: logger, blobs: map[string][]byte{}}
}

// Name 返回配置的字体名。
func (s *FontSource) Name() string { return s.name }

// Family 返回已加载字体的新 FontFamily。配置的字体无法加载时退回内置等宽粗体并记录日志。
func (s *FontSource) Family() (*canvas.FontFamily, error) {
	data, err := s.bytes(s.name)
	if err == nil {
		family := canvas.NewFontFamily(s.name)
		if err = family.LoadFont(data, 0, textStyle); err == nil {
			return family, nil
		}
	}
	if s.name == fonts.MonoBold {
		return nil, fmt.Errorf("加载字体 %s 失败: %w", s.name, err)
	}
	s.logger.Printf("加载字体 %s 失败，改用 %s: %v", s.name, fonts.MonoBold, err)
	return s.fallback()
}

func (s *FontSource) fallback() (*canvas.FontFamily, error) {
	data, err := s.bytes(fonts.MonoBold)
	if err != nil {
		return nil, err
	}
	family := canvas.NewFontFamily("labelkit-fallback")
	if err := family.LoadFont(data, 0, textStyle); err != nil {
		return nil, fmt.Errorf("加载后备字体失败: %w", err)
	}
	return family, nil
}

func (s *FontSource) bytes(name string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if data, ok := s.blobs[name]; ok {
		return data, nil
	}
	var (
		data []byte
		err  error
	)
	if fonts.IsBuiltin(name) {
		data, err = fonts.Load(name)
	} else {
		path := name
		if !filepath.IsAbs(path) && s.baseDir != "" {
			path = filepath.Join(s.baseDir, path)
		}
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}
	s.blobs[name] = data
	return data, nil
}
