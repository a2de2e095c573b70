// Package export drives the per-group pipeline: records are partitioned by
// color pair, each group is packed once and handed to every requested renderer,
// and the resulting files are collected under a group-scoped folder.
package export

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"unicode"

	"golang.org/x/sync/errgroup"

	"github.com/ByLCY/labelkit/label"
	"github.com/ByLCY/labelkit/layout"
	"github.com/ByLCY/labelkit/renderer"
)

// FolderPrefix 是分组目录名前缀。
const FolderPrefix = "combined_labels_"

// DefaultConcurrency 是未指定并发度时同时处理的分组数。
const DefaultConcurrency = 4

// Options 配置一次导出。Canvas 按值捕获，导出过程中不会再读取外部配置。
type Options struct {
	Canvas    layout.CanvasSpec
	Metrics   layout.TextMetrics
	Renderers []renderer.Renderer
	// Concurrency 限制同时处理的分组数，<=0 时取 DefaultConcurrency。
	Concurrency int
	Logger      *log.Logger
}

func (o Options) logger() *log.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return log.Default()
}

// GroupResult 是单个分组的导出结果。Files 只包含成功的渲染器产出的文件。
type GroupResult struct {
	Folder string
	Key    string
	Labels int
	Pages  int
	Files  []renderer.File
	Errors []error
}

// Failed 表示该分组至少有一个阶段失败。
func (g GroupResult) Failed() bool { return len(g.Errors) > 0 }

// Result 汇总全部分组，顺序与分组首次出现的顺序一致。
type Result struct {
	Groups []GroupResult
}

// Failed 返回失败的分组。
func (r *Result) Failed() []GroupResult {
	var out []GroupResult
	for _, g := range r.Groups {
		if g.Failed() {
			out = append(out, g)
		}
	}
	return out
}

// Err 合并所有分组错误，全部成功时返回 nil。
func (r *Result) Err() error {
	var errs []error
	for _, g := range r.Groups {
		errs = append(errs, g.Errors...)
	}
	return errors.Join(errs...)
}

// FileCount 返回全部成功输出的文件数。
func (r *Result) FileCount() int {
	n := 0
	for _, g := range r.Groups {
		n += len(g.Files)
	}
	return n
}

// FolderName 返回分组目录名 combined_labels_<textColor>_<backgroundColor>。
// 颜色中除字母、数字、'#'、'-' 以外的字符（包括路径分隔符与 '.'）都替换为 '-'，
// 目录名因此总是单层且不含 ".."。
func FolderName(g label.Group) string {
	return FolderPrefix + safeName(g.TextColor) + "_" + safeName(g.BackgroundColor)
}

// FolderNames 为每个分组返回互不相同的目录名。清理后重名的分组按出现顺序追加 -2、-3 等后缀。
func FolderNames(groups []label.Group) []string {
	names := make([]string, len(groups))
	used := map[string]bool{}
	for i, g := range groups {
		base := FolderName(g)
		name := base
		for n := 2; used[name]; n++ {
			name = fmt.Sprintf("%s-%d", base, n)
		}
		used[name] = true
		names[i] = name
	}
	return names
}

func safeName(color string) string {
	var b strings.Builder
	for _, r := range color {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '#', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	if b.Len() == 0 {
		return "none"
	}
	return b.String()
}

// Run 按颜色分组并发导出。单个分组失败只记录在该分组的结果中，不影响其他分组；
// ctx 取消后尚未开始的分组不再处理，并返回 ctx 的错误。
func Run(ctx context.Context, records []label.Record, opts Options) (*Result, error) {
	if len(records) == 0 {
		return nil, ErrNoRecords
	}
	if err := opts.Canvas.Validate(); err != nil {
		return nil, err
	}
	if opts.Metrics == nil {
		return nil, fmt.Errorf("导出缺少文字测量后端")
	}
	if len(opts.Renderers) == 0 {
		return nil, fmt.Errorf("导出至少需要一种输出格式")
	}
	limit := opts.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	groups := label.GroupByColor(records)
	folders := FolderNames(groups)
	results := make([]GroupResult, len(groups))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, grp := range groups {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = runGroup(grp, folders[i], opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return &Result{Groups: results}, err
	}

	res := &Result{Groups: results}
	logger := opts.logger()
	for _, gr := range res.Failed() {
		for _, err := range gr.Errors {
			logger.Printf("导出失败: %v", err)
		}
	}
	return res, nil
}

// runGroup 先完整打包，再把同一份 Plan 依次交给各渲染器。
func runGroup(grp label.Group, folder string, opts Options) GroupResult {
	res := GroupResult{Folder: folder, Key: grp.Key, Labels: len(grp.Records)}

	plan, err := layout.Pack(grp.Records, opts.Canvas, layout.Options{Metrics: opts.Metrics, Logger: opts.Logger})
	if err != nil {
		res.Errors = append(res.Errors, &GroupError{Group: folder, Err: err})
		return res
	}
	res.Pages = len(plan.Pages)

	for _, r := range opts.Renderers {
		files, err := r.Render(folder, plan)
		if err != nil {
			res.Errors = append(res.Errors, &GroupError{
				Group:  folder,
				Format: r.Format(),
				Page:   failedPage(err),
				Err:    err,
			})
			continue
		}
		res.Files = append(res.Files, files...)
	}
	return res
}
