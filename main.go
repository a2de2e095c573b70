package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ByLCY/labelkit/config"
	"github.com/ByLCY/labelkit/export"
	"github.com/ByLCY/labelkit/label"
	"github.com/ByLCY/labelkit/layout"
	"github.com/ByLCY/labelkit/palette"
	"github.com/ByLCY/labelkit/renderer"
	canvasrenderer "github.com/ByLCY/labelkit/renderer/canvas"
	"github.com/ByLCY/labelkit/renderer/lbrn"
)

// 文字测量方式。
const (
	metricsFont = "font"
	metricsMono = "mono"
)

// cliOptions 保存命令行参数。画布相关参数仅在显式传入时覆盖配置。
type cliOptions struct {
	input   string
	job     string
	env     string
	metrics string
	quiet   bool

	width, height, columnSpace, padding, lineGap string
	columns                                      int

	formats string
	out     string
	outDir  string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &cliOptions{}
	root := &cobra.Command{
		Use:          "labelkit",
		Short:        "将标签表格排版并导出为 SVG、PDF 与 LightBurn 工程文件",
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.input, "in", "labels.csv", "标签表格路径（.csv 或 .xlsx）")
	pf.StringVar(&opts.job, "job", "", "任务文件路径（.labeljob）")
	pf.StringVar(&opts.env, "env", ".env", "环境变量文件路径，不存在时忽略")
	pf.StringVar(&opts.metrics, "metrics", metricsFont, "文字测量方式: font 或 mono")
	pf.BoolVarP(&opts.quiet, "quiet", "q", false, "不输出诊断日志")
	pf.StringVar(&opts.width, "width", "", "画布宽度，如 600 或 60cm")
	pf.StringVar(&opts.height, "height", "", "画布高度")
	pf.IntVar(&opts.columns, "columns", 0, "每个画布的列带数")
	pf.StringVar(&opts.columnSpace, "column-space", "", "列带之间的额外间距")
	pf.StringVar(&opts.padding, "padding", "", "标签内文字留白")
	pf.StringVar(&opts.lineGap, "line-gap", "", "双行文字的行距")

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "按颜色分组导出全部格式并打包",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExport(cmd, opts)
		},
	}
	exportCmd.Flags().StringVar(&opts.formats, "formats", "", "输出格式，逗号分隔: svg,pdf,lbrn2")
	exportCmd.Flags().StringVarP(&opts.out, "out", "o", "", "zip 输出路径，缺省按格式与时间命名")
	exportCmd.Flags().StringVar(&opts.outDir, "out-dir", "", "直接写入目录而不是 zip")

	planCmd := &cobra.Command{
		Use:   "plan",
		Short: "输出每个分组的排版结果 JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPlan(cmd, opts)
		},
	}
	planCmd.Flags().StringVar(&opts.outDir, "out-dir", "", "每个分组写一个 JSON 文件，缺省输出到标准输出")

	root.AddCommand(exportCmd, planCmd)
	return root
}

func newLogger(cmd *cobra.Command, quiet bool) *log.Logger {
	if quiet {
		return log.New(io.Discard, "", 0)
	}
	return log.New(cmd.ErrOrStderr(), "", log.LstdFlags)
}

// resolveConfig 依次叠加默认值、环境变量、任务文件与命令行参数。
// 返回的 baseDir 用于解析任务文件中的相对路径。
func resolveConfig(cmd *cobra.Command, opts *cliOptions) (config.Config, string, error) {
	cfg, err := config.LoadEnvFile(config.Default(), opts.env)
	if err != nil {
		return cfg, "", err
	}
	baseDir := "."
	if opts.job != "" {
		if cfg, err = config.LoadJobFile(cfg, opts.job); err != nil {
			return cfg, "", err
		}
		baseDir = filepath.Dir(opts.job)
	}

	flags := cmd.Flags()
	lengths := []struct {
		name  string
		value string
		dst   *float64
	}{
		{"width", opts.width, &cfg.Canvas.MaxWidth},
		{"height", opts.height, &cfg.Canvas.MaxHeight},
		{"column-space", opts.columnSpace, &cfg.Canvas.ColumnSpacing},
		{"padding", opts.padding, &cfg.Canvas.Padding},
		{"line-gap", opts.lineGap, &cfg.Canvas.LineGap},
	}
	for _, l := range lengths {
		if !flags.Changed(l.name) {
			continue
		}
		mm, ok := layout.ParseMM(l.value)
		if !ok {
			return cfg, "", fmt.Errorf("--%s 的值 %q 不是有效长度", l.name, l.value)
		}
		*l.dst = mm
	}
	if flags.Changed("columns") {
		cfg.Canvas.Columns = opts.columns
	}
	if flags.Changed("formats") {
		formats, err := config.ParseFormats(strings.Split(opts.formats, ","))
		if err != nil {
			return cfg, "", err
		}
		cfg.Formats = formats
	}
	if err := cfg.Validate(); err != nil {
		return cfg, "", fmt.Errorf("配置无效: %w", err)
	}
	return cfg, baseDir, nil
}

// readRecords 按扩展名选择 CSV 或 XLSX 读取器。
func readRecords(path string, logger *log.Logger) ([]label.Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("无法打开标签表格 %s: %w", path, err)
	}
	defer file.Close()

	opts := label.ReadOptions{Logger: logger}
	var res *label.ReadResult
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		res, err = label.ReadXLSX(file, opts)
	} else {
		res, err = label.ReadCSV(file, opts)
	}
	if err != nil {
		return nil, fmt.Errorf("读取标签表格失败: %w", err)
	}
	if len(res.Skipped) > 0 {
		logger.Printf("跳过 %d 行无效数据", len(res.Skipped))
	}
	return res.Records, nil
}

func newMetrics(mode string, fonts *canvasrenderer.FontSource) (layout.TextMetrics, error) {
	switch mode {
	case metricsMono:
		return layout.MonospaceMetrics{}, nil
	case metricsFont, "":
		return canvasrenderer.NewMetrics(fonts)
	default:
		return nil, fmt.Errorf("未知的测量方式 %q（可选 font、mono）", mode)
	}
}

func newRenderers(cfg config.Config, fonts *canvasrenderer.FontSource, baseDir string) ([]renderer.Renderer, error) {
	pal := palette.New(cfg.Palette)
	out := make([]renderer.Renderer, 0, len(cfg.Formats))
	for _, format := range cfg.Formats {
		switch format {
		case renderer.FormatSVG:
			out = append(out, canvasrenderer.NewVector(fonts, pal))
		case renderer.FormatPDF:
			doc, err := canvasrenderer.NewDocument(canvasrenderer.DocumentOptions{
				Fonts:   fonts,
				Palette: pal,
				DPMM:    cfg.Document.DPMM,
				Logo:    cfg.Document.Logo,
				BaseDir: baseDir,
				Header:  cfg.Document.Header,
				Footer:  cfg.Document.Footer,
				Job:     cfg.Name,
			})
			if err != nil {
				return nil, err
			}
			out = append(out, doc)
		case renderer.FormatLBRN:
			out = append(out, lbrn.New())
		default:
			return nil, fmt.Errorf("不支持的输出格式 %q", format)
		}
	}
	return out, nil
}

// run 串联读取、分组打包、渲染与归档。存在失败分组时仍写出其余分组，并返回错误。
func run(ctx context.Context, cfg config.Config, records []label.Record, metrics layout.TextMetrics, renderers []renderer.Renderer, archive export.Archive, logger *log.Logger) (*export.Result, error) {
	res, err := export.Run(ctx, records, export.Options{
		Canvas:      cfg.Canvas,
		Metrics:     metrics,
		Renderers:   renderers,
		Concurrency: cfg.Concurrency,
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("导出失败: %w", err)
	}
	if err := export.Write(archive, res); err != nil {
		return res, err
	}
	if failed := res.Failed(); len(failed) > 0 {
		return res, fmt.Errorf("%d 个分组导出失败: %w", len(failed), res.Err())
	}
	return res, nil
}

func runExport(cmd *cobra.Command, opts *cliOptions) error {
	logger := newLogger(cmd, opts.quiet)
	cfg, baseDir, err := resolveConfig(cmd, opts)
	if err != nil {
		return err
	}
	records, err := readRecords(opts.input, logger)
	if err != nil {
		return err
	}
	fonts := canvasrenderer.NewFontSource(cfg.Document.Font, baseDir, logger)
	metrics, err := newMetrics(opts.metrics, fonts)
	if err != nil {
		return err
	}
	renderers, err := newRenderers(cfg, fonts, baseDir)
	if err != nil {
		return err
	}

	var archive export.Archive
	target := opts.outDir
	var zipFile *os.File
	if target != "" {
		archive = export.NewDir(target)
	} else {
		target = opts.out
		if target == "" {
			target = export.ArchiveName(cfg.Formats, time.Now())
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("创建输出目录失败: %w", err)
		}
		if zipFile, err = os.Create(target); err != nil {
			return fmt.Errorf("创建归档文件失败: %w", err)
		}
		defer zipFile.Close()
		archive = export.NewZip(zipFile)
	}

	res, runErr := run(cmd.Context(), cfg, records, metrics, renderers, archive, logger)
	if zipFile != nil {
		if err := zipFile.Close(); err != nil && runErr == nil {
			runErr = &export.ArchiveWriteError{Name: target, Err: err}
		}
	}
	if res != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "已导出 %d 个分组、%d 个文件：%s\n", len(res.Groups)-len(res.Failed()), res.FileCount(), target)
	}
	return runErr
}

func runPlan(cmd *cobra.Command, opts *cliOptions) error {
	logger := newLogger(cmd, opts.quiet)
	cfg, baseDir, err := resolveConfig(cmd, opts)
	if err != nil {
		return err
	}
	records, err := readRecords(opts.input, logger)
	if err != nil {
		return err
	}
	metrics, err := newMetrics(opts.metrics, canvasrenderer.NewFontSource(cfg.Document.Font, baseDir, logger))
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return export.ErrNoRecords
	}
	groups := label.GroupByColor(records)
	folders := export.FolderNames(groups)
	for i, grp := range groups {
		plan, err := layout.Pack(grp.Records, cfg.Canvas, layout.Options{Metrics: metrics, Logger: logger})
		if err != nil {
			return fmt.Errorf("分组 %s 布局计算失败: %w", folders[i], err)
		}
		if opts.outDir == "" {
			if err := layout.EncodeDebugJSON(cmd.OutOrStdout(), plan); err != nil {
				return err
			}
			continue
		}
		if err := writeDebug(plan, filepath.Join(opts.outDir, folders[i]+".json")); err != nil {
			return err
		}
	}
	return nil
}

func writeDebug(plan *layout.Plan, debugPath string) error {
	if err := os.MkdirAll(filepath.Dir(debugPath), 0o755); err != nil {
		return fmt.Errorf("创建调试目录失败: %w", err)
	}
	if err := layout.WriteDebugJSON(plan, debugPath); err != nil {
		return fmt.Errorf("输出调试 JSON 失败: %w", err)
	}
	return nil
}
