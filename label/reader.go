package label

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// 表头列名，与下单表格保持一致。
const (
	ColumnWidth      = "labelWidth (mm)"
	ColumnHeight     = "labelHeight (mm)"
	ColumnTextColor  = "textColor"
	ColumnBackground = "backgroundColor"
	ColumnQuantity   = "quantity"
	ColumnFirstLine  = "FirstTextLine"
	ColumnFirstSize  = "FirstTextSize"
	ColumnSecondLine = "SecondTextLine"
	ColumnSecondSize = "SecondTextSize"
)

// Columns 按约定顺序列出全部列。
var Columns = []string{
	ColumnWidth, ColumnHeight, ColumnTextColor, ColumnBackground, ColumnQuantity,
	ColumnFirstLine, ColumnFirstSize, ColumnSecondLine, ColumnSecondSize,
}

// MaxQuantity 是单行允许展开的最大数量，超出时整行按无效数据跳过。
const MaxQuantity = 10000

// requiredColumns 缺失时行无法构成标签；其余列为空时取缺省值。
var requiredColumns = []string{ColumnWidth, ColumnHeight, ColumnQuantity, ColumnFirstLine}

// Row 是一行原始单元格，键为规范列名（见 Columns）。缺失的键表示该行不含此列。
type Row map[string]string

// Expand 将一行展开为 quantity 条相同的记录。
// 空白或非数字的数值单元格按 0 处理，颜色为空时取 black；quantity<=0 时不产生记录。
func Expand(row Row, rowNum int) ([]Record, error) {
	var missing []string
	for _, col := range requiredColumns {
		if _, ok := row[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &MalformedRowError{Row: rowNum, Missing: missing}
	}

	rec := Record{
		Width:           parseNumber(row[ColumnWidth]),
		Height:          parseNumber(row[ColumnHeight]),
		TextColor:       textOr(row[ColumnTextColor], DefaultColor),
		BackgroundColor: textOr(row[ColumnBackground], DefaultColor),
		FirstLine:       strings.TrimSpace(row[ColumnFirstLine]),
		FirstSize:       parseNumber(row[ColumnFirstSize]),
		SecondLine:      strings.TrimSpace(row[ColumnSecondLine]),
		SecondSize:      parseNumber(row[ColumnSecondSize]),
		Row:             rowNum,
	}
	q := math.Floor(parseNumber(row[ColumnQuantity]))
	if q <= 0 {
		return nil, nil
	}
	if q > MaxQuantity {
		return nil, &InvalidRecordError{Row: rowNum, Field: ColumnQuantity, Reason: fmt.Sprintf("数量 %g 超过上限 %d", q, MaxQuantity)}
	}
	quantity := int(q)
	if err := rec.Validate(); err != nil {
		return nil, err
	}

	records := make([]Record, quantity)
	for i := range records {
		records[i] = rec
	}
	return records, nil
}

// ReadOptions 控制表格读取。
type ReadOptions struct {
	// Sheet 指定 XLSX 工作表，空值取第一个工作表。
	Sheet  string
	Logger *log.Logger
}

// ReadResult 保存展开后的记录以及被跳过行的诊断信息。
type ReadResult struct {
	Records []Record
	Skipped []error
}

// ReadCSV 读取带表头的 CSV，逐行展开为记录。单行错误只跳过该行并记录诊断。
func ReadCSV(r io.Reader, opts ReadOptions) (*ReadResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true

	table, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("读取 CSV 失败: %w", err)
	}
	return readTable(table, opts)
}

// ReadXLSX 读取 XLSX 工作表，表头约定与 CSV 相同。
func ReadXLSX(r io.Reader, opts ReadOptions) (*ReadResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("打开 XLSX 失败: %w", err)
	}
	defer f.Close()

	sheet := opts.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("XLSX 中没有工作表")
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("读取工作表 %s 失败: %w", sheet, err)
	}
	// excelize 会截掉行尾空单元格，这里按表头补齐，避免被误判为结构不完整。
	if len(rows) > 0 {
		width := len(rows[0])
		for i := 1; i < len(rows); i++ {
			if len(rows[i]) > 0 && len(rows[i]) < width {
				rows[i] = append(rows[i], make([]string, width-len(rows[i]))...)
			}
		}
	}
	return readTable(rows, opts)
}

func readTable(table [][]string, opts ReadOptions) (*ReadResult, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	if len(table) == 0 {
		return nil, fmt.Errorf("%w: 文件为空", ErrMissingHeader)
	}

	header, err := mapHeader(table[0])
	if err != nil {
		return nil, err
	}

	res := &ReadResult{}
	for i, cells := range table[1:] {
		rowNum := i + 2
		if blankRow(cells) {
			continue
		}
		row := Row{}
		for idx, col := range header {
			if col == "" || idx >= len(cells) {
				continue
			}
			row[col] = cells[idx]
		}
		records, err := Expand(row, rowNum)
		if err != nil {
			logger.Printf("跳过第 %d 行: %v", rowNum, err)
			res.Skipped = append(res.Skipped, err)
			continue
		}
		res.Records = append(res.Records, records...)
	}
	return res, nil
}

// mapHeader 返回每个表头位置对应的规范列名，未知列为空字符串。
func mapHeader(cells []string) ([]string, error) {
	known := make(map[string]string, len(Columns))
	for _, col := range Columns {
		known[normalizeHeader(col)] = col
	}
	header := make([]string, len(cells))
	seen := map[string]bool{}
	for i, cell := range cells {
		if i == 0 {
			cell = strings.TrimPrefix(cell, "\ufeff")
		}
		if col, ok := known[normalizeHeader(cell)]; ok {
			header[i] = col
			seen[col] = true
		}
	}
	var missing []string
	for _, col := range requiredColumns {
		if !seen[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %q", ErrMissingHeader, missing)
	}
	return header, nil
}

func normalizeHeader(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), ""))
}

func blankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func parseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func textOr(s, fallback string) string {
	if v := strings.TrimSpace(s); v != "" {
		return v
	}
	return fallback
}

// IsRowError 判断错误是否为可跳过的单行错误。
func IsRowError(err error) bool {
	var malformed *MalformedRowError
	var invalid *InvalidRecordError
	return errors.As(err, &malformed) || errors.As(err, &invalid)
}
