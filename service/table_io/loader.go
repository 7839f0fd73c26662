/*
 * @module service/table_io/loader
 * @description 表加载器：接受内存表或 .csv/.xlsx 文件路径，生成 models.Table
 * @architecture 基础设施层 - 清洗管道的输入协作方
 * @stateFlow 输入 -> 类型判断 -> 读取原始单元格 -> 缺失标记识别 -> 列类型推断 -> Table
 * @rules 整列可解析为有限数值才视为数值列，inf 等保留为文本；表头重复视为加载失败；其他输入类型返回 InvalidInputError
 * @dependencies encoding/csv, github.com/xuri/excelize/v2, golang.org/x/text, github.com/spf13/cast
 * @refs service/models/table.go, writer.go
 */

package table_io

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"datascrub/service/models"

	"github.com/spf13/cast"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

// 支持的文件扩展名
const (
	ExtCSV  = ".csv"
	ExtXLSX = ".xlsx"
)

// 编码名称
const (
	EncodingAuto   = ""
	EncodingUTF8   = "utf-8"
	EncodingGBK    = "gbk"
	EncodingLatin1 = "latin1"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// naTokens 读取时视为缺失的文本
var naTokens = map[string]struct{}{
	"":     {},
	"NA":   {},
	"N/A":  {},
	"n/a":  {},
	"NaN":  {},
	"nan":  {},
	"-nan": {},
	"NULL": {},
	"null": {},
	"None": {},
	"<NA>": {},
	"#N/A": {},
}

// IsNAToken 是否为缺失标记文本
func IsNAToken(s string) bool {
	_, ok := naTokens[s]
	return ok
}

type loadOptions struct {
	encoding  string
	sheet     string
	delimiter rune
}

// LoadOption 加载选项
type LoadOption func(*loadOptions)

// WithEncoding 指定 CSV 编码，默认自动识别（UTF-8，否则按 GBK 解码）
func WithEncoding(name string) LoadOption {
	return func(o *loadOptions) { o.encoding = strings.ToLower(name) }
}

// WithSheet 指定 xlsx 工作表，默认第一个
func WithSheet(name string) LoadOption {
	return func(o *loadOptions) { o.sheet = name }
}

// WithDelimiter 指定 CSV 分隔符，默认逗号
func WithDelimiter(r rune) LoadOption {
	return func(o *loadOptions) { o.delimiter = r }
}

// Load 加载表；*models.Table 和 models.Table 返回副本
func Load(input interface{}, opts ...LoadOption) (*models.Table, error) {
	options := loadOptions{delimiter: ','}
	for _, opt := range opts {
		opt(&options)
	}

	switch v := input.(type) {
	case *models.Table:
		if v == nil {
			return nil, &models.InvalidInputError{Input: "nil"}
		}
		return v.Clone(), nil
	case models.Table:
		return v.Clone(), nil
	case string:
		return loadFile(v, options)
	default:
		return nil, &models.InvalidInputError{Input: fmt.Sprintf("%T", input)}
	}
}

func loadFile(path string, options loadOptions) (*models.Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ExtCSV:
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, &models.LoadError{Path: path, Err: err}
		}
		tbl, err := parseCSV(data, options)
		if err != nil {
			return nil, &models.LoadError{Path: path, Err: err}
		}
		return tbl, nil
	case ExtXLSX:
		tbl, err := readXLSX(path, options)
		if err != nil {
			return nil, &models.LoadError{Path: path, Err: err}
		}
		return tbl, nil
	default:
		return nil, &models.UnsupportedFormatError{Path: path}
	}
}

// ReadCSV 从流读取 CSV 表
func ReadCSV(r io.Reader, opts ...LoadOption) (*models.Table, error) {
	options := loadOptions{delimiter: ','}
	for _, opt := range opts {
		opt(&options)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("读取CSV失败: %w", err)
	}
	return parseCSV(data, options)
}

func parseCSV(data []byte, options loadOptions) (*models.Table, error) {
	decoded, err := decode(data, options.encoding)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(bytes.NewReader(decoded))
	reader.Comma = options.delimiter
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("解析CSV失败: %w", err)
	}
	return buildTable(records)
}

// decode 去除 BOM 并转为 UTF-8
func decode(data []byte, name string) ([]byte, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	var enc encoding.Encoding
	switch name {
	case EncodingAuto:
		if utf8.Valid(data) {
			return data, nil
		}
		enc = simplifiedchinese.GBK
	case EncodingUTF8, "utf8":
		if !utf8.Valid(data) {
			return nil, errors.New("内容不是有效的 UTF-8")
		}
		return data, nil
	case EncodingGBK, "gb18030":
		enc = simplifiedchinese.GB18030
	case EncodingLatin1, "iso-8859-1":
		enc = charmap.ISO8859_1
	default:
		return nil, fmt.Errorf("不支持的编码: %s", name)
	}

	out, _, err := transform.Bytes(enc.NewDecoder(), data)
	if err != nil {
		return nil, fmt.Errorf("解码 %s 失败: %w", name, err)
	}
	return out, nil
}

func readXLSX(path string, options loadOptions) (*models.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("打开工作簿失败: %w", err)
	}
	defer f.Close()

	sheet := options.sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.New("工作簿不包含工作表")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("读取工作表 %s 失败: %w", sheet, err)
	}
	return buildTable(rows)
}

// buildTable 首行为表头，短行补缺失，逐列推断类型
func buildTable(records [][]string) (*models.Table, error) {
	if len(records) == 0 {
		return models.NewTable()
	}

	header := records[0]
	seen := make(map[string]struct{}, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("表头重复: %s", name)
		}
		seen[name] = struct{}{}
		header[i] = name
	}

	body := records[1:]
	columns := make([]models.Column, len(header))
	for c, name := range header {
		raw := make([]string, len(body))
		for r, record := range body {
			if c < len(record) {
				raw[r] = record[c]
			}
		}
		columns[c] = models.NewColumn(name, inferColumn(raw)...)
	}
	for r, record := range body {
		if len(record) > len(header) {
			return nil, fmt.Errorf("第 %d 行字段数 %d 超过表头列数 %d", r+2, len(record), len(header))
		}
	}
	return models.NewTable(columns...)
}

// inferColumn 非缺失值全部为数值时生成数值列，否则保留文本
func inferColumn(raw []string) []models.Cell {
	cells := make([]models.Cell, len(raw))
	numeric := true
	numbers := make([]float64, len(raw))
	for i, s := range raw {
		if IsNAToken(s) {
			continue
		}
		v, ok := parseNumber(s)
		if !ok {
			numeric = false
			break
		}
		numbers[i] = v
	}

	for i, s := range raw {
		switch {
		case IsNAToken(s):
			cells[i] = models.Missing()
		case numeric:
			cells[i] = models.Number(numbers[i])
		default:
			cells[i] = models.Text(s)
		}
	}
	return cells
}

func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := cast.ToFloat64E(s)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
