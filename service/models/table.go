/*
 * @module service/models/table
 * @description 内存表数据模型，定义单元格变体（缺失/数值/文本）、列和表的值语义结构
 * @architecture 数据模型层 - 不可变值对象，所有修改都返回新表
 * @stateFlow 加载器创建 -> 各清洗阶段读取并生成新表 -> 编排器返回最终表
 * @rules 列名在表内唯一；所有列行数一致；缺失标记不等于任何有效数据值
 * @dependencies fmt, math, strconv, strings
 * @refs service/data_cleaning, service/table_io
 */

package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MissingText 缺失单元格的文本形式
const MissingText = "nan"

// CellKind 单元格运行时类型
type CellKind uint8

const (
	CellMissing CellKind = iota // 缺失
	CellNumber                  // 数值
	CellText                    // 文本
)

// String 返回类型名称
func (k CellKind) String() string {
	switch k {
	case CellNumber:
		return "number"
	case CellText:
		return "text"
	default:
		return "missing"
	}
}

// Cell 单元格，缺失、数值、文本三选一
type Cell struct {
	kind CellKind
	num  float64
	text string
}

// Missing 创建缺失单元格
func Missing() Cell {
	return Cell{kind: CellMissing}
}

// Number 创建数值单元格，NaN 视为缺失
func Number(v float64) Cell {
	if math.IsNaN(v) {
		return Missing()
	}
	return Cell{kind: CellNumber, num: v}
}

// Text 创建文本单元格
func Text(s string) Cell {
	return Cell{kind: CellText, text: s}
}

// Kind 返回单元格类型
func (c Cell) Kind() CellKind { return c.kind }

// IsMissing 是否缺失
func (c Cell) IsMissing() bool { return c.kind == CellMissing }

// Float 返回数值，非数值单元格返回 false
func (c Cell) Float() (float64, bool) {
	if c.kind != CellNumber {
		return 0, false
	}
	return c.num, true
}

// Str 返回文本，非文本单元格返回 false
func (c Cell) Str() (string, bool) {
	if c.kind != CellText {
		return "", false
	}
	return c.text, true
}

// String 单元格的文本形式
func (c Cell) String() string {
	switch c.kind {
	case CellNumber:
		return FormatNumber(c.num)
	case CellText:
		return c.text
	default:
		return MissingText
	}
}

// Equal 数据相等比较，类型不同即不相等
func (c Cell) Equal(other Cell) bool {
	if c.kind != other.kind {
		return false
	}
	switch c.kind {
	case CellNumber:
		return c.num == other.num
	case CellText:
		return c.text == other.text
	default:
		return true
	}
}

// appendKey 写入去重用的编码键，带类型前缀和长度，避免 "1" 与 1 冲突
func (c Cell) appendKey(b *strings.Builder) {
	switch c.kind {
	case CellNumber:
		n := c.num
		if n == 0 {
			n = 0 // -0 与 0 视为同一值
		}
		b.WriteByte('n')
		b.WriteString(strconv.FormatFloat(n, 'g', -1, 64))
	case CellText:
		b.WriteByte('t')
		b.WriteString(strconv.Itoa(len(c.text)))
		b.WriteByte(':')
		b.WriteString(c.text)
	default:
		b.WriteByte('m')
	}
	b.WriteByte('|')
}

// FormatNumber 数值的规范文本形式，整数不带小数点
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ParseNumber 词法解析有限数值，失败返回 false；"nan" 和 "inf" 不视为数值
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Column 列，名称加按行排列的单元格
type Column struct {
	Name   string
	Values []Cell
}

// NewColumn 创建列
func NewColumn(name string, values ...Cell) Column {
	return Column{Name: name, Values: values}
}

// Len 行数
func (c Column) Len() int { return len(c.Values) }

// IsText 是否文本列：至少包含一个文本单元格
func (c Column) IsText() bool {
	for _, v := range c.Values {
		if v.kind == CellText {
			return true
		}
	}
	return false
}

// IsNumeric 是否数值列：不含文本且至少包含一个数值
func (c Column) IsNumeric() bool {
	hasNumber := false
	for _, v := range c.Values {
		switch v.kind {
		case CellText:
			return false
		case CellNumber:
			hasNumber = true
		}
	}
	return hasNumber
}

// CountMissing 缺失单元格数量
func (c Column) CountMissing() int {
	n := 0
	for _, v := range c.Values {
		if v.kind == CellMissing {
			n++
		}
	}
	return n
}

func (c Column) clone() Column {
	values := make([]Cell, len(c.Values))
	copy(values, c.Values)
	return Column{Name: c.Name, Values: values}
}

// Table 内存表，列有序且列名唯一
type Table struct {
	columns []Column
	rows    int
}

// NewTable 创建表，校验列名唯一和行数一致
func NewTable(columns ...Column) (*Table, error) {
	t := &Table{columns: make([]Column, 0, len(columns))}
	seen := make(map[string]struct{}, len(columns))
	for i, col := range columns {
		if _, dup := seen[col.Name]; dup {
			return nil, fmt.Errorf("列名重复: %s", col.Name)
		}
		seen[col.Name] = struct{}{}
		if i == 0 {
			t.rows = col.Len()
		} else if col.Len() != t.rows {
			return nil, fmt.Errorf("列 %s 行数 %d 与表行数 %d 不一致", col.Name, col.Len(), t.rows)
		}
		t.columns = append(t.columns, col.clone())
	}
	return t, nil
}

// MustTable 创建表，失败时 panic，仅用于测试和常量数据
func MustTable(columns ...Column) *Table {
	t, err := NewTable(columns...)
	if err != nil {
		panic(err)
	}
	return t
}

// NumRows 行数
func (t *Table) NumRows() int { return t.rows }

// NumColumns 列数
func (t *Table) NumColumns() int { return len(t.columns) }

// ColumnNames 按顺序返回列名
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.columns))
	for i, col := range t.columns {
		names[i] = col.Name
	}
	return names
}

// ColumnIndex 返回列位置，不存在时返回 -1
func (t *Table) ColumnIndex(name string) int {
	for i, col := range t.columns {
		if col.Name == name {
			return i
		}
	}
	return -1
}

// HasColumn 列是否存在
func (t *Table) HasColumn(name string) bool {
	return t.ColumnIndex(name) >= 0
}

// Column 按名称返回列的副本
func (t *Table) Column(name string) (Column, bool) {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return Column{}, false
	}
	return t.columns[idx].clone(), true
}

// Columns 返回所有列的副本
func (t *Table) Columns() []Column {
	cols := make([]Column, len(t.columns))
	for i, col := range t.columns {
		cols[i] = col.clone()
	}
	return cols
}

// Cell 返回指定单元格
func (t *Table) Cell(row int, column string) (Cell, bool) {
	idx := t.ColumnIndex(column)
	if idx < 0 || row < 0 || row >= t.rows {
		return Cell{}, false
	}
	return t.columns[idx].Values[row], true
}

// Row 返回一行的单元格，按列顺序
func (t *Table) Row(i int) []Cell {
	row := make([]Cell, len(t.columns))
	for c, col := range t.columns {
		row[c] = col.Values[i]
	}
	return row
}

// RowKey 行的编码键，所有列值完全相同的行键相同
func (t *Table) RowKey(i int) string {
	var b strings.Builder
	for _, col := range t.columns {
		col.Values[i].appendKey(&b)
	}
	return b.String()
}

// Clone 深拷贝
func (t *Table) Clone() *Table {
	return &Table{columns: t.Columns(), rows: t.rows}
}

// WithColumn 替换同名列或追加新列，返回新表
func (t *Table) WithColumn(col Column) (*Table, error) {
	if len(t.columns) > 0 && col.Len() != t.rows {
		return nil, fmt.Errorf("列 %s 行数 %d 与表行数 %d 不一致", col.Name, col.Len(), t.rows)
	}
	out := t.Clone()
	if len(out.columns) == 0 {
		out.rows = col.Len()
	}
	if idx := out.ColumnIndex(col.Name); idx >= 0 {
		out.columns[idx] = col.clone()
	} else {
		out.columns = append(out.columns, col.clone())
	}
	return out, nil
}

// SelectRows 按给定行号（可重复）构造新表，用于删除、展开和去重
func (t *Table) SelectRows(indices []int) *Table {
	out := &Table{columns: make([]Column, len(t.columns)), rows: len(indices)}
	for c, col := range t.columns {
		values := make([]Cell, len(indices))
		for i, r := range indices {
			values[i] = col.Values[r]
		}
		out.columns[c] = Column{Name: col.Name, Values: values}
	}
	return out
}

// Equal 列名、顺序和所有单元格都相同
func (t *Table) Equal(other *Table) bool {
	if t.rows != other.rows || len(t.columns) != len(other.columns) {
		return false
	}
	for i, col := range t.columns {
		o := other.columns[i]
		if col.Name != o.Name {
			return false
		}
		for r := range col.Values {
			if !col.Values[r].Equal(o.Values[r]) {
				return false
			}
		}
	}
	return true
}
