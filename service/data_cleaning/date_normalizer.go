/*
 * @module service/data_cleaning/date_normalizer
 * @description 日期列规范化为 YYYY-MM-DD
 * @architecture 处理层 - parse_date 阶段
 * @stateFlow 单元格 -> 固定格式解析 -> 宽松解析（月在前，失败再按日在前） -> 规范字符串或缺失
 * @rules 已是规范格式的列原样保留；无法解析的单元格变为缺失
 * @dependencies github.com/araddon/dateparse
 * @refs pipeline.go
 */

package data_cleaning

import (
	"strings"
	"time"

	"datascrub/service/models"

	"github.com/araddon/dateparse"
)

// CanonicalDateLayout 规范日期格式 YYYY-MM-DD
const CanonicalDateLayout = "2006-01-02"

// 常见日期格式，优先于通用解析器尝试
var dateLayouts = []string{
	CanonicalDateLayout,
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006/01/02 15:04:05",
	"2006/01/02",
	"01/02/2006 15:04:05",
	"01/02/2006",
}

// NormalizeDates 将指定列转换为规范日期字符串，无法解析的单元格变为缺失
func NormalizeDates(t *models.Table, columns []string) (*models.Table, error) {
	for _, name := range columns {
		if !t.HasColumn(name) {
			return nil, &models.ColumnNotFoundError{Stage: StageParseDate, Column: name}
		}
	}

	current := t
	for _, name := range columns {
		col, _ := current.Column(name)
		if isCanonicalDateColumn(col) {
			continue
		}
		for i, v := range col.Values {
			col.Values[i] = normalizeDateCell(v)
		}
		next, err := current.WithColumn(col)
		if err != nil {
			return nil, err
		}
		current = next
	}
	return current, nil
}

// isCanonicalDateColumn 所有非缺失单元格都已是规范日期文本
func isCanonicalDateColumn(col models.Column) bool {
	for _, v := range col.Values {
		if v.IsMissing() {
			continue
		}
		s, ok := v.Str()
		if !ok || !isCanonicalDate(s) {
			return false
		}
	}
	return true
}

func isCanonicalDate(s string) bool {
	if len(s) != len(CanonicalDateLayout) {
		return false
	}
	_, err := time.Parse(CanonicalDateLayout, s)
	return err == nil
}

// normalizeDateCell 解析失败时返回缺失，不产生错误
func normalizeDateCell(v models.Cell) models.Cell {
	if v.IsMissing() {
		return v
	}
	parsed, ok := ParseDate(v.String())
	if !ok {
		return models.Missing()
	}
	return models.Text(parsed.Format(CanonicalDateLayout))
}

// ParseDate 尽力解析日期字符串
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err == nil {
		return t, true
	}
	// 月份越界时按日在前重试，如 13/05/2024
	t, err = dateparse.ParseIn(s, time.UTC, dateparse.PreferMonthFirst(false))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
