/*
 * @module service/data_cleaning/exploder
 * @description 按分隔符拆分单元格并展开为多行
 * @architecture 处理层 - explode 阶段
 * @stateFlow 行 -> 拆分文本单元格 -> 复制其余列 -> 新表
 * @rules 只拆分文本单元格，缺失和数值单元格保持一行；多条规则依次叠加
 * @dependencies datascrub/service/models
 * @refs pipeline.go
 */

package data_cleaning

import (
	"strings"

	"datascrub/service/models"
)

// ExplodeColumns 按分隔符拆分单元格并展开为多行，多条规则依次叠加
func ExplodeColumns(t *models.Table, rules []ExplodeRule) (*models.Table, error) {
	current := t
	for _, rule := range rules {
		if rule.Separator == "" {
			return nil, &models.ConfigError{
				Field:  StageExplode + "." + rule.Column,
				Reason: "分隔符不能为空",
			}
		}
		next, err := explodeColumn(current, rule)
		if err != nil {
			return nil, err
		}
		current = next
	}
	return current, nil
}

// explodeColumn 单列展开：其他列的值在派生行中原样复制
func explodeColumn(t *models.Table, rule ExplodeRule) (*models.Table, error) {
	col, ok := t.Column(rule.Column)
	if !ok {
		return nil, &models.ColumnNotFoundError{Stage: StageExplode, Column: rule.Column}
	}

	sources := make([]int, 0, col.Len())
	values := make([]models.Cell, 0, col.Len())
	for row, v := range col.Values {
		// 非文本单元格和无分隔符的单元格原样保留为一行
		text, ok := v.Str()
		if !ok {
			sources = append(sources, row)
			values = append(values, v)
			continue
		}
		parts := strings.Split(text, rule.Separator)
		if len(parts) == 1 {
			sources = append(sources, row)
			values = append(values, v)
			continue
		}
		for _, part := range parts {
			sources = append(sources, row)
			values = append(values, models.Text(part))
		}
	}

	expanded := t.SelectRows(sources)
	return expanded.WithColumn(models.NewColumn(rule.Column, values...))
}
