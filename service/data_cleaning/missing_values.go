/*
 * @module service/data_cleaning/missing_values
 * @description 处理缺失值：替换、删行、向后填充（行方向/列方向）
 * @architecture 处理层 - 管道第一阶段
 * @stateFlow 规则列表 -> 逐条校验列 -> 生成新表
 * @rules 规则按顺序依次作用；列不存在返回 ColumnNotFoundError；输入表不被修改
 * @dependencies datascrub/service/models
 * @refs config.go, pipeline.go
 */

package data_cleaning

import (
	"datascrub/service/models"
)

// ResolveMissingValues 按规则顺序处理缺失值，返回新表
func ResolveMissingValues(t *models.Table, rules []MissingValueRule) (*models.Table, error) {
	current := t
	for _, rule := range rules {
		if !current.HasColumn(rule.Column) {
			return nil, &models.ColumnNotFoundError{Stage: StageMissingValues, Column: rule.Column}
		}

		var err error
		switch rule.Op.Kind {
		case MissingReplace:
			current, err = replaceMissing(current, rule.Column, rule.Op.Value)
		case MissingDrop:
			current = dropMissingRows(current, rule.Column)
		case MissingBackfillRows:
			current, err = backfillRows(current, rule.Column)
		case MissingBackfillColumns:
			current, err = backfillColumns(current, rule.Column)
		default:
			return nil, &models.ConfigError{
				Field:  StageMissingValues + "." + rule.Column,
				Value:  rule.Op.Kind.String(),
				Reason: "无效的缺失值操作",
			}
		}
		if err != nil {
			return nil, err
		}
	}
	return current, nil
}

// replaceMissing 用固定值替换缺失单元格
func replaceMissing(t *models.Table, column string, value models.Cell) (*models.Table, error) {
	col, _ := t.Column(column)
	for i, v := range col.Values {
		if v.IsMissing() {
			col.Values[i] = value
		}
	}
	return t.WithColumn(col)
}

// dropMissingRows 删除该列缺失的整行
func dropMissingRows(t *models.Table, column string) *models.Table {
	col, _ := t.Column(column)
	keep := make([]int, 0, col.Len())
	for i, v := range col.Values {
		if !v.IsMissing() {
			keep = append(keep, i)
		}
	}
	return t.SelectRows(keep)
}

// backfillRows 用同列下方最近的非缺失值填充，剩余缺失填 0
func backfillRows(t *models.Table, column string) (*models.Table, error) {
	col, _ := t.Column(column)
	next := models.Missing()
	for i := col.Len() - 1; i >= 0; i-- {
		if col.Values[i].IsMissing() {
			col.Values[i] = next
		} else {
			next = col.Values[i]
		}
	}
	fillZero(col.Values)
	return t.WithColumn(col)
}

// backfillColumns 用同行右侧最近的非缺失列值填充，剩余缺失填 0
func backfillColumns(t *models.Table, column string) (*models.Table, error) {
	idx := t.ColumnIndex(column)
	columns := t.Columns()
	col := columns[idx]
	for row := range col.Values {
		if !col.Values[row].IsMissing() {
			continue
		}
		for _, right := range columns[idx+1:] {
			if v := right.Values[row]; !v.IsMissing() {
				col.Values[row] = v
				break
			}
		}
	}
	fillZero(col.Values)
	return t.WithColumn(col)
}

func fillZero(values []models.Cell) {
	for i, v := range values {
		if v.IsMissing() {
			values[i] = models.Number(0)
		}
	}
}
