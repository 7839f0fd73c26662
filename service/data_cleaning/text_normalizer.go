/*
 * @module service/data_cleaning/text_normalizer
 * @description 文本列清洗：去首尾空白、转小写、表情符号转文本标记
 * @architecture 处理层 - clean 阶段
 * @stateFlow 选中列 -> 逐单元格规范化 -> 新表
 * @rules 只处理文本单元格；选择 all 时作用于所有文本列
 * @dependencies github.com/forPelevin/gomoji, golang.org/x/text
 * @refs pipeline.go
 */

package data_cleaning

import (
	"strings"

	"datascrub/service/models"

	"github.com/forPelevin/gomoji"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// NormalizeText 对选中列逐单元格去首尾空白、转小写、表情符号转文本标记
func NormalizeText(t *models.Table, selector CleanSelector) (*models.Table, error) {
	columns, err := resolveCleanColumns(t, selector)
	if err != nil {
		return nil, err
	}

	current := t
	for _, name := range columns {
		col, _ := current.Column(name)
		// cases.Caser 有内部状态，每列单独创建
		lower := cases.Lower(language.Und)
		for i, v := range col.Values {
			col.Values[i] = models.Text(normalizeString(v.String(), lower))
		}
		next, err := current.WithColumn(col)
		if err != nil {
			return nil, err
		}
		current = next
	}
	return current, nil
}

// resolveCleanColumns 解析列选择；"all" 表示全部文本列
func resolveCleanColumns(t *models.Table, selector CleanSelector) ([]string, error) {
	if selector.All {
		var names []string
		for _, col := range t.Columns() {
			if col.IsText() {
				names = append(names, col.Name)
			}
		}
		return names, nil
	}
	for _, name := range selector.Columns {
		if !t.HasColumn(name) {
			return nil, &models.ColumnNotFoundError{Stage: StageClean, Column: name}
		}
	}
	return selector.Columns, nil
}

func normalizeString(s string, lower cases.Caser) string {
	s = strings.TrimSpace(s)
	s = lower.String(s)
	return Demojize(s)
}

// Demojize 将表情符号替换为 :name: 形式的文本标记
func Demojize(s string) string {
	if !gomoji.ContainsEmoji(s) {
		return s
	}
	return gomoji.ReplaceEmojisWithFunc(s, func(em gomoji.Emoji) string {
		return ":" + strings.ReplaceAll(em.Slug, "-", "_") + ":"
	})
}
