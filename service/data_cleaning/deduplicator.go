/*
 * @module service/data_cleaning/deduplicator
 * @description 整行去重
 * @architecture 处理层 - 管道最后阶段，总是执行
 * @stateFlow 行 -> 行键 -> 保留首次出现
 * @rules 保持首次出现顺序
 * @dependencies datascrub/service/models
 * @refs pipeline.go
 */

package data_cleaning

import "datascrub/service/models"

// DropDuplicates 保留每种完整行值组合的首次出现，保持首次出现顺序
func DropDuplicates(t *models.Table) *models.Table {
	seen := make(map[string]struct{}, t.NumRows())
	keep := make([]int, 0, t.NumRows())
	for i := 0; i < t.NumRows(); i++ {
		key := t.RowKey(i)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		keep = append(keep, i)
	}
	if len(keep) == t.NumRows() {
		return t.Clone()
	}
	return t.SelectRows(keep)
}
