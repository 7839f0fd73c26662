/*
 * @module service/data_cleaning/config
 * @description 清洗管道的类型化配置：各阶段规则和缺失值操作变体
 * @architecture 配置层 - 操作字符串只在边界解析一次，阶段内部只使用封闭的操作类型
 * @stateFlow 请求配置 -> ParseRequestConfig -> Config -> Pipeline.Run
 * @rules 空字段表示禁用对应阶段；规则按声明顺序依次应用
 * @dependencies datascrub/service/models
 * @refs request_config.go, pipeline.go
 */

package data_cleaning

import (
	"fmt"
	"strings"

	"datascrub/service/models"
)

// 阶段名称
const (
	StageMissingValues = "missing_values"
	StageParseDate     = "parse_date"
	StageTranslate     = "translate_columns"
	StageClean         = "clean"
	StageScaling       = "perform_scaling_normalization"
	StageExplode       = "explode"
	StageDeduplicate   = "deduplicate"
)

// MissingOpKind 缺失值操作类型
type MissingOpKind int

const (
	MissingReplace         MissingOpKind = iota + 1 // 用固定值替换
	MissingDrop                                     // 删除缺失行
	MissingBackfillRows                             // 沿行方向后向填充，剩余填 0
	MissingBackfillColumns                          // 沿列方向后向填充，剩余填 0
)

// 缺失值操作字符串
const (
	opReplacePrefix   = "replace missing value with "
	opDrop            = "drop"
	opBackfillRows    = "fill with backward fill along rows"
	opBackfillColumns = "fill with backward fill along columns"
	cleanAllSelector  = "all"
	translatedSuffix  = "_translated"
)

// String 操作名称
func (k MissingOpKind) String() string {
	switch k {
	case MissingReplace:
		return "replace-with"
	case MissingDrop:
		return "drop"
	case MissingBackfillRows:
		return "backfill-rows"
	case MissingBackfillColumns:
		return "backfill-columns"
	default:
		return fmt.Sprintf("MissingOpKind(%d)", int(k))
	}
}

// MissingOp 缺失值操作
type MissingOp struct {
	Kind  MissingOpKind
	Value models.Cell // 仅 MissingReplace 使用
}

// ReplaceWith 替换操作，值能解析为数值时按数值处理，否则保留文本
func ReplaceWith(raw string) MissingOp {
	if v, ok := models.ParseNumber(raw); ok {
		return MissingOp{Kind: MissingReplace, Value: models.Number(v)}
	}
	return MissingOp{Kind: MissingReplace, Value: models.Text(raw)}
}

// Drop 删除缺失行操作
func Drop() MissingOp { return MissingOp{Kind: MissingDrop} }

// BackfillRows 行方向后向填充操作
func BackfillRows() MissingOp { return MissingOp{Kind: MissingBackfillRows} }

// BackfillColumns 列方向后向填充操作
func BackfillColumns() MissingOp { return MissingOp{Kind: MissingBackfillColumns} }

// ParseMissingOp 解析操作字符串
func ParseMissingOp(s string) (MissingOp, error) {
	switch {
	case strings.HasPrefix(s, opReplacePrefix):
		return ReplaceWith(strings.TrimPrefix(s, opReplacePrefix)), nil
	case s == opDrop:
		return Drop(), nil
	case s == opBackfillRows:
		return BackfillRows(), nil
	case s == opBackfillColumns:
		return BackfillColumns(), nil
	default:
		return MissingOp{}, &models.ConfigError{
			Field:  StageMissingValues,
			Value:  s,
			Reason: "无效的缺失值操作",
		}
	}
}

// MissingValueRule 单列缺失值规则
type MissingValueRule struct {
	Column string
	Op     MissingOp
}

// ExplodeRule 单列展开规则
type ExplodeRule struct {
	Column    string
	Separator string
}

// TranslateRule 单列翻译规则
type TranslateRule struct {
	Column    string
	Overwrite bool
}

// TargetColumn 翻译结果写入的列名
func (r TranslateRule) TargetColumn() string {
	if r.Overwrite {
		return r.Column
	}
	return r.Column + translatedSuffix
}

// CleanSelector 文本标准化的列选择：全部文本列或显式列表
type CleanSelector struct {
	All     bool
	Columns []string
}

// CleanAll 选择全部文本列
func CleanAll() CleanSelector { return CleanSelector{All: true} }

// CleanColumns 选择显式列
func CleanColumns(columns ...string) CleanSelector { return CleanSelector{Columns: columns} }

// Enabled 是否启用
func (s CleanSelector) Enabled() bool { return s.All || len(s.Columns) > 0 }

// Config 编排器配置，零值字段禁用对应阶段，去重阶段始终执行
type Config struct {
	Clean                CleanSelector
	MissingValues        []MissingValueRule
	ScalingNormalization bool
	Explode              []ExplodeRule
	ParseDate            []string
	TranslateColumns     []TranslateRule
}
