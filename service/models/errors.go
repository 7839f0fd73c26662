/*
 * @module service/models/errors
 * @description 清洗管道统一错误分类，供清洗阶段、加载器和 API 层共用
 * @architecture 数据模型层 - 错误类型定义
 * @stateFlow 错误产生 -> 按类型包装 -> 编排器原样返回 -> API 层映射状态码
 * @rules 配置与列引用错误不可恢复；日期解析失败不产生错误；缩放失败降级为警告
 * @dependencies errors, fmt
 * @refs service/data_cleaning, service/table_io, api/controllers
 */

package models

import (
	"errors"
	"fmt"
)

// ErrorType 错误类型
type ErrorType string

const (
	ErrorTypeConfig            ErrorType = "config"             // 配置错误
	ErrorTypeColumnNotFound    ErrorType = "column_not_found"   // 列不存在
	ErrorTypeUnsupportedFormat ErrorType = "unsupported_format" // 不支持的文件格式
	ErrorTypeLoad              ErrorType = "load"               // 加载失败
	ErrorTypeInvalidInput      ErrorType = "invalid_input"      // 无效输入
	ErrorTypeTranslation       ErrorType = "translation"        // 翻译失败
	ErrorTypeTransform         ErrorType = "transform"          // 数值变换失败
	ErrorTypeSystem            ErrorType = "system"             // 其他系统错误
)

// ConfigError 配置错误：无法识别的操作字符串或格式错误的配置值
type ConfigError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("配置错误 %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("配置错误 %s=%q: %s", e.Field, e.Value, e.Reason)
}

// Type 错误类型
func (e *ConfigError) Type() ErrorType { return ErrorTypeConfig }

// ColumnNotFoundError 引用的列不在表中
type ColumnNotFoundError struct {
	Stage  string
	Column string
}

func (e *ColumnNotFoundError) Error() string {
	if e.Stage == "" {
		return fmt.Sprintf("列不存在: %s", e.Column)
	}
	return fmt.Sprintf("%s: 列不存在: %s", e.Stage, e.Column)
}

// Type 错误类型
func (e *ColumnNotFoundError) Type() ErrorType { return ErrorTypeColumnNotFound }

// UnsupportedFormatError 文件扩展名不受支持
type UnsupportedFormatError struct {
	Path string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("不支持的文件格式: %s（仅支持 .csv 和 .xlsx）", e.Path)
}

// Type 错误类型
func (e *UnsupportedFormatError) Type() ErrorType { return ErrorTypeUnsupportedFormat }

// LoadError 读取或解析表文件失败
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("加载表失败 %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Type 错误类型
func (e *LoadError) Type() ErrorType { return ErrorTypeLoad }

// InvalidInputError 加载器收到既不是表也不是文件路径的输入，或文件路径不在数据目录内
type InvalidInputError struct {
	Input  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("无效的输入 %s: %s", e.Input, e.Reason)
	}
	return fmt.Sprintf("无效的数据类型 %s，请提供表或文件路径", e.Input)
}

// Type 错误类型
func (e *InvalidInputError) Type() ErrorType { return ErrorTypeInvalidInput }

// TranslationError 外部翻译调用失败（含超时）
type TranslationError struct {
	Column string
	Row    int
	Err    error
}

func (e *TranslationError) Error() string {
	return fmt.Sprintf("翻译失败 列=%s 行=%d: %v", e.Column, e.Row, e.Err)
}

func (e *TranslationError) Unwrap() error { return e.Err }

// Type 错误类型
func (e *TranslationError) Type() ErrorType { return ErrorTypeTranslation }

// TransformError 缩放阶段单列变换失败，按列降级为警告
type TransformError struct {
	Column string
	Err    error
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("列 %s 数值变换失败: %v", e.Column, e.Err)
}

func (e *TransformError) Unwrap() error { return e.Err }

// Type 错误类型
func (e *TransformError) Type() ErrorType { return ErrorTypeTransform }

// typedError 带分类的错误
type typedError interface {
	error
	Type() ErrorType
}

// ErrorTypeOf 对任意（可能被包装的）错误分类
func ErrorTypeOf(err error) ErrorType {
	if err == nil {
		return ""
	}
	var te typedError
	if errors.As(err, &te) {
		return te.Type()
	}
	return ErrorTypeSystem
}
