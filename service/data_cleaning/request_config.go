/*
 * @module service/data_cleaning/request_config
 * @description 管道配置的外部形式及其解析
 * @architecture 配置层 - JSON/YAML 请求配置转换为类型化 Config
 * @stateFlow 请求配置 -> 字段校验 -> 缺失值操作解析 -> Config
 * @rules 未知操作返回 ConfigError；列名顺序按声明保留
 * @dependencies github.com/spf13/cast, gopkg.in/yaml.v3
 * @refs config.go
 */

package data_cleaning

import (
	"bytes"
	"encoding/json"
	"fmt"

	"datascrub/service/models"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// RequestConfig 管道配置的外部形式（JSON/YAML），字段与调用方约定一致
type RequestConfig struct {
	Clean                       CleanField `json:"clean,omitempty" yaml:"clean,omitempty"`
	MissingValues               OrderedMap `json:"missing_values,omitempty" yaml:"missing_values,omitempty"`
	PerformScalingNormalization bool       `json:"perform_scaling_normalization,omitempty" yaml:"perform_scaling_normalization,omitempty"`
	Explode                     OrderedMap `json:"explode,omitempty" yaml:"explode,omitempty"`
	ParseDate                   []string   `json:"parse_date,omitempty" yaml:"parse_date,omitempty"`
	TranslateColumns            OrderedMap `json:"translate_columns,omitempty" yaml:"translate_columns,omitempty"`
}

// CleanField clean 字段："all" 或列名列表
type CleanField struct {
	Value   string   // 字符串形式
	Columns []string // 列表形式，非 nil 表示列表
}

// IsZero 未设置
func (f CleanField) IsZero() bool {
	return f.Value == "" && f.Columns == nil
}

// MarshalJSON 输出字符串或数组
func (f CleanField) MarshalJSON() ([]byte, error) {
	if f.Columns != nil {
		return json.Marshal(f.Columns)
	}
	if f.Value == "" {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}

// UnmarshalJSON 接受字符串或字符串数组
func (f *CleanField) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*f = CleanField{}
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '[' {
		columns := []string{}
		if err := json.Unmarshal(data, &columns); err != nil {
			return fmt.Errorf("clean 列表格式错误: %w", err)
		}
		f.Columns = columns
		return nil
	}
	return json.Unmarshal(data, &f.Value)
}

// UnmarshalYAML 接受标量或序列
func (f *CleanField) UnmarshalYAML(node *yaml.Node) error {
	*f = CleanField{}
	switch node.Kind {
	case yaml.SequenceNode:
		columns := []string{}
		if err := node.Decode(&columns); err != nil {
			return fmt.Errorf("clean 列表格式错误: %w", err)
		}
		f.Columns = columns
		return nil
	case yaml.ScalarNode:
		return node.Decode(&f.Value)
	default:
		return fmt.Errorf("clean 字段类型不支持（第 %d 行）", node.Line)
	}
}

// KeyValue 有序映射的一项
type KeyValue struct {
	Key   string
	Value interface{}
}

// OrderedMap 保留声明顺序的映射，依次应用的规则（缺失值、展开、翻译）按文档顺序执行
type OrderedMap []KeyValue

// Get 按键取值
func (m OrderedMap) Get(key string) (interface{}, bool) {
	for _, kv := range m {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return nil, false
}

// Set 设置键值，已存在的键原位覆盖
func (m *OrderedMap) Set(key string, value interface{}) {
	for i, kv := range *m {
		if kv.Key == key {
			(*m)[i].Value = value
			return
		}
	}
	*m = append(*m, KeyValue{Key: key, Value: value})
}

// MarshalJSON 按顺序输出对象
func (m OrderedMap) MarshalJSON() ([]byte, error) {
	if m == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, kv := range m {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(kv.Key)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(kv.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON 按出现顺序解析对象
func (m *OrderedMap) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*m = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("期望 JSON 对象，实际为 %v", tok)
	}

	out := OrderedMap{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("无效的对象键: %v", keyTok)
		}
		var value interface{}
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("解析键 %s 的值失败: %w", key, err)
		}
		out.Set(key, value)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*m = out
	return nil
}

// UnmarshalYAML 按出现顺序解析映射节点
func (m *OrderedMap) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("期望 YAML 映射（第 %d 行）", node.Line)
	}
	out := OrderedMap{}
	for i := 0; i+1 < len(node.Content); i += 2 {
		var value interface{}
		if err := node.Content[i+1].Decode(&value); err != nil {
			return fmt.Errorf("解析键 %s 的值失败: %w", node.Content[i].Value, err)
		}
		out.Set(node.Content[i].Value, value)
	}
	*m = out
	return nil
}

// ParseRequestConfig 在边界把外部配置解析为类型化配置
func ParseRequestConfig(rc RequestConfig) (Config, error) {
	var cfg Config

	switch {
	case rc.Clean.Columns != nil:
		cfg.Clean = CleanColumns(rc.Clean.Columns...)
	case rc.Clean.Value == cleanAllSelector:
		cfg.Clean = CleanAll()
	case rc.Clean.Value != "":
		return Config{}, &models.ConfigError{
			Field:  StageClean,
			Value:  rc.Clean.Value,
			Reason: "clean 参数应为 'all' 或列名列表",
		}
	}

	for _, kv := range rc.MissingValues {
		raw, ok := kv.Value.(string)
		if !ok {
			return Config{}, &models.ConfigError{
				Field:  StageMissingValues + "." + kv.Key,
				Value:  cast.ToString(kv.Value),
				Reason: "操作必须是字符串",
			}
		}
		op, err := ParseMissingOp(raw)
		if err != nil {
			return Config{}, err
		}
		cfg.MissingValues = append(cfg.MissingValues, MissingValueRule{Column: kv.Key, Op: op})
	}

	cfg.ScalingNormalization = rc.PerformScalingNormalization

	for _, kv := range rc.Explode {
		sep, ok := kv.Value.(string)
		if !ok || sep == "" {
			return Config{}, &models.ConfigError{
				Field:  StageExplode + "." + kv.Key,
				Value:  cast.ToString(kv.Value),
				Reason: "分隔符必须是非空字符串",
			}
		}
		cfg.Explode = append(cfg.Explode, ExplodeRule{Column: kv.Key, Separator: sep})
	}

	if len(rc.ParseDate) > 0 {
		cfg.ParseDate = append([]string(nil), rc.ParseDate...)
	}

	for _, kv := range rc.TranslateColumns {
		overwrite, err := cast.ToBoolE(kv.Value)
		if err != nil {
			return Config{}, &models.ConfigError{
				Field:  StageTranslate + "." + kv.Key,
				Value:  cast.ToString(kv.Value),
				Reason: "overwrite 必须是布尔值",
			}
		}
		cfg.TranslateColumns = append(cfg.TranslateColumns, TranslateRule{Column: kv.Key, Overwrite: overwrite})
	}

	return cfg, nil
}

// Snapshot 配置快照，用于运行记录
func (rc RequestConfig) Snapshot() models.JSONB {
	data, err := json.Marshal(rc)
	if err != nil {
		return models.JSONB{}
	}
	snapshot := models.JSONB{}
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return models.JSONB{}
	}
	return snapshot
}
