package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// MarshalJSON 缺失为 null，数值为 number，文本为 string
func (c Cell) MarshalJSON() ([]byte, error) {
	switch c.kind {
	case CellNumber:
		return json.Marshal(c.num)
	case CellText:
		return json.Marshal(c.text)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON 解析单元格
func (c *Cell) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*c = Missing()
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = Text(s)
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		if b {
			*c = Number(1)
		} else {
			*c = Number(0)
		}
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("不支持的单元格值 %s: %w", string(data), err)
		}
		v, err := n.Float64()
		if err != nil {
			return fmt.Errorf("无效数值 %s: %w", n, err)
		}
		*c = Number(v)
	}
	return nil
}

// columnJSON 列的 JSON 形式
type columnJSON struct {
	Name   string `json:"name"`
	Values []Cell `json:"values"`
}

// tableJSON 表的 JSON 形式
type tableJSON struct {
	Columns []columnJSON `json:"columns"`
	Rows    int          `json:"rows"`
}

// MarshalJSON 输出 {"columns":[{"name":..,"values":[..]}],"rows":n}
func (t *Table) MarshalJSON() ([]byte, error) {
	out := tableJSON{Columns: make([]columnJSON, len(t.columns)), Rows: t.rows}
	for i, col := range t.columns {
		values := col.Values
		if values == nil {
			values = []Cell{}
		}
		out.Columns[i] = columnJSON{Name: col.Name, Values: values}
	}
	return json.Marshal(out)
}

// UnmarshalJSON 解析表并校验结构，rows 字段可省略
func (t *Table) UnmarshalJSON(data []byte) error {
	var in tableJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	cols := make([]Column, len(in.Columns))
	for i, col := range in.Columns {
		cols[i] = Column{Name: col.Name, Values: col.Values}
	}
	parsed, err := NewTable(cols...)
	if err != nil {
		return err
	}
	*t = *parsed
	return nil
}
