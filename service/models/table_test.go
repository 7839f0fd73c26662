package models

import (
	"encoding/json"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCell(t *testing.T) {
	assert.True(t, Number(math.NaN()).IsMissing(), "NaN 视为缺失")
	assert.Equal(t, "nan", Missing().String())
	assert.Equal(t, "25", Number(25).String())
	assert.Equal(t, "2.5", Number(2.5).String())

	testCases := []struct {
		name  string
		a, b  Cell
		equal bool
	}{
		{name: "缺失等于缺失", a: Missing(), b: Missing(), equal: true},
		{name: "数值相等", a: Number(1), b: Number(1), equal: true},
		{name: "文本与数值不相等", a: Text("1"), b: Number(1), equal: false},
		{name: "缺失与文本nan不相等", a: Missing(), b: Text("nan"), equal: false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.equal, tc.a.Equal(tc.b))
		})
	}
}

func TestParseNumber(t *testing.T) {
	testCases := []struct {
		in string
		v  float64
		ok bool
	}{
		{in: " 42 ", v: 42, ok: true},
		{in: "-1.5e2", v: -150, ok: true},
		{in: "nan", ok: false},
		{in: "inf", ok: false},
		{in: "-Infinity", ok: false},
		{in: "1e400", ok: false},
		{in: "", ok: false},
		{in: "12abc", ok: false},
	}
	for _, tc := range testCases {
		t.Run(fmt.Sprintf("解析%q", tc.in), func(t *testing.T) {
			v, ok := ParseNumber(tc.in)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.Equal(t, tc.v, v)
			}
		})
	}
}

func TestNewTable_Validation(t *testing.T) {
	_, err := NewTable(NewColumn("A", Number(1)), NewColumn("A", Number(2)))
	assert.Error(t, err, "列名重复")

	_, err = NewTable(NewColumn("A", Number(1)), NewColumn("B"))
	assert.Error(t, err, "行数不一致")

	empty, err := NewTable()
	require.NoError(t, err)
	assert.Zero(t, empty.NumRows())
	assert.Zero(t, empty.NumColumns())
}

func TestTable_ValueSemantics(t *testing.T) {
	values := []Cell{Text("john"), Text("jane")}
	table := MustTable(NewColumn("Name", values...))

	values[0] = Text("changed")
	cell, ok := table.Cell(0, "Name")
	require.True(t, ok)
	assert.Equal(t, "john", cell.String(), "建表时复制单元格")

	col, _ := table.Column("Name")
	col.Values[1] = Missing()
	cell, _ = table.Cell(1, "Name")
	assert.Equal(t, "jane", cell.String(), "返回的列是副本")

	updated, err := table.WithColumn(NewColumn("Age", Number(25), Number(30)))
	require.NoError(t, err)
	assert.Equal(t, []string{"Name", "Age"}, updated.ColumnNames())
	assert.Equal(t, []string{"Name"}, table.ColumnNames(), "原表不变")

	replaced, err := updated.WithColumn(NewColumn("Name", Text("a"), Text("b")))
	require.NoError(t, err)
	assert.Equal(t, []string{"Name", "Age"}, replaced.ColumnNames(), "替换同名列保持位置")

	_, err = table.WithColumn(NewColumn("Bad", Number(1)))
	assert.Error(t, err)
}

func TestTable_RowKeyAndSelect(t *testing.T) {
	table := MustTable(
		NewColumn("A", Text("1"), Number(1), Missing(), Number(0), Number(math.Copysign(0, -1))),
	)
	assert.NotEqual(t, table.RowKey(0), table.RowKey(1), "文本 1 与数值 1 不同")
	assert.Equal(t, table.RowKey(3), table.RowKey(4), "-0 与 0 相同")

	selected := table.SelectRows([]int{2, 2, 0})
	assert.Equal(t, 3, selected.NumRows())
	assert.True(t, selected.Row(0)[0].IsMissing())
	assert.True(t, selected.Row(2)[0].Equal(Text("1")))
}

func TestColumn_Kinds(t *testing.T) {
	assert.True(t, NewColumn("n", Number(1), Missing()).IsNumeric())
	assert.False(t, NewColumn("m", Missing()).IsNumeric(), "全缺失不算数值列")
	assert.True(t, NewColumn("t", Number(1), Text("x")).IsText())
	assert.Equal(t, 2, NewColumn("c", Missing(), Text(""), Missing()).CountMissing())
}

func TestTable_JSON(t *testing.T) {
	table := MustTable(
		NewColumn("Name", Text("john"), Missing()),
		NewColumn("Age", Number(25), Number(30.5)),
	)

	data, err := json.Marshal(table)
	require.NoError(t, err)
	assert.JSONEq(t, `{"columns":[{"name":"Name","values":["john",null]},{"name":"Age","values":[25,30.5]}],"rows":2}`, string(data))

	var parsed Table
	require.NoError(t, json.Unmarshal([]byte(`{"columns":[{"name":"Flag","values":[true,false,null]}]}`), &parsed))
	assert.Equal(t, 3, parsed.NumRows())
	assert.True(t, parsed.Row(0)[0].Equal(Number(1)))
	assert.True(t, parsed.Row(2)[0].IsMissing())

	assert.Error(t, json.Unmarshal([]byte(`{"columns":[{"name":"A","values":[{"x":1}]}]}`), &parsed))
	assert.Error(t, json.Unmarshal([]byte(`{"columns":[{"name":"A","values":[1]},{"name":"B","values":[]}]}`), &parsed))
}
