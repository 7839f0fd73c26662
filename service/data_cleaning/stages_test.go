package data_cleaning

import (
	"errors"
	"strings"
	"testing"

	"datascrub/service/models"

	"github.com/forPelevin/gomoji"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	na  = models.Missing()
	num = models.Number
	txt = models.Text
)

func texts(values ...string) []models.Cell {
	cells := make([]models.Cell, len(values))
	for i, v := range values {
		cells[i] = models.Text(v)
	}
	return cells
}

func table(t *testing.T, columns ...models.Column) *models.Table {
	t.Helper()
	tbl, err := models.NewTable(columns...)
	require.NoError(t, err)
	return tbl
}

func column(t *testing.T, tbl *models.Table, name string) []models.Cell {
	t.Helper()
	col, ok := tbl.Column(name)
	require.True(t, ok, "列 %s 不存在", name)
	return col.Values
}

func TestResolveMissingValues(t *testing.T) {
	testCases := []struct {
		name     string
		input    []models.Column
		rules    []MissingValueRule
		column   string
		expected []models.Cell
		rows     int
	}{
		{
			name:     "数值替换",
			input:    []models.Column{models.NewColumn("Age", num(25), na, num(35))},
			rules:    []MissingValueRule{{Column: "Age", Op: ReplaceWith("0")}},
			column:   "Age",
			expected: []models.Cell{num(25), num(0), num(35)},
			rows:     3,
		},
		{
			name:     "文本替换",
			input:    []models.Column{models.NewColumn("City", txt("beijing"), na)},
			rules:    []MissingValueRule{{Column: "City", Op: ReplaceWith("unknown")}},
			column:   "City",
			expected: []models.Cell{txt("beijing"), txt("unknown")},
			rows:     2,
		},
		{
			name:     "行方向后向填充，末尾补零",
			input:    []models.Column{models.NewColumn("V", na, num(1), na, num(3), na)},
			rules:    []MissingValueRule{{Column: "V", Op: BackfillRows()}},
			column:   "V",
			expected: []models.Cell{num(1), num(1), num(3), num(3), num(0)},
			rows:     5,
		},
		{
			name: "列方向后向填充，右侧全缺失补零",
			input: []models.Column{
				models.NewColumn("A", na, num(1), na, na),
				models.NewColumn("B", num(2), na, na, na),
				models.NewColumn("C", na, na, num(5), na),
			},
			rules:    []MissingValueRule{{Column: "A", Op: BackfillColumns()}},
			column:   "A",
			expected: []models.Cell{num(2), num(1), num(5), num(0)},
			rows:     4,
		},
		{
			name: "删除缺失行",
			input: []models.Column{
				models.NewColumn("Name", texts("a", "b", "c")...),
				models.NewColumn("Age", num(1), na, num(3)),
			},
			rules:    []MissingValueRule{{Column: "Age", Op: Drop()}},
			column:   "Name",
			expected: texts("a", "c"),
			rows:     2,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			input := table(t, tc.input...)
			before := input.Clone()

			out, err := ResolveMissingValues(input, tc.rules)
			require.NoError(t, err)
			assert.Equal(t, tc.rows, out.NumRows())
			assert.Equal(t, tc.expected, column(t, out, tc.column))
			assert.True(t, input.Equal(before), "输入表不应被修改")
		})
	}
}

func TestResolveMissingValues_ReplaceKeepsPresentValues(t *testing.T) {
	input := table(t, models.NewColumn("Score", num(1.5), na, txt("x"), na))

	out, err := ResolveMissingValues(input, []MissingValueRule{{Column: "Score", Op: ReplaceWith("9")}})
	require.NoError(t, err)

	values := column(t, out, "Score")
	for i, v := range values {
		assert.False(t, v.IsMissing(), "第 %d 行仍为缺失", i)
	}
	assert.Equal(t, num(1.5), values[0])
	assert.Equal(t, txt("x"), values[2])
}

func TestReplaceWith_NonFiniteIsText(t *testing.T) {
	assert.Equal(t, num(0), ReplaceWith("0").Value)
	assert.Equal(t, txt("inf"), ReplaceWith("inf").Value)
	assert.Equal(t, txt("-Infinity"), ReplaceWith("-Infinity").Value)
}

func TestResolveMissingValues_DropRowCount(t *testing.T) {
	input := table(t,
		models.NewColumn("K", na, num(1), na, num(2), na),
		models.NewColumn("L", texts("a", "b", "c", "d", "e")...),
	)
	col, _ := input.Column("K")
	missing := col.CountMissing()

	out, err := ResolveMissingValues(input, []MissingValueRule{{Column: "K", Op: Drop()}})
	require.NoError(t, err)
	assert.Equal(t, input.NumRows()-missing, out.NumRows())
	for _, v := range column(t, out, "K") {
		assert.False(t, v.IsMissing())
	}
	assert.Equal(t, texts("b", "d"), column(t, out, "L"))
}

func TestResolveMissingValues_UnknownColumn(t *testing.T) {
	input := table(t, models.NewColumn("Age", num(1)))

	out, err := ResolveMissingValues(input, []MissingValueRule{{Column: "Salary", Op: Drop()}})
	assert.Nil(t, out)

	var notFound *models.ColumnNotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "Salary", notFound.Column)
	assert.Equal(t, StageMissingValues, notFound.Stage)
}

func TestParseMissingOp(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected MissingOp
		wantErr  bool
	}{
		{"数值替换", "replace missing value with 0", MissingOp{Kind: MissingReplace, Value: num(0)}, false},
		{"文本替换", "replace missing value with n/a", MissingOp{Kind: MissingReplace, Value: txt("n/a")}, false},
		{"nan 不视为数值", "replace missing value with NaN", MissingOp{Kind: MissingReplace, Value: txt("NaN")}, false},
		{"删除", "drop", Drop(), false},
		{"行方向后向填充", "fill with backward fill along rows", BackfillRows(), false},
		{"列方向后向填充", "fill with backward fill along columns", BackfillColumns(), false},
		{"未知操作", "interpolate", MissingOp{}, true},
		{"大小写敏感", "Drop", MissingOp{}, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			op, err := ParseMissingOp(tc.input)
			if tc.wantErr {
				var cfgErr *models.ConfigError
				assert.True(t, errors.As(err, &cfgErr))
				assert.Equal(t, models.ErrorTypeConfig, models.ErrorTypeOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, op)
		})
	}
}

func TestNormalizeDates(t *testing.T) {
	input := table(t,
		models.NewColumn("Date", txt("2023-01-15"), txt("01/20/2023"), txt("not a date"), na, txt("2023-02-03T10:00:00Z")),
		models.NewColumn("Other", texts("a", "b", "c", "d", "e")...),
	)

	out, err := NormalizeDates(input, []string{"Date"})
	require.NoError(t, err)
	assert.Equal(t,
		[]models.Cell{txt("2023-01-15"), txt("2023-01-20"), na, na, txt("2023-02-03")},
		column(t, out, "Date"))
	assert.Equal(t, column(t, input, "Other"), column(t, out, "Other"))

	t.Run("幂等", func(t *testing.T) {
		again, err := NormalizeDates(out, []string{"Date"})
		require.NoError(t, err)
		assert.True(t, again.Equal(out))
	})

	t.Run("列不存在", func(t *testing.T) {
		_, err := NormalizeDates(input, []string{"Missing"})
		var notFound *models.ColumnNotFoundError
		require.True(t, errors.As(err, &notFound))
		assert.Equal(t, StageParseDate, notFound.Stage)
	})
}

func TestParseDate(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
		ok       bool
	}{
		{"规范格式", "2024-03-01", "2024-03-01", true},
		{"斜杠格式", "2024/03/01", "2024-03-01", true},
		{"带时间", "2024-03-01 12:30:00", "2024-03-01", true},
		{"月份名称", "March 1, 2024", "2024-03-01", true},
		{"首尾空白", "  2024-03-01 ", "2024-03-01", true},
		{"月在前", "05/13/2024", "2024-05-13", true},
		{"月份越界时按日在前", "13/05/2024", "2024-05-13", true},
		{"两种顺序都无效", "13/13/2024", "", false},
		{"空字符串", "", "", false},
		{"无效日期", "not a date", "", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			parsed, ok := ParseDate(tc.input)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.Equal(t, tc.expected, parsed.Format(CanonicalDateLayout))
			}
		})
	}
}

func TestNormalizeText(t *testing.T) {
	input := table(t,
		models.NewColumn("Name", texts(" John ", "JANE", "\tBob\n")...),
		models.NewColumn("Age", num(25), na, num(35)),
	)

	t.Run("全部文本列", func(t *testing.T) {
		out, err := NormalizeText(input, CleanAll())
		require.NoError(t, err)
		assert.Equal(t, texts("john", "jane", "bob"), column(t, out, "Name"))
		assert.Equal(t, column(t, input, "Age"), column(t, out, "Age"), "数值列不属于文本列")
	})

	t.Run("显式列先转为文本", func(t *testing.T) {
		out, err := NormalizeText(input, CleanColumns("Age"))
		require.NoError(t, err)
		assert.Equal(t, texts("25", "nan", "35"), column(t, out, "Age"))
		assert.Equal(t, column(t, input, "Name"), column(t, out, "Name"))
	})

	t.Run("行数列数不变", func(t *testing.T) {
		out, err := NormalizeText(input, CleanColumns("Name", "Age"))
		require.NoError(t, err)
		assert.Equal(t, input.NumRows(), out.NumRows())
		assert.Equal(t, input.ColumnNames(), out.ColumnNames())
		for _, v := range column(t, out, "Name") {
			s, _ := v.Str()
			assert.Equal(t, strings.TrimSpace(s), s)
			assert.Equal(t, strings.ToLower(s), s)
		}
	})

	t.Run("列不存在", func(t *testing.T) {
		_, err := NormalizeText(input, CleanColumns("Email"))
		var notFound *models.ColumnNotFoundError
		require.True(t, errors.As(err, &notFound))
		assert.Equal(t, StageClean, notFound.Stage)
	})
}

func TestDemojize(t *testing.T) {
	out := Demojize("great 😀 day")
	assert.False(t, gomoji.ContainsEmoji(out))
	assert.True(t, strings.HasPrefix(out, "great :"))
	assert.True(t, strings.HasSuffix(out, ": day"))

	assert.Equal(t, "plain text", Demojize("plain text"))
}

func TestExplodeColumns(t *testing.T) {
	t.Run("单列展开", func(t *testing.T) {
		input := table(t,
			models.NewColumn("Name", texts("a,b", "c")...),
			models.NewColumn("ID", num(1), num(2)),
		)
		out, err := ExplodeColumns(input, []ExplodeRule{{Column: "Name", Separator: ","}})
		require.NoError(t, err)
		assert.Equal(t, 3, out.NumRows())
		assert.Equal(t, texts("a", "b", "c"), column(t, out, "Name"))
		assert.Equal(t, []models.Cell{num(1), num(1), num(2)}, column(t, out, "ID"))
	})

	t.Run("多条规则叠加", func(t *testing.T) {
		input := table(t,
			models.NewColumn("A", texts("x|y")...),
			models.NewColumn("B", texts("1;2")...),
		)
		out, err := ExplodeColumns(input, []ExplodeRule{
			{Column: "A", Separator: "|"},
			{Column: "B", Separator: ";"},
		})
		require.NoError(t, err)
		assert.Equal(t, 4, out.NumRows())
		assert.Equal(t, texts("x", "x", "y", "y"), column(t, out, "A"))
		assert.Equal(t, texts("1", "2", "1", "2"), column(t, out, "B"))
	})

	t.Run("缺失和单段单元格原样保留", func(t *testing.T) {
		input := table(t, models.NewColumn("V", na, num(5), txt("p-q")))
		out, err := ExplodeColumns(input, []ExplodeRule{{Column: "V", Separator: "-"}})
		require.NoError(t, err)
		assert.Equal(t, []models.Cell{na, num(5), txt("p"), txt("q")}, column(t, out, "V"))
	})

	t.Run("数值单元格不按文本形式拆分", func(t *testing.T) {
		input := table(t,
			models.NewColumn("V", num(1.5), num(-2), txt("3.5")),
			models.NewColumn("ID", num(1), num(2), num(3)),
		)
		out, err := ExplodeColumns(input, []ExplodeRule{{Column: "V", Separator: "."}})
		require.NoError(t, err)
		assert.Equal(t, []models.Cell{num(1.5), num(-2), txt("3"), txt("5")}, column(t, out, "V"))
		assert.Equal(t, []models.Cell{num(1), num(2), num(3), num(3)}, column(t, out, "ID"))

		out, err = ExplodeColumns(input, []ExplodeRule{{Column: "V", Separator: "-"}})
		require.NoError(t, err)
		assert.Equal(t, 3, out.NumRows(), "负数不因减号被拆分")
	})

	t.Run("行数等于各行分段数之和", func(t *testing.T) {
		values := texts("a;b;c", "", "d", "e;;f")
		input := table(t, models.NewColumn("V", values...))
		out, err := ExplodeColumns(input, []ExplodeRule{{Column: "V", Separator: ";"}})
		require.NoError(t, err)

		expected := 0
		for _, v := range values {
			s, _ := v.Str()
			parts := len(strings.Split(s, ";"))
			if parts < 1 {
				parts = 1
			}
			expected += parts
		}
		assert.Equal(t, expected, out.NumRows())
	})

	t.Run("空分隔符", func(t *testing.T) {
		input := table(t, models.NewColumn("V", texts("a")...))
		_, err := ExplodeColumns(input, []ExplodeRule{{Column: "V", Separator: ""}})
		assert.Equal(t, models.ErrorTypeConfig, models.ErrorTypeOf(err))
	})

	t.Run("列不存在", func(t *testing.T) {
		input := table(t, models.NewColumn("V", texts("a")...))
		_, err := ExplodeColumns(input, []ExplodeRule{{Column: "W", Separator: ","}})
		var notFound *models.ColumnNotFoundError
		require.True(t, errors.As(err, &notFound))
		assert.Equal(t, StageExplode, notFound.Stage)
	})
}

func TestDropDuplicates(t *testing.T) {
	input := table(t,
		models.NewColumn("A", num(1), num(1), txt("1"), na, na, num(2)),
		models.NewColumn("B", texts("x", "x", "x", "y", "y", "z")...),
	)

	out := DropDuplicates(input)
	assert.Equal(t, []models.Cell{num(1), txt("1"), na, num(2)}, column(t, out, "A"))
	assert.Equal(t, texts("x", "x", "y", "z"), column(t, out, "B"))

	seen := map[string]bool{}
	for i := 0; i < out.NumRows(); i++ {
		key := out.RowKey(i)
		assert.False(t, seen[key], "第 %d 行重复", i)
		seen[key] = true
	}

	assert.True(t, DropDuplicates(out).Equal(out), "去重应幂等")
}

// recordingTransformer 记录输入并返回固定偏移
type recordingTransformer struct {
	inputs [][]float64
	err    error
}

func (r *recordingTransformer) Transform(values []float64) ([]float64, error) {
	r.inputs = append(r.inputs, append([]float64(nil), values...))
	if r.err != nil {
		return nil, r.err
	}
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = v + 100
	}
	return out, nil
}

func TestNormalizeScaling(t *testing.T) {
	t.Run("零变一、负数取绝对值、缺失保留", func(t *testing.T) {
		input := table(t,
			models.NewColumn("N", num(0), num(-2), num(3), na),
			models.NewColumn("S", texts("a", "b", "c", "d")...),
		)
		rec := &recordingTransformer{}

		out, warnings := NormalizeScaling(input, rec)
		assert.Empty(t, warnings)
		require.Len(t, rec.inputs, 1)
		assert.Equal(t, []float64{1, 2, 3}, rec.inputs[0])
		assert.Equal(t, []models.Cell{num(101), num(102), num(103), na}, column(t, out, "N"))
		assert.Equal(t, column(t, input, "S"), column(t, out, "S"))
	})

	t.Run("变换失败降级为警告", func(t *testing.T) {
		input := table(t,
			models.NewColumn("N", num(1), num(2)),
			models.NewColumn("M", num(3), num(4)),
		)
		rec := &recordingTransformer{err: errors.New("boom")}

		out, warnings := NormalizeScaling(input, rec)
		require.Len(t, warnings, 2)
		assert.Equal(t, "N", warnings[0].Column)
		assert.Equal(t, models.ErrorTypeTransform, models.ErrorTypeOf(warnings[0]))
		assert.True(t, out.Equal(input))
	})

	t.Run("Box-Cox 单值列失败", func(t *testing.T) {
		input := table(t,
			models.NewColumn("One", num(7)),
		)
		out, warnings := NormalizeScaling(input, nil)
		require.Len(t, warnings, 1)
		assert.True(t, out.Equal(input))
	})
}

func TestBoxCox(t *testing.T) {
	bc := NewBoxCox()

	t.Run("结果有限且保持单调", func(t *testing.T) {
		values := []float64{1, 2, 3, 5, 8, 13, 21}
		out, err := bc.Transform(values)
		require.NoError(t, err)
		require.Len(t, out, len(values))
		for i := 1; i < len(out); i++ {
			assert.Greater(t, out[i], out[i-1])
		}
	})

	t.Run("常数输入", func(t *testing.T) {
		_, err := bc.Transform([]float64{2, 2, 2})
		assert.Error(t, err)
	})

	t.Run("非正数输入", func(t *testing.T) {
		_, err := bc.Transform([]float64{1, 0, 3})
		assert.Error(t, err)
	})

	t.Run("数据量不足", func(t *testing.T) {
		_, err := bc.Transform([]float64{4})
		assert.Error(t, err)
	})
}
