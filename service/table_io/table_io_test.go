package table_io

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"datascrub/service/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/simplifiedchinese"
)

func writeTemp(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func values(t *testing.T, tbl *models.Table, name string) []models.Cell {
	t.Helper()
	col, ok := tbl.Column(name)
	require.True(t, ok, "列 %s 不存在", name)
	return col.Values
}

func TestLoad_CSV(t *testing.T) {
	path := writeTemp(t, "people.CSV", []byte("Name,Age,City\n John ,25,beijing\nJane,,NA\nBob,35.5,shanghai\n"))

	tbl, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Name", "Age", "City"}, tbl.ColumnNames())
	assert.Equal(t, 3, tbl.NumRows())
	assert.Equal(t, []models.Cell{models.Text(" John "), models.Text("Jane"), models.Text("Bob")}, values(t, tbl, "Name"))
	assert.Equal(t, []models.Cell{models.Number(25), models.Missing(), models.Number(35.5)}, values(t, tbl, "Age"))
	assert.Equal(t, []models.Cell{models.Text("beijing"), models.Missing(), models.Text("shanghai")}, values(t, tbl, "City"))
}

func TestLoad_CSVMixedColumnStaysText(t *testing.T) {
	path := writeTemp(t, "mixed.csv", []byte("Code\n1\nA2\n3\n"))

	tbl, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []models.Cell{models.Text("1"), models.Text("A2"), models.Text("3")}, values(t, tbl, "Code"))
}

func TestReadCSV_NonFiniteStaysText(t *testing.T) {
	tbl, err := ReadCSV(strings.NewReader("A,B\ninf,x\n1,y\n-Infinity,z\n"))
	require.NoError(t, err)
	assert.Equal(t, []models.Cell{models.Text("inf"), models.Text("1"), models.Text("-Infinity")}, values(t, tbl, "A"))

	data, err := json.Marshal(tbl)
	require.NoError(t, err, "加载结果必须能编码为 JSON")

	var decoded models.Table
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, tbl.Equal(&decoded))
}

func TestLoad_CSVEncodings(t *testing.T) {
	t.Run("去除 BOM", func(t *testing.T) {
		path := writeTemp(t, "bom.csv", append([]byte{0xEF, 0xBB, 0xBF}, []byte("Name\nx\n")...))
		tbl, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, []string{"Name"}, tbl.ColumnNames())
	})

	t.Run("自动识别 GBK", func(t *testing.T) {
		gbk, err := simplifiedchinese.GBK.NewEncoder().Bytes([]byte("城市\n北京\n"))
		require.NoError(t, err)
		path := writeTemp(t, "gbk.csv", gbk)

		tbl, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, []models.Cell{models.Text("北京")}, values(t, tbl, "城市"))
	})

	t.Run("显式 latin1", func(t *testing.T) {
		path := writeTemp(t, "latin1.csv", []byte("Name\ncaf\xe9\n"))
		tbl, err := Load(path, WithEncoding("LATIN1"))
		require.NoError(t, err)
		assert.Equal(t, []models.Cell{models.Text("café")}, values(t, tbl, "Name"))
	})

	t.Run("不支持的编码", func(t *testing.T) {
		path := writeTemp(t, "x.csv", []byte("Name\nx\n"))
		_, err := Load(path, WithEncoding("ebcdic"))
		assert.Equal(t, models.ErrorTypeLoad, models.ErrorTypeOf(err))
	})
}

func TestLoad_Errors(t *testing.T) {
	testCases := []struct {
		name     string
		input    func(t *testing.T) interface{}
		expected models.ErrorType
	}{
		{
			name:     "不支持的扩展名",
			input:    func(t *testing.T) interface{} { return writeTemp(t, "data.json", []byte("{}")) },
			expected: models.ErrorTypeUnsupportedFormat,
		},
		{
			name:     "文件不存在",
			input:    func(t *testing.T) interface{} { return filepath.Join(t.TempDir(), "absent.csv") },
			expected: models.ErrorTypeLoad,
		},
		{
			name:     "表头重复",
			input:    func(t *testing.T) interface{} { return writeTemp(t, "dup.csv", []byte("A,A\n1,2\n")) },
			expected: models.ErrorTypeLoad,
		},
		{
			name:     "字段数超过表头",
			input:    func(t *testing.T) interface{} { return writeTemp(t, "wide.csv", []byte("A\n1,2\n")) },
			expected: models.ErrorTypeLoad,
		},
		{
			name:     "无效输入类型",
			input:    func(t *testing.T) interface{} { return 42 },
			expected: models.ErrorTypeInvalidInput,
		},
		{
			name:     "空表指针",
			input:    func(t *testing.T) interface{} { return (*models.Table)(nil) },
			expected: models.ErrorTypeInvalidInput,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tbl, err := Load(tc.input(t))
			assert.Nil(t, tbl)
			assert.Equal(t, tc.expected, models.ErrorTypeOf(err))
		})
	}
}

func TestLoad_TableIsCloned(t *testing.T) {
	src := models.MustTable(models.NewColumn("A", models.Number(1)))

	tbl, err := Load(src)
	require.NoError(t, err)
	assert.True(t, tbl.Equal(src))
	assert.NotSame(t, src, tbl)
}

func TestLoad_XLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.xlsx")
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"Name", "Score"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"a", 1.5}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]interface{}{"b"}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	tbl, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []models.Cell{models.Text("a"), models.Text("b")}, values(t, tbl, "Name"))
	assert.Equal(t, []models.Cell{models.Number(1.5), models.Missing()}, values(t, tbl, "Score"))
}

func TestWriteCSV(t *testing.T) {
	tbl := models.MustTable(
		models.NewColumn("Name", models.Text("a,b"), models.Text("c")),
		models.NewColumn("Age", models.Number(25), models.Missing()),
	)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, tbl))
	assert.Equal(t, "Name,Age\n\"a,b\",25\nc,\n", buf.String())

	reloaded, err := ReadCSV(strings.NewReader(buf.String()))
	require.NoError(t, err)
	assert.True(t, reloaded.Equal(tbl))
}

func TestWriteFile(t *testing.T) {
	tbl := models.MustTable(
		models.NewColumn("Name", models.Text("x"), models.Text("y")),
		models.NewColumn("N", models.Number(1), models.Number(2)),
	)

	for _, ext := range []string{".csv", ".xlsx"} {
		t.Run(ext, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "out"+ext)
			require.NoError(t, WriteFile(path, tbl))

			reloaded, err := Load(path)
			require.NoError(t, err)
			assert.True(t, reloaded.Equal(tbl))
		})
	}

	t.Run("不支持的扩展名", func(t *testing.T) {
		err := WriteFile(filepath.Join(t.TempDir(), "out.parquet"), tbl)
		var unsupported *models.UnsupportedFormatError
		assert.True(t, errors.As(err, &unsupported))
	})
}
