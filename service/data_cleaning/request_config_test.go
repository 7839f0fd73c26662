package data_cleaning

import (
	"encoding/json"
	"testing"

	"datascrub/service/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseRequestConfig_JSON(t *testing.T) {
	body := `{
		"clean": ["Name", "City"],
		"missing_values": {"Zeta": "drop", "Alpha": "replace missing value with 1.5"},
		"perform_scaling_normalization": true,
		"explode": {"Tags": ","},
		"parse_date": ["Joined"],
		"translate_columns": {"Comment": false, "Title": true}
	}`

	var rc RequestConfig
	require.NoError(t, json.Unmarshal([]byte(body), &rc))

	cfg, err := ParseRequestConfig(rc)
	require.NoError(t, err)

	assert.Equal(t, CleanColumns("Name", "City"), cfg.Clean)
	assert.Equal(t, []MissingValueRule{
		{Column: "Zeta", Op: Drop()},
		{Column: "Alpha", Op: MissingOp{Kind: MissingReplace, Value: models.Number(1.5)}},
	}, cfg.MissingValues, "规则保持文档顺序")
	assert.True(t, cfg.ScalingNormalization)
	assert.Equal(t, []ExplodeRule{{Column: "Tags", Separator: ","}}, cfg.Explode)
	assert.Equal(t, []string{"Joined"}, cfg.ParseDate)
	assert.Equal(t, []TranslateRule{
		{Column: "Comment", Overwrite: false},
		{Column: "Title", Overwrite: true},
	}, cfg.TranslateColumns)
}

func TestParseRequestConfig_YAML(t *testing.T) {
	doc := `
clean: all
missing_values:
  Age: fill with backward fill along rows
explode:
  Name: "|"
translate_columns:
  Comment: "true"
`
	var rc RequestConfig
	require.NoError(t, yaml.Unmarshal([]byte(doc), &rc))

	cfg, err := ParseRequestConfig(rc)
	require.NoError(t, err)
	assert.Equal(t, CleanAll(), cfg.Clean)
	assert.Equal(t, []MissingValueRule{{Column: "Age", Op: BackfillRows()}}, cfg.MissingValues)
	assert.Equal(t, []ExplodeRule{{Column: "Name", Separator: "|"}}, cfg.Explode)
	assert.Equal(t, []TranslateRule{{Column: "Comment", Overwrite: true}}, cfg.TranslateColumns)
}

func TestParseRequestConfig_Empty(t *testing.T) {
	cfg, err := ParseRequestConfig(RequestConfig{})
	require.NoError(t, err)
	assert.False(t, cfg.Clean.Enabled())
	assert.Empty(t, cfg.MissingValues)
	assert.Empty(t, cfg.Explode)
	assert.Empty(t, cfg.ParseDate)
	assert.Empty(t, cfg.TranslateColumns)
	assert.False(t, cfg.ScalingNormalization)
}

func TestParseRequestConfig_Errors(t *testing.T) {
	testCases := []struct {
		name string
		body string
	}{
		{"无效的 clean 字符串", `{"clean":"some"}`},
		{"未知缺失值操作", `{"missing_values":{"Age":"mean"}}`},
		{"缺失值操作不是字符串", `{"missing_values":{"Age":0}}`},
		{"空分隔符", `{"explode":{"Name":""}}`},
		{"分隔符不是字符串", `{"explode":{"Name":1}}`},
		{"overwrite 不是布尔值", `{"translate_columns":{"Comment":"maybe"}}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var rc RequestConfig
			require.NoError(t, json.Unmarshal([]byte(tc.body), &rc))

			_, err := ParseRequestConfig(rc)
			var cfgErr *models.ConfigError
			assert.ErrorAs(t, err, &cfgErr)
		})
	}
}

func TestOrderedMap_JSONRoundTripKeepsOrder(t *testing.T) {
	var m OrderedMap
	require.NoError(t, json.Unmarshal([]byte(`{"b":1,"a":"x","c":true}`), &m))

	keys := make([]string, 0, len(m))
	for _, kv := range m {
		keys = append(keys, kv.Key)
	}
	assert.Equal(t, []string{"b", "a", "c"}, keys)

	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Equal(t, `{"b":1,"a":"x","c":true}`, string(data))
}

func TestRequestConfig_Snapshot(t *testing.T) {
	rc := RequestConfig{
		Clean:     CleanField{Value: "all"},
		ParseDate: []string{"Date"},
	}
	snapshot := rc.Snapshot()
	assert.Equal(t, "all", snapshot["clean"])
	assert.Equal(t, []interface{}{"Date"}, snapshot["parse_date"])
}
