/*
 * @module testutil/test_helper
 * @description 测试工具和辅助函数
 * @architecture 测试基础设施 - 提供测试通用工具和数据工厂
 * @stateFlow 测试环境初始化 -> 测试数据创建 -> 测试执行 -> 清理资源
 * @rules 提供可重用的测试工具，确保测试环境的一致性
 * @dependencies gorm, sqlite, testify, time
 * @refs service/models
 */

package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"datascrub/service/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestDB 测试数据库
type TestDB struct {
	DB *gorm.DB
}

// NewTestDB 创建内存测试数据库并迁移运行记录表
func NewTestDB() *TestDB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		panic(fmt.Sprintf("failed to connect test database: %v", err))
	}

	// 内存库每个连接相互独立，固定为单连接
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(&models.PipelineRun{}); err != nil {
		panic(fmt.Sprintf("failed to migrate test database: %v", err))
	}

	return &TestDB{DB: db}
}

// CleanDB 清空数据
func (tdb *TestDB) CleanDB() {
	tdb.DB.Exec("DELETE FROM pipeline_runs")
}

// Close 关闭数据库连接
func (tdb *TestDB) Close() {
	if db, err := tdb.DB.DB(); err == nil {
		db.Close()
	}
}

// TestDataFactory 测试数据工厂
type TestDataFactory struct {
	DB *gorm.DB
}

// NewTestDataFactory 创建测试数据工厂
func NewTestDataFactory(db *gorm.DB) *TestDataFactory {
	return &TestDataFactory{DB: db}
}

// PipelineRunOption 运行记录选项
type PipelineRunOption func(*models.PipelineRun)

// CreatePipelineRun 创建测试运行记录
func (f *TestDataFactory) CreatePipelineRun(opts ...PipelineRunOption) *models.PipelineRun {
	now := time.Now()
	run := &models.PipelineRun{
		ID:            uuid.New().String(),
		Source:        "table",
		Trigger:       "api",
		Status:        models.PipelineRunStatusSuccess,
		InputRows:     3,
		InputColumns:  2,
		OutputRows:    3,
		OutputColumns: 2,
		Stages:        models.JSONBStringArray{"deduplicate"},
		Warnings:      models.JSONBStringArray{},
		Config:        models.JSONB{},
		StartedAt:     now,
		DurationMs:    1,
		CreatedAt:     now,
	}

	for _, opt := range opts {
		opt(run)
	}

	if err := f.DB.Create(run).Error; err != nil {
		panic(fmt.Sprintf("failed to create test pipeline run: %v", err))
	}
	return run
}

// PeopleTable 常用示例表：Name 带空白，Age 含缺失
func PeopleTable(t *testing.T) *models.Table {
	t.Helper()
	tbl, err := models.NewTable(
		models.NewColumn("Name", models.Text(" John "), models.Text(" Jane "), models.Text(" Bob ")),
		models.NewColumn("Age", models.Number(25), models.Missing(), models.Number(35)),
	)
	require.NoError(t, err)
	return tbl
}

// MockTranslator Mock翻译服务
type MockTranslator struct {
	mock.Mock
}

func (m *MockTranslator) Translate(ctx context.Context, text string) (string, error) {
	args := m.Called(ctx, text)
	return args.String(0), args.Error(1)
}

// HTTPTestHelper HTTP测试辅助工具
type HTTPTestHelper struct{}

// NewHTTPTestHelper 创建HTTP测试辅助工具
func NewHTTPTestHelper() *HTTPTestHelper {
	return &HTTPTestHelper{}
}

// CreateJSONRequest 创建JSON请求
func (h *HTTPTestHelper) CreateJSONRequest(method, url string, body interface{}) (*http.Request, error) {
	var reqBody io.Reader

	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return nil, err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return req, nil
}

// CreateRawRequest 用原始请求体创建请求，请求体不要求是合法 JSON
func (h *HTTPTestHelper) CreateRawRequest(method, url, body string) *http.Request {
	req := httptest.NewRequest(method, url, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// DecodeJSONResponse 校验状态码并解析响应体
func (h *HTTPTestHelper) DecodeJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, out interface{}) {
	t.Helper()
	assert.Equal(t, expectedStatus, w.Code, w.Body.String())
	if out != nil {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
	}
}
