package scheduler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"datascrub/service/data_cleaning"
	"datascrub/service/models"
	"datascrub/service/table_io"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockRunner Mock清洗运行
type MockRunner struct {
	mock.Mock
}

func (m *MockRunner) RunFile(ctx context.Context, path string, cfg data_cleaning.RequestConfig, trigger string) (*models.Table, error) {
	args := m.Called(ctx, path, cfg, trigger)
	if t, ok := args.Get(0).(*models.Table); ok {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}

const jobsYAML = `
jobs:
  - name: nightly-people
    schedule: "0 2 * * *"
    input: /data/people.csv
    output: /data/people_clean.csv
    config:
      clean: all
      missing_values:
        Age: replace missing value with 0
  - name: hourly-orders
    schedule: "@every 1h"
    input: /data/orders.xlsx
`

func TestParseJobs(t *testing.T) {
	jobs, err := ParseJobs([]byte(jobsYAML))
	require.NoError(t, err)
	require.Len(t, jobs, 2)

	assert.Equal(t, "nightly-people", jobs[0].Name)
	assert.Equal(t, "all", jobs[0].Config.Clean.Value)
	op, ok := jobs[0].Config.MissingValues.Get("Age")
	require.True(t, ok)
	assert.Equal(t, "replace missing value with 0", op)
	assert.Empty(t, jobs[1].Output)
}

func TestParseJobs_Invalid(t *testing.T) {
	testCases := []struct {
		name string
		yaml string
	}{
		{name: "缺少名称", yaml: "jobs:\n  - schedule: '@daily'\n    input: a.csv\n"},
		{name: "缺少输入", yaml: "jobs:\n  - name: a\n    schedule: '@daily'\n"},
		{name: "调度表达式无效", yaml: "jobs:\n  - name: a\n    schedule: every day\n    input: a.csv\n"},
		{name: "不接受秒级表达式", yaml: "jobs:\n  - name: a\n    schedule: '0 0 2 * * *'\n    input: a.csv\n"},
		{name: "任务名称重复", yaml: "jobs:\n  - {name: a, schedule: '@daily', input: a.csv}\n  - {name: a, schedule: '@hourly', input: b.csv}\n"},
		{name: "清洗操作无效", yaml: "jobs:\n  - name: a\n    schedule: '@daily'\n    input: a.csv\n    config:\n      missing_values:\n        Age: interpolate\n"},
		{name: "YAML 格式错误", yaml: "jobs: [\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseJobs([]byte(tc.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadJobs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.yaml")
	require.NoError(t, os.WriteFile(path, []byte(jobsYAML), 0o644))

	jobs, err := LoadJobs(path)
	require.NoError(t, err)
	assert.Len(t, jobs, 2)

	_, err = LoadJobs(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestJobScheduler_AddRemove(t *testing.T) {
	s := NewJobScheduler(&MockRunner{}, nil)
	job := Job{Name: "a", Schedule: "@daily", Input: "a.csv"}

	require.NoError(t, s.AddJob(job))
	assert.Error(t, s.AddJob(job), "同名任务不能重复注册")
	assert.Equal(t, []string{"a"}, s.Jobs())

	assert.True(t, s.RemoveJob("a"))
	assert.False(t, s.RemoveJob("a"))
	assert.Empty(t, s.Jobs())

	assert.Error(t, s.AddJob(Job{Name: "b", Schedule: "bogus", Input: "b.csv"}))
}

func TestJobScheduler_RunJob(t *testing.T) {
	result := models.MustTable(
		models.NewColumn("Name", models.Text("john"), models.Text("jane")),
		models.NewColumn("Age", models.Number(25), models.Number(0)),
	)

	t.Run("写出结果", func(t *testing.T) {
		output := filepath.Join(t.TempDir(), "out.csv")
		job := Job{Name: "people", Schedule: "@daily", Input: "people.csv", Output: output}

		runner := &MockRunner{}
		runner.On("RunFile", mock.Anything, "people.csv", job.Config, "scheduler:people").Return(result, nil).Once()

		s := NewJobScheduler(runner, nil)
		require.NoError(t, s.RunJob(context.Background(), job))
		runner.AssertExpectations(t)

		written, err := table_io.Load(output)
		require.NoError(t, err)
		assert.True(t, result.Equal(written))
	})

	t.Run("未设置输出时不写文件", func(t *testing.T) {
		job := Job{Name: "people", Schedule: "@daily", Input: "people.csv"}
		runner := &MockRunner{}
		runner.On("RunFile", mock.Anything, "people.csv", job.Config, "scheduler:people").Return(result, nil).Once()

		require.NoError(t, NewJobScheduler(runner, nil).RunJob(context.Background(), job))
		runner.AssertExpectations(t)
	})

	t.Run("运行失败", func(t *testing.T) {
		job := Job{Name: "people", Schedule: "@daily", Input: "people.csv", Output: filepath.Join(t.TempDir(), "out.csv")}
		runner := &MockRunner{}
		runner.On("RunFile", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, errors.New("load failed")).Once()

		err := NewJobScheduler(runner, nil).RunJob(context.Background(), job)
		assert.EqualError(t, err, "load failed")
		_, statErr := os.Stat(job.Output)
		assert.True(t, os.IsNotExist(statErr))
	})

	t.Run("同名任务执行中时跳过", func(t *testing.T) {
		s := NewJobScheduler(&MockRunner{}, nil)
		require.True(t, s.acquire("people"))
		defer s.release("people")

		err := s.RunJob(context.Background(), Job{Name: "people", Input: "people.csv"})
		assert.ErrorIs(t, err, ErrJobRunning)
	})
}

// fakeLock 固定返回是否获得锁
type fakeLock struct {
	acquired bool
	unlocked int
}

func (l *fakeLock) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return l.acquired, nil
}

func (l *fakeLock) Unlock(ctx context.Context, key string) error {
	l.unlocked++
	return nil
}

func (l *fakeLock) Refresh(ctx context.Context, key string, ttl time.Duration) error { return nil }

func TestJobScheduler_RunJobWithLock(t *testing.T) {
	job := Job{Name: "people", Schedule: "@daily", Input: "people.csv"}
	result := models.MustTable(models.NewColumn("A", models.Number(1)))

	t.Run("获得锁时执行", func(t *testing.T) {
		lock := &fakeLock{acquired: true}
		runner := &MockRunner{}
		runner.On("RunFile", mock.Anything, "people.csv", job.Config, "scheduler:people").Return(result, nil).Once()

		s := NewJobScheduler(runner, nil, WithLock(lock, time.Minute))
		require.NoError(t, s.RunJob(context.Background(), job))
		runner.AssertExpectations(t)
		assert.Equal(t, 1, lock.unlocked)
	})

	t.Run("其他实例持有锁时跳过", func(t *testing.T) {
		runner := &MockRunner{}
		s := NewJobScheduler(runner, nil, WithLock(&fakeLock{acquired: false}, 0))
		require.NoError(t, s.RunJob(context.Background(), job))
		runner.AssertNotCalled(t, "RunFile", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		assert.Equal(t, DefaultLockTTL, s.lockTTL)
	})
}

func TestJobScheduler_StartStop(t *testing.T) {
	s := NewJobScheduler(&MockRunner{}, nil)
	require.NoError(t, s.AddJob(Job{Name: "a", Schedule: "@every 1h", Input: "a.csv"}))
	s.Start()
	s.Stop()
	assert.Error(t, s.ctx.Err(), "停止后上下文被取消")
}
