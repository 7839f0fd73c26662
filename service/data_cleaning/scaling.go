/*
 * @module service/data_cleaning/scaling
 * @description 数值列的 Box-Cox 幂变换
 * @architecture 处理层 - perform_scaling_normalization 阶段
 * @stateFlow 数值列 -> 转为正数 -> 最大似然估计 lambda -> 变换 -> 新表
 * @rules 0 替换为 1、负数取绝对值后再变换；失败的列保持原值并产生告警
 * @dependencies math
 * @refs pipeline.go
 */

package data_cleaning

import (
	"errors"
	"fmt"
	"math"

	"datascrub/service/models"
)

// PowerTransformer 幂变换，输入严格为正
type PowerTransformer interface {
	Transform(values []float64) ([]float64, error)
}

// BoxCox Box-Cox 变换，lambda 按最大似然在 [MinLambda, MaxLambda] 上估计
type BoxCox struct {
	MinLambda float64
	MaxLambda float64
}

// NewBoxCox 默认搜索区间 [-5, 5]
func NewBoxCox() *BoxCox {
	return &BoxCox{MinLambda: -5, MaxLambda: 5}
}

var (
	errTooFewValues  = errors.New("数据量不足，至少需要两个数值")
	errConstantInput = errors.New("数据不能为常数")
)

// Transform 估计 lambda 并变换
func (b *BoxCox) Transform(values []float64) ([]float64, error) {
	if len(values) < 2 {
		return nil, errTooFewValues
	}
	logSum := 0.0
	constant := true
	for _, v := range values {
		if v <= 0 || math.IsInf(v, 0) {
			return nil, fmt.Errorf("数据必须为有限正数，实际为 %v", v)
		}
		if v != values[0] {
			constant = false
		}
		logSum += math.Log(v)
	}
	if constant {
		return nil, errConstantInput
	}

	llf := func(lambda float64) float64 {
		y := boxCox(values, lambda)
		return (lambda-1)*logSum - float64(len(values))/2*math.Log(variance(y))
	}
	lambda := maximize(llf, b.MinLambda, b.MaxLambda)

	out := boxCox(values, lambda)
	for _, v := range out {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("lambda=%.4f 时变换结果溢出", lambda)
		}
	}
	return out, nil
}

func boxCox(values []float64, lambda float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		if math.Abs(lambda) < 1e-12 {
			out[i] = math.Log(v)
		} else {
			out[i] = (math.Pow(v, lambda) - 1) / lambda
		}
	}
	return out
}

func variance(values []float64) float64 {
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	sum := 0.0
	for _, v := range values {
		sum += (v - mean) * (v - mean)
	}
	return sum / float64(len(values))
}

// maximize 黄金分割搜索单峰函数最大值
func maximize(f func(float64) float64, lo, hi float64) float64 {
	const tol = 1e-6
	ratio := (math.Sqrt(5) - 1) / 2
	a, b := lo, hi
	c := b - ratio*(b-a)
	d := a + ratio*(b-a)
	fc, fd := f(c), f(d)
	for b-a > tol {
		if fc > fd {
			b, d, fd = d, c, fc
			c = b - ratio*(b-a)
			fc = f(c)
		} else {
			a, c, fc = c, d, fd
			d = a + ratio*(b-a)
			fd = f(d)
		}
	}
	return (a + b) / 2
}

// NormalizeScaling 对每个数值列：0 替换为 1、负数取绝对值，再做幂变换
// 实验性阶段：单列失败时该列保持不变并返回警告，其他列不受影响
func NormalizeScaling(t *models.Table, transformer PowerTransformer) (*models.Table, []*models.TransformError) {
	if transformer == nil {
		transformer = NewBoxCox()
	}

	current := t
	var warnings []*models.TransformError
	for _, col := range t.Columns() {
		if !col.IsNumeric() {
			continue
		}

		rows := make([]int, 0, col.Len())
		positives := make([]float64, 0, col.Len())
		for i, v := range col.Values {
			f, ok := v.Float()
			if !ok {
				continue
			}
			if f == 0 {
				f = 1
			}
			rows = append(rows, i)
			positives = append(positives, math.Abs(f))
		}

		transformed, err := transformer.Transform(positives)
		if err == nil && len(transformed) != len(positives) {
			err = fmt.Errorf("变换结果长度 %d 与输入长度 %d 不一致", len(transformed), len(positives))
		}
		if err != nil {
			warnings = append(warnings, &models.TransformError{Column: col.Name, Err: err})
			continue
		}

		for i, row := range rows {
			col.Values[row] = models.Number(transformed[i])
		}
		next, err := current.WithColumn(col)
		if err != nil {
			warnings = append(warnings, &models.TransformError{Column: col.Name, Err: err})
			continue
		}
		current = next
	}
	return current, warnings
}
