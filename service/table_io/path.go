/*
 * @module service/table_io/path
 * @description 外部请求提供的文件路径解析，限制在数据目录内
 * @architecture 基础设施层 - 加载器的路径守卫
 * @stateFlow 请求路径 -> 拼接数据目录 -> 解析符号链接 -> 校验仍在目录内
 * @rules 未配置数据目录时拒绝所有路径；越出目录（..、绝对路径、符号链接）返回 InvalidInputError
 * @dependencies path/filepath
 * @refs loader.go, api/controllers/pipeline_controller.go
 */

package table_io

import (
	"path/filepath"
	"strings"

	"datascrub/service/models"
)

// ResolvePath 将 path 解析到 root 下的绝对路径；相对路径相对 root
func ResolvePath(root, path string) (string, error) {
	if strings.TrimSpace(root) == "" {
		return "", &models.InvalidInputError{Input: path, Reason: "未配置数据目录，不接受文件路径"}
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", &models.InvalidInputError{Input: path, Reason: "数据目录无效"}
	}
	absRoot = evalExisting(absRoot)

	candidate := path
	if !filepath.IsAbs(candidate) {
		candidate = filepath.Join(absRoot, candidate)
	}
	candidate = evalExisting(filepath.Clean(candidate))

	rel, err := filepath.Rel(absRoot, candidate)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", &models.InvalidInputError{Input: path, Reason: "路径不在数据目录内"}
	}
	return candidate, nil
}

// evalExisting 解析符号链接；文件不存在时解析其所在目录
func evalExisting(path string) string {
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		return resolved
	}
	if dir, err := filepath.EvalSymlinks(filepath.Dir(path)); err == nil {
		return filepath.Join(dir, filepath.Base(path))
	}
	return path
}
