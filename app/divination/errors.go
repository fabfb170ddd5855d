// Package divination 占卜流水线与解读文档的并发更新协调
package divination

import "fmt"

// Stage 流水线阶段
type Stage string

const (
	StageValidate    Stage = "validate"
	StageLoadContext Stage = "load_context"
	StageDraw        Stage = "draw"
	StageInterpret   Stage = "interpret"
	StagePersist     Stage = "persist"
)

// ValidationError 缺少必填输入，对本次流水线运行是致命的，不重试
type ValidationError struct {
	Field string
}

// Error 实现 error 接口
func (e *ValidationError) Error() string {
	return fmt.Sprintf("divination: missing or invalid field: %s", e.Field)
}

// PipelineError 流水线失败的终态，记录失败发生的阶段
//
// 失败的运行没有可恢复的中间态，只能从 Validate 重新开始。
type PipelineError struct {
	Stage Stage
	Err   error
}

// Error 实现 error 接口
func (e *PipelineError) Error() string {
	return fmt.Sprintf("divination: pipeline failed at stage %s: %v", e.Stage, e.Err)
}

// Unwrap 返回底层错误
func (e *PipelineError) Unwrap() error {
	return e.Err
}
