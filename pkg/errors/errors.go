package errors

import (
	"errors"
	"fmt"
)

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")

// StoreError 存储层失败。Retryable 表示调用方重试可能成功（如乐观锁冲突）。
type StoreError struct {
	Op        string
	Err       error
	Retryable bool
}

// NewStoreError 包装存储错误；乐观锁冲突自动标记为可重试
func NewStoreError(op string, err error) *StoreError {
	return &StoreError{Op: op, Err: err, Retryable: errors.Is(err, ErrOptimisticLock)}
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("存储操作 %s 失败: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// IsStoreError 判断错误链中是否包含 StoreError
func IsStoreError(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}
