package util

import (
	"errors"
	"testing"
)

func TestNewError(t *testing.T) {
	err := NewError(ErrCodeInvalidParam, "测试错误")

	if err.Code != ErrCodeInvalidParam {
		t.Errorf("期望错误代码为 '%s'，实际为 '%s'", ErrCodeInvalidParam, err.Code)
	}

	if err.Message != "测试错误" {
		t.Errorf("期望错误消息为 '测试错误'，实际为 '%s'", err.Message)
	}
}

func TestWrapError(t *testing.T) {
	originalErr := errors.New("原始错误")
	wrappedErr := WrapError(ErrCodeNetworkFailed, "网络请求失败", originalErr)

	if wrappedErr.Code != ErrCodeNetworkFailed {
		t.Errorf("期望错误代码为 '%s'，实际为 '%s'", ErrCodeNetworkFailed, wrappedErr.Code)
	}

	if wrappedErr.Cause != originalErr {
		t.Error("期望包装错误包含原始错误")
	}

	if wrappedErr.Unwrap() != originalErr {
		t.Error("期望Unwrap()返回原始错误")
	}
}

func TestIsErrorCode(t *testing.T) {
	appErr := NewError(ErrCodeConfigInvalid, "配置无效")
	normalErr := errors.New("普通错误")

	if !IsErrorCode(appErr, ErrCodeConfigInvalid) {
		t.Error("期望IsErrorCode返回true")
	}

	if IsErrorCode(normalErr, ErrCodeConfigInvalid) {
		t.Error("期望IsErrorCode对普通错误返回false")
	}

	if IsErrorCode(appErr, ErrCodeNetworkFailed) {
		t.Error("期望IsErrorCode对不匹配的错误代码返回false")
	}
}

func TestToolErrors(t *testing.T) {
	notFound := NewToolNotFoundError("get_entry_details")
	if notFound.Code != ErrCodeToolNotFound {
		t.Errorf("期望错误代码为 '%s'，实际为 '%s'", ErrCodeToolNotFound, notFound.Code)
	}

	cause := errors.New("查询失败")
	execErr := NewToolExecutionError("get_entry_details", cause)
	if execErr.Code != ErrCodeToolExecutionFailed {
		t.Errorf("期望错误代码为 '%s'，实际为 '%s'", ErrCodeToolExecutionFailed, execErr.Code)
	}
	if execErr.Unwrap() != cause {
		t.Error("期望Unwrap()返回原始错误")
	}
}
