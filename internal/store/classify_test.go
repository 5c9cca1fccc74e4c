package store

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	syncerrors "banksync-service/pkg/errors"

	"gorm.io/gorm"
)

func TestClassifyNotFound(t *testing.T) {
	err := classifyError(gorm.ErrRecordNotFound, "lookup")
	if err.Code != syncerrors.CodeRecordNotFound {
		t.Errorf("Expected record_not_found, got %s", err.Code)
	}

	wrapped := fmt.Errorf("query failed: %w", gorm.ErrRecordNotFound)
	err = classifyError(wrapped, "lookup")
	if err.Code != syncerrors.CodeRecordNotFound {
		t.Errorf("Expected record_not_found for wrapped error, got %s", err.Code)
	}
}

func TestClassifyUnavailable(t *testing.T) {
	cases := []error{
		context.DeadlineExceeded,
		stderrors.New("dial tcp 10.0.0.5:1433: connection refused"),
		stderrors.New("read tcp: i/o timeout"),
		stderrors.New("Login error: mssql: login failed"),
		gorm.ErrInvalidDB,
	}

	for _, cause := range cases {
		err := classifyError(cause, "insert")
		if err.Code != syncerrors.CodeStorageUnavailable {
			t.Errorf("classifyError(%v): expected storage_unavailable, got %s", cause, err.Code)
		}
	}
}

func TestClassifyOtherErrors(t *testing.T) {
	err := classifyError(stderrors.New("string or binary data would be truncated"), "insert")
	if err.Code != syncerrors.CodeWriteFailed {
		t.Errorf("Expected write_failed, got %s", err.Code)
	}
}

func TestClassifyNil(t *testing.T) {
	if classifyError(nil, "noop") != nil {
		t.Error("Expected nil for nil error")
	}
}
