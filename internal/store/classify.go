package store

import (
	"context"
	"net"
	"strings"

	syncerrors "banksync-service/pkg/errors"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// classifyError maps a raw database error onto the service taxonomy. The
// split that matters operationally is unavailability (timeout, refused
// connection, dead pool) versus everything else: the importer aborts the
// remainder of a batch on the former and merely counts the latter.
func classifyError(err error, operation string) *syncerrors.SyncError {
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return syncerrors.StorageError(syncerrors.CodeRecordNotFound, operation, err)
	}

	if isUnavailable(err) {
		return syncerrors.StorageError(syncerrors.CodeStorageUnavailable, operation, err)
	}

	return syncerrors.StorageError(syncerrors.CodeWriteFailed, operation, err)
}

func isUnavailable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	if errors.Is(err, gorm.ErrInvalidDB) {
		return true
	}

	// Driver errors often surface only as text.
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"connection refused",
		"connection reset",
		"connection is closed",
		"i/o timeout",
		"timeout expired",
		"no such host",
		"broken pipe",
		"unable to open",
		"login error",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}

	return false
}
