package logger

import (
	"fmt"
	"time"
)

// RowTracker logs a running counter for row-by-row batch work. Unlike a
// time-based tracker, it emits on a fixed row interval so operators can see
// the importer advancing through a statement export (the importer uses an
// interval of 10).
type RowTracker struct {
	logger      Logger
	operation   string
	total       int64
	current     int64
	rowInterval int64
	startTime   time.Time
}

// NewRowTracker creates a tracker that logs every rowInterval rows
func NewRowTracker(operation string, total int64, rowInterval int64, log Logger) *RowTracker {
	if log == nil {
		log = GetGlobalLogger()
	}
	if rowInterval <= 0 {
		rowInterval = 10
	}

	tracker := &RowTracker{
		logger:      log.WithComponent("progress"),
		operation:   operation,
		total:       total,
		rowInterval: rowInterval,
		startTime:   time.Now(),
	}

	tracker.logger.WithFields(Fields{
		"operation": operation,
		"total":     total,
	}).Info("Starting operation")

	return tracker
}

// Increment advances the counter by one row and logs on the interval
func (p *RowTracker) Increment() {
	p.current++
	if p.current%p.rowInterval == 0 {
		p.logProgress()
	}
}

// Current returns the number of rows counted so far
func (p *RowTracker) Current() int64 {
	return p.current
}

// Complete logs final statistics for the operation
func (p *RowTracker) Complete() {
	duration := time.Since(p.startTime)
	rate := float64(p.current) / duration.Seconds()

	p.logger.WithFields(Fields{
		"operation": p.operation,
		"total":     p.total,
		"processed": p.current,
		"duration":  duration.String(),
		"rate":      fmt.Sprintf("%.2f/sec", rate),
	}).Info("Operation completed")
}

// CompleteWithError logs final statistics when the operation aborted early
func (p *RowTracker) CompleteWithError(err error) {
	duration := time.Since(p.startTime)

	p.logger.WithError(err).WithFields(Fields{
		"operation": p.operation,
		"total":     p.total,
		"processed": p.current,
		"duration":  duration.String(),
	}).Error("Operation aborted")
}

func (p *RowTracker) logProgress() {
	fields := Fields{
		"operation": p.operation,
		"processed": p.current,
	}
	if p.total > 0 {
		fields["total"] = p.total
		fields["percentage"] = fmt.Sprintf("%.1f%%", float64(p.current)/float64(p.total)*100)
	}

	p.logger.WithFields(fields).Info("Progress update")
}

// OperationLogger provides structured logging for operations with timing
type OperationLogger struct {
	logger    Logger
	operation string
	startTime time.Time
}

// NewOperationLogger creates a new operation logger
func NewOperationLogger(operation string, log Logger) *OperationLogger {
	if log == nil {
		log = GetGlobalLogger()
	}

	ol := &OperationLogger{
		logger:    log.WithComponent("operation"),
		operation: operation,
		startTime: time.Now(),
	}

	ol.logger.WithField("operation", operation).Info("Starting operation")
	return ol
}

// Step logs a step within the operation
func (ol *OperationLogger) Step(step string) {
	ol.logger.WithFields(Fields{
		"operation": ol.operation,
		"step":      step,
	}).Info("Operation step")
}

// Success completes the operation successfully
func (ol *OperationLogger) Success(message string) {
	ol.logger.WithFields(Fields{
		"operation": ol.operation,
		"duration":  time.Since(ol.startTime).String(),
		"status":    "success",
	}).Info(message)
}

// Error completes the operation with an error
func (ol *OperationLogger) Error(err error, message string) {
	ol.logger.WithError(err).WithFields(Fields{
		"operation": ol.operation,
		"duration":  time.Since(ol.startTime).String(),
		"status":    "error",
	}).Error(message)
}
