package database

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func captured(buf *bytes.Buffer) context.Context {
	l := zerolog.New(buf)
	return l.WithContext(context.Background())
}

func TestGormLoggerTrace(t *testing.T) {
	var buf bytes.Buffer
	ctx := captured(&buf)
	l := newGormLogger("warn")
	query := func() (string, int64) { return "SELECT 1", 1 }

	l.Trace(ctx, time.Now(), query, nil)
	if buf.Len() != 0 {
		t.Errorf("Fast query should not log at warn, got %s", buf.String())
	}

	l.Trace(ctx, time.Now(), query, gorm.ErrRecordNotFound)
	if buf.Len() != 0 {
		t.Errorf("Record not found should not log, got %s", buf.String())
	}

	l.Trace(ctx, time.Now(), query, errors.New("connection reset"))
	if !strings.Contains(buf.String(), "connection reset") || !strings.Contains(buf.String(), "SELECT 1") {
		t.Errorf("Expected error with SQL, got %s", buf.String())
	}

	buf.Reset()
	l.Trace(ctx, time.Now().Add(-time.Second), query, nil)
	if !strings.Contains(buf.String(), `"slow":true`) {
		t.Errorf("Expected slow query warning, got %s", buf.String())
	}
}

func TestGormLoggerSilent(t *testing.T) {
	var buf bytes.Buffer
	ctx := captured(&buf)
	l := newGormLogger("warn").LogMode(logger.Silent)

	l.Error(ctx, "boom %d", 1)
	l.Trace(ctx, time.Now(), func() (string, int64) { return "SELECT 1", 0 }, errors.New("x"))
	if buf.Len() != 0 {
		t.Errorf("Silent logger wrote %s", buf.String())
	}
}

func TestPingWithoutConnection(t *testing.T) {
	DB = nil
	if err := Ping(); err == nil {
		t.Error("Expected error without a connection")
	}
	if err := Close(); err != nil {
		t.Errorf("Close without a connection should be a no-op, got %v", err)
	}
}
