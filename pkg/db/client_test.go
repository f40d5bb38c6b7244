package db

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	pkgerrors "github.com/grupo95/mecanica-backend/pkg/errors"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()

	dsn := "file:dbclient_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	return &Client{conn: conn}
}

func TestWithTxCommitFailureIsPersistenceError(t *testing.T) {
	t.Parallel()

	client := newTestClient(t)

	// fn commits the transaction itself, so the runner's own commit hits a
	// finished transaction and fails.
	err := client.WithTx(context.Background(), func(tx *gorm.DB) error {
		return tx.Commit().Error
	})
	if err == nil {
		t.Fatal("expected commit failure")
	}
	if !pkgerrors.HasCode(err, pkgerrors.CodePersistence) {
		t.Fatalf("expected %s, got %v", pkgerrors.CodePersistence, err)
	}
}

func TestWithTxFnErrorRollsBackUnchanged(t *testing.T) {
	t.Parallel()

	client := newTestClient(t)

	boom := errors.New("stage failed")
	err := client.WithTx(context.Background(), func(tx *gorm.DB) error {
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected fn error to propagate, got %v", err)
	}
	if pkgerrors.HasCode(err, pkgerrors.CodePersistence) {
		t.Fatalf("fn errors must not be relabelled, got %v", err)
	}
}

func TestWithTxCommitSuccess(t *testing.T) {
	t.Parallel()

	client := newTestClient(t)

	type row struct {
		ID   string `gorm:"primaryKey"`
		Name string
	}
	if err := client.conn.AutoMigrate(&row{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	err := client.WithTx(context.Background(), func(tx *gorm.DB) error {
		return tx.Create(&row{ID: uuid.NewString(), Name: "committed"}).Error
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var count int64
	if err := client.conn.Model(&row{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 committed row, got %d", count)
	}
}
