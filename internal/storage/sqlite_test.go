package storage

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"otakufeed/pkg/logx"
)

func openTestStore(t *testing.T) Store {
	t.Helper()
	st, err := Open(Config{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "test.db")}, logx.Nop())
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestSubscribeAndFind(t *testing.T) {
	t.Parallel()
	st := openTestStore(t)
	ctx := context.Background()

	if err := st.Subscribe(ctx, "Show A", 100, 200); err != nil {
		t.Fatalf("Subscribe error: %v", err)
	}
	if err := st.Subscribe(ctx, "Show A", 101, 200); err != nil {
		t.Fatalf("Subscribe error: %v", err)
	}
	if err := st.Subscribe(ctx, "Show B", 102, 201); err != nil {
		t.Fatalf("Subscribe error: %v", err)
	}

	rows, err := st.FindSubscribedChannels(ctx, "Show A")
	if err != nil {
		t.Fatalf("FindSubscribedChannels error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	// Insertion order is preserved.
	if rows[0].ChannelID != "100" || rows[1].ChannelID != "101" {
		t.Fatalf("unexpected order: %+v", rows)
	}
	if rows[0].GuildID != "200" {
		t.Fatalf("GuildID = %q, want 200", rows[0].GuildID)
	}

	rows, err = st.FindSubscribedChannels(ctx, "Unknown")
	if err != nil {
		t.Fatalf("FindSubscribedChannels error: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("got %d rows for unknown title, want 0", len(rows))
	}
}

func TestSubscribeUpsert(t *testing.T) {
	t.Parallel()
	st := openTestStore(t)
	ctx := context.Background()

	if err := st.Subscribe(ctx, "Show A", 100, 200); err != nil {
		t.Fatalf("Subscribe error: %v", err)
	}
	// Re-subscribing the same channel moves it to the new guild, no duplicate row.
	if err := st.Subscribe(ctx, "Show A", 100, 300); err != nil {
		t.Fatalf("Subscribe error: %v", err)
	}

	rows, err := st.FindSubscribedChannels(ctx, "Show A")
	if err != nil {
		t.Fatalf("FindSubscribedChannels error: %v", err)
	}
	if len(rows) != 1 || rows[0].GuildID != "300" {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}

func TestUnsubscribe(t *testing.T) {
	t.Parallel()
	st := openTestStore(t)
	ctx := context.Background()

	if err := st.Subscribe(ctx, "Show A", 100, 200); err != nil {
		t.Fatalf("Subscribe error: %v", err)
	}
	if err := st.Unsubscribe(ctx, "Show A", 100); err != nil {
		t.Fatalf("Unsubscribe error: %v", err)
	}
	if err := st.Unsubscribe(ctx, "Show A", 100); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("err = %v, want sql.ErrNoRows", err)
	}
}

func TestSubscribeValidation(t *testing.T) {
	t.Parallel()
	st := openTestStore(t)
	ctx := context.Background()

	if err := st.Subscribe(ctx, "", 100, 200); err == nil {
		t.Fatal("expected error for empty title")
	}
	if err := st.Subscribe(ctx, "Show A", 0, 200); err == nil {
		t.Fatal("expected error for zero channel id")
	}
}

func TestListAndCount(t *testing.T) {
	t.Parallel()
	st := openTestStore(t)
	ctx := context.Background()

	for i := uint64(1); i <= 3; i++ {
		if err := st.Subscribe(ctx, "Show A", 100+i, 200); err != nil {
			t.Fatalf("Subscribe error: %v", err)
		}
	}

	subs, err := st.ListSubscriptions(ctx)
	if err != nil {
		t.Fatalf("ListSubscriptions error: %v", err)
	}
	if len(subs) != 3 {
		t.Fatalf("got %d subscriptions, want 3", len(subs))
	}
	if subs[0].CreatedAt.IsZero() {
		t.Fatal("CreatedAt not recorded")
	}

	n, err := st.CountSubscriptions(ctx)
	if err != nil {
		t.Fatalf("CountSubscriptions error: %v", err)
	}
	if n != 3 {
		t.Fatalf("count = %d, want 3", n)
	}
}
