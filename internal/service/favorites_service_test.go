package service

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"boutique/internal/repository"
)

func TestFavorites_ToggleRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc := NewFavoritesService(repository.NewMemoryKV(), slog.Default())

	if svc.IsFavorite(ctx, "u1", "p1") {
		t.Fatalf("fresh set must be empty")
	}
	svc.Toggle(ctx, "u1", "p1")
	if !svc.IsFavorite(ctx, "u1", "p1") {
		t.Fatalf("toggle must add")
	}
	// повторный toggle возвращает исходное состояние
	svc.Toggle(ctx, "u1", "p1")
	if svc.IsFavorite(ctx, "u1", "p1") {
		t.Fatalf("double toggle must restore original state")
	}
}

func TestFavorites_UnauthenticatedIsNoOp(t *testing.T) {
	ctx := context.Background()
	kv := repository.NewMemoryKV()
	svc := NewFavoritesService(kv, slog.Default())

	svc.Toggle(ctx, "", "p1")
	if svc.IsFavorite(ctx, "", "p1") {
		t.Fatalf("unauthenticated membership must be false")
	}
	if _, err := kv.Get(ctx, "favorites_"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("no key must be written for unauthenticated toggle")
	}
}

func TestFavorites_PerUserIsolation(t *testing.T) {
	ctx := context.Background()
	svc := NewFavoritesService(repository.NewMemoryKV(), slog.Default())

	svc.Toggle(ctx, "u1", "p1")
	if svc.IsFavorite(ctx, "u2", "p1") {
		t.Fatalf("favorites must not leak across users")
	}
	svc.Toggle(ctx, "u2", "p2")
	got := svc.List(ctx, "u1")
	if len(got) != 1 || got[0] != "p1" {
		t.Fatalf("u1 list: %v", got)
	}
}

func TestFavorites_UnloadKeepsStorage(t *testing.T) {
	ctx := context.Background()
	kv := repository.NewMemoryKV()
	svc := NewFavoritesService(kv, slog.Default())

	svc.Toggle(ctx, "u1", "p1")
	svc.Unload("u1")

	// выход чистит память; повторный вход подтягивает из хранилища
	if !svc.IsFavorite(ctx, "u1", "p1") {
		t.Fatalf("favorites must survive logout via storage")
	}
}

func TestFavorites_CorruptStateStartsEmpty(t *testing.T) {
	ctx := context.Background()
	kv := repository.NewMemoryKV()
	_ = kv.Set(ctx, "favorites_u1", "{not json")
	svc := NewFavoritesService(kv, slog.Default())

	if svc.IsFavorite(ctx, "u1", "p1") {
		t.Fatalf("corrupt state must yield empty set")
	}
	svc.Toggle(ctx, "u1", "p1")
	if !svc.IsFavorite(ctx, "u1", "p1") {
		t.Fatalf("set must be usable after recovery")
	}
}

// flakyKV имитирует недоступное хранилище
type flakyKV struct {
	inner *repository.MemoryKV
	fail  bool
}

func (f *flakyKV) Get(ctx context.Context, key string) (string, error) {
	if f.fail {
		return "", errors.New("storage down")
	}
	return f.inner.Get(ctx, key)
}

func (f *flakyKV) Set(ctx context.Context, key, value string) error {
	if f.fail {
		return errors.New("storage down")
	}
	return f.inner.Set(ctx, key, value)
}

func (f *flakyKV) Delete(ctx context.Context, key string) error {
	return f.inner.Delete(ctx, key)
}

func TestFavorites_StorageErrorThenRecovery(t *testing.T) {
	ctx := context.Background()
	kv := &flakyKV{inner: repository.NewMemoryKV(), fail: true}
	svc := NewFavoritesService(kv, slog.Default())

	// при недоступном хранилище набор пуст, мутации не применяются
	svc.Toggle(ctx, "u1", "p1")
	if svc.IsFavorite(ctx, "u1", "p1") {
		t.Fatalf("error state must behave as empty")
	}

	// следующее обращение повторяет загрузку
	kv.fail = false
	svc.Toggle(ctx, "u1", "p1")
	if !svc.IsFavorite(ctx, "u1", "p1") {
		t.Fatalf("service must recover after storage is back")
	}
}
