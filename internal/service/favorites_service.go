package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"boutique/internal/repository"
)

type favState int

const (
	favUnloaded favState = iota
	favLoading
	favReady
	favError
)

type favSession struct {
	state favState
	ids   []string
}

// FavoritesService избранное, отдельный набор на пользователя.
// Набор живёт в памяти от входа до выхода и write-through пишется в
// KV-хранилище под ключом favorites_{userID}. Выход очищает память,
// но не хранилище. Мутации без аутентификации — молчаливый no-op.
type FavoritesService struct {
	mu       sync.Mutex
	store    repository.KVStore
	log      *slog.Logger
	sessions map[string]*favSession
}

func NewFavoritesService(store repository.KVStore, log *slog.Logger) *FavoritesService {
	return &FavoritesService{
		store:    store,
		log:      log,
		sessions: make(map[string]*favSession),
	}
}

func favKey(userID string) string { return "favorites_" + userID }

// ensure загружает набор пользователя при первом обращении.
// Ошибка хранилища переводит сессию в состояние ошибки (набор пуст),
// следующее обращение повторяет загрузку. Повреждённое значение
// отбрасывается и считается пустым набором.
func (s *FavoritesService) ensure(ctx context.Context, userID string) *favSession {
	sess, ok := s.sessions[userID]
	if ok && sess.state == favReady {
		return sess
	}
	sess = &favSession{state: favLoading}
	s.sessions[userID] = sess

	raw, err := s.store.Get(ctx, favKey(userID))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			sess.state = favReady
			return sess
		}
		s.log.Warn("favorites load failed", "user", userID, "err", err)
		sess.state = favError
		return sess
	}
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		s.log.Warn("favorites state corrupt, starting empty", "user", userID, "err", err)
		sess.state = favReady
		return sess
	}
	sess.ids = ids
	sess.state = favReady
	return sess
}

func (s *FavoritesService) persist(ctx context.Context, userID string, sess *favSession) {
	raw, err := json.Marshal(sess.ids)
	if err != nil {
		s.log.Warn("favorites marshal failed", "user", userID, "err", err)
		return
	}
	if err := s.store.Set(ctx, favKey(userID), string(raw)); err != nil {
		s.log.Warn("favorites persist failed", "user", userID, "err", err)
	}
}

// IsFavorite проверка членства; для неаутентифицированного всегда false
func (s *FavoritesService) IsFavorite(ctx context.Context, userID, productID string) bool {
	if userID == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.ensure(ctx, userID)
	for _, id := range sess.ids {
		if id == productID {
			return true
		}
	}
	return false
}

// Toggle добавляет отсутствующий id и убирает присутствующий.
// Двойной вызов возвращает набор в исходное состояние.
func (s *FavoritesService) Toggle(ctx context.Context, userID, productID string) {
	if userID == "" || productID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.ensure(ctx, userID)
	if sess.state != favReady {
		return
	}
	for i, id := range sess.ids {
		if id == productID {
			sess.ids = append(sess.ids[:i], sess.ids[i+1:]...)
			s.persist(ctx, userID, sess)
			return
		}
	}
	sess.ids = append(sess.ids, productID)
	s.persist(ctx, userID, sess)
}

// List возвращает ids в порядке добавления
func (s *FavoritesService) List(ctx context.Context, userID string) []string {
	if userID == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.ensure(ctx, userID)
	out := make([]string, len(sess.ids))
	copy(out, sess.ids)
	return out
}

// Unload сбрасывает набор из памяти при выходе пользователя;
// сохранённое в хранилище состояние не трогается.
func (s *FavoritesService) Unload(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
}
