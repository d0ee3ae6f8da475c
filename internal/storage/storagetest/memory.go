// Package storagetest はテスト用のインメモリストアを提供します。
// 所有者によるスコープや一意制約は storage パッケージと同じ意味論で動作します。
package storagetest

import (
	"context"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/yourusername/task-manager/internal/models"
	"github.com/yourusername/task-manager/internal/storage"
)

// Users はインメモリのユーザーストアです。
type Users struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]models.User
	// Err が設定されている場合、すべての操作がこのエラーを返します。
	Err error
}

// NewUsers は空のユーザーストアを作成します。
func NewUsers() *Users {
	return &Users{users: make(map[primitive.ObjectID]models.User)}
}

func (s *Users) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			user := u
			return &user, nil
		}
	}
	return nil, nil
}

func (s *Users) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (s *Users) Create(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	for _, u := range s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return storage.ErrDuplicateEmail
		}
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	s.users[user.ID] = *user
	return nil
}

// Delete はユーザーを削除します（外部からの削除を模擬します）。
func (s *Users) Delete(id primitive.ObjectID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, id)
}

// Tasks はインメモリのタスクストアです。
type Tasks struct {
	mu    sync.Mutex
	tasks map[primitive.ObjectID]models.Task
	Err   error
}

// NewTasks は空のタスクストアを作成します。
func NewTasks() *Tasks {
	return &Tasks{tasks: make(map[primitive.ObjectID]models.Task)}
}

func (s *Tasks) Insert(ctx context.Context, task *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if task.Owner.IsZero() {
		return storage.ErrMissingOwner
	}
	if task.ID.IsZero() {
		task.ID = primitive.NewObjectID()
	}
	s.tasks[task.ID] = cloneTask(*task)
	return nil
}

func (s *Tasks) Find(ctx context.Context, query storage.TaskQuery) ([]models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	if query.Owner.IsZero() {
		return nil, storage.ErrMissingOwner
	}
	out := make([]models.Task, 0)
	for _, t := range s.tasks {
		if query.Matches(&t) {
			out = append(out, cloneTask(t))
		}
	}
	return out, nil
}

func (s *Tasks) UpdateOwned(ctx context.Context, owner, id primitive.ObjectID, patch storage.TaskPatch) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	t, ok := s.owned(owner, id)
	if !ok {
		return nil, nil
	}
	patch.Apply(&t)
	s.tasks[id] = t
	out := cloneTask(t)
	return &out, nil
}

func (s *Tasks) ToggleOwned(ctx context.Context, owner, id primitive.ObjectID) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	t, ok := s.owned(owner, id)
	if !ok {
		return nil, nil
	}
	t.IsCompleted = !t.IsCompleted
	s.tasks[id] = t
	out := cloneTask(t)
	return &out, nil
}

func (s *Tasks) DeleteOwned(ctx context.Context, owner, id primitive.ObjectID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return false, s.Err
	}
	if _, ok := s.owned(owner, id); !ok {
		return false, nil
	}
	delete(s.tasks, id)
	return true, nil
}

// Get は所有者に関係なくタスクを返します（検証用）。
func (s *Tasks) Get(id primitive.ObjectID) (models.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	return cloneTask(t), ok
}

func (s *Tasks) owned(owner, id primitive.ObjectID) (models.Task, bool) {
	t, ok := s.tasks[id]
	if !ok || owner.IsZero() || t.Owner != owner {
		return models.Task{}, false
	}
	return t, true
}

func cloneTask(t models.Task) models.Task {
	if t.DueDate != nil {
		due := *t.DueDate
		t.DueDate = &due
	}
	return t
}
