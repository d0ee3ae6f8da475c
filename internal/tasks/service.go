// Package tasks はユーザーごとのタスク操作（作成・更新・削除・絞り込み）を提供します。
package tasks

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/yourusername/task-manager/internal/apperr"
	"github.com/yourusername/task-manager/internal/auth"
	"github.com/yourusername/task-manager/internal/models"
	"github.com/yourusername/task-manager/internal/storage"
)

// Repository はタスクの永続化を担います。
// *Owned 系は (id, owner) の一致で操作し、一致しない場合は nil / false を返します。
type Repository interface {
	Insert(ctx context.Context, task *models.Task) error
	Find(ctx context.Context, query storage.TaskQuery) ([]models.Task, error)
	UpdateOwned(ctx context.Context, owner, id primitive.ObjectID, patch storage.TaskPatch) (*models.Task, error)
	ToggleOwned(ctx context.Context, owner, id primitive.ObjectID) (*models.Task, error)
	DeleteOwned(ctx context.Context, owner, id primitive.ObjectID) (bool, error)
}

// CreateInput はタスク作成の入力です。
type CreateInput struct {
	Title    string
	DueDate  *string
	Priority *string
}

// UpdateInput は部分更新の入力です。nil の項目は変更しません。
type UpdateInput struct {
	Title       *string
	DueDate     *string
	Priority    *string
	IsCompleted *bool
}

// FilterInput は絞り込み条件です。空文字の項目は条件に含めません。
type FilterInput struct {
	Priority  string
	Completed string
	DueDate   string
}

// Service はタスク操作の入力検証と永続化を行います。
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService は Service を作成します。
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

var errTaskNotFound = apperr.NotFound(apperr.CodeTaskNotFound, "Task not found")

// Create は認証済みユーザーを所有者としてタスクを作成します。
func (s *Service) Create(ctx context.Context, p auth.Principal, in CreateInput) (*models.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperr.Validation("Title is required")
	}

	task := &models.Task{
		Owner:    p.UserID(),
		Title:    title,
		Priority: models.PriorityMedium,
	}
	if present(in.Priority) {
		priority, err := parsePriority(*in.Priority)
		if err != nil {
			return nil, err
		}
		task.Priority = priority
	}
	if present(in.DueDate) {
		due, err := parseDate(*in.DueDate, s.now().Location())
		if err != nil {
			return nil, err
		}
		task.DueDate = &due
	}

	if err := s.repo.Insert(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	return task, nil
}

// List は所有者のタスクをすべて返します。
func (s *Service) List(ctx context.Context, p auth.Principal) ([]models.Task, error) {
	tasks, err := s.repo.Find(ctx, storage.TaskQuery{Owner: p.UserID()})
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// Update は指定された項目のみ更新します。空のタイトルは未指定として扱います。
func (s *Service) Update(ctx context.Context, p auth.Principal, taskID string, in UpdateInput) (*models.Task, error) {
	patch, err := s.buildPatch(in)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, p, taskID, func(owner, id primitive.ObjectID) (*models.Task, error) {
		return s.repo.UpdateOwned(ctx, owner, id, patch)
	})
}

// UpdateDueDate は期限のみを更新します。
func (s *Service) UpdateDueDate(ctx context.Context, p auth.Principal, taskID, dueDate string) (*models.Task, error) {
	if strings.TrimSpace(dueDate) == "" {
		return nil, apperr.Validation("Due date is required")
	}
	return s.Update(ctx, p, taskID, UpdateInput{DueDate: &dueDate})
}

// UpdatePriority は優先度のみを更新します。
func (s *Service) UpdatePriority(ctx context.Context, p auth.Principal, taskID, priority string) (*models.Task, error) {
	if strings.TrimSpace(priority) == "" {
		return nil, apperr.Validation("Priority is required")
	}
	return s.Update(ctx, p, taskID, UpdateInput{Priority: &priority})
}

// ToggleComplete は完了フラグを反転します。
func (s *Service) ToggleComplete(ctx context.Context, p auth.Principal, taskID string) (*models.Task, error) {
	return s.mutate(ctx, p, taskID, func(owner, id primitive.ObjectID) (*models.Task, error) {
		return s.repo.ToggleOwned(ctx, owner, id)
	})
}

// Delete は所有者のタスクを削除します。
func (s *Service) Delete(ctx context.Context, p auth.Principal, taskID string) error {
	id, ok := parseTaskID(taskID)
	if !ok {
		return errTaskNotFound
	}
	deleted, err := s.repo.DeleteOwned(ctx, p.UserID(), id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if !deleted {
		return errTaskNotFound
	}
	return nil
}

// Filter は優先度・完了状態・期限で所有者のタスクを絞り込みます。
func (s *Service) Filter(ctx context.Context, p auth.Principal, in FilterInput) ([]models.Task, error) {
	query := storage.TaskQuery{Owner: p.UserID()}

	if raw := strings.TrimSpace(in.Priority); raw != "" {
		priority, err := parsePriority(raw)
		if err != nil {
			return nil, err
		}
		query.Priority = &priority
	}
	if raw := strings.TrimSpace(in.Completed); raw != "" {
		completed, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, apperr.Validation("Completed must be true or false")
		}
		query.Completed = &completed
	}
	if raw := strings.TrimSpace(in.DueDate); raw != "" {
		window, err := dueWindow(raw, s.now())
		if err != nil {
			return nil, err
		}
		query.Due = &window
	}

	tasks, err := s.repo.Find(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to filter tasks: %w", err)
	}
	return tasks, nil
}

// mutate は所有者スコープで1件を更新する共通処理です。
// 不正なIDと他人のタスクはどちらも「見つからない」になります。
func (s *Service) mutate(ctx context.Context, p auth.Principal, taskID string, op func(owner, id primitive.ObjectID) (*models.Task, error)) (*models.Task, error) {
	id, ok := parseTaskID(taskID)
	if !ok {
		return nil, errTaskNotFound
	}
	task, err := op(p.UserID(), id)
	if err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	if task == nil {
		return nil, errTaskNotFound
	}
	return task, nil
}

func (s *Service) buildPatch(in UpdateInput) (storage.TaskPatch, error) {
	var patch storage.TaskPatch
	if in.Title != nil {
		if title := strings.TrimSpace(*in.Title); title != "" {
			patch.Title = &title
		}
	}
	if present(in.Priority) {
		priority, err := parsePriority(*in.Priority)
		if err != nil {
			return storage.TaskPatch{}, err
		}
		patch.Priority = &priority
	}
	if present(in.DueDate) {
		due, err := parseDate(*in.DueDate, s.now().Location())
		if err != nil {
			return storage.TaskPatch{}, err
		}
		patch.DueDate = &due
	}
	patch.IsCompleted = in.IsCompleted
	return patch, nil
}

func parsePriority(raw string) (models.Priority, error) {
	priority, ok := models.ParsePriority(strings.TrimSpace(raw))
	if !ok {
		return "", apperr.Validation("Priority must be one of High, Medium, Low")
	}
	return priority, nil
}

func parseTaskID(raw string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(raw))
	if err != nil || id.IsZero() {
		return primitive.NilObjectID, false
	}
	return id, true
}

func present(s *string) bool {
	return s != nil && strings.TrimSpace(*s) != ""
}
