package storage

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/yourusername/task-manager/internal/models"
)

// ErrMissingOwner は所有者なしでタスクを操作しようとした場合に返されます。
var ErrMissingOwner = errors.New("task owner is required")

// TaskStore は tasks コレクションを扱います。
// 取得系の「見つからない」は nil（削除は false）で表し、エラーにはしません。
type TaskStore struct {
	coll *mongo.Collection
}

// NewTaskStore は TaskStore を作成します。
func NewTaskStore(db *mongo.Database) *TaskStore {
	return &TaskStore{coll: db.Collection(tasksCollection)}
}

// Insert はタスクを保存します。
func (s *TaskStore) Insert(ctx context.Context, task *models.Task) error {
	if task == nil {
		return fmt.Errorf("task is nil")
	}
	if task.Owner.IsZero() {
		return ErrMissingOwner
	}
	if task.ID.IsZero() {
		task.ID = primitive.NewObjectID()
	}
	_, err := s.coll.InsertOne(ctx, task)
	return err
}

// Find は条件に一致する所有者のタスクを返します。
func (s *TaskStore) Find(ctx context.Context, query TaskQuery) ([]models.Task, error) {
	if query.Owner.IsZero() {
		return nil, ErrMissingOwner
	}
	cursor, err := s.coll.Find(ctx, query.Filter())
	if err != nil {
		return nil, err
	}
	tasks := make([]models.Task, 0)
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// FindOwned は (id, owner) で一致するタスクを返します。
func (s *TaskStore) FindOwned(ctx context.Context, owner, id primitive.ObjectID) (*models.Task, error) {
	if owner.IsZero() {
		return nil, ErrMissingOwner
	}
	var task models.Task
	if err := s.coll.FindOne(ctx, ownedFilter(owner, id)).Decode(&task); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &task, nil
}

// UpdateOwned は (id, owner) で一致するタスクに部分更新を適用し、更新後のタスクを返します。
func (s *TaskStore) UpdateOwned(ctx context.Context, owner, id primitive.ObjectID, patch TaskPatch) (*models.Task, error) {
	if patch.IsEmpty() {
		return s.FindOwned(ctx, owner, id)
	}
	return s.findOneAndUpdate(ctx, owner, id, bson.M{"$set": patch.Set()})
}

// ToggleOwned は完了フラグをサーバー側で反転します。
func (s *TaskStore) ToggleOwned(ctx context.Context, owner, id primitive.ObjectID) (*models.Task, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "isCompleted", Value: bson.D{{Key: "$not", Value: bson.A{"$isCompleted"}}}},
		}}},
	}
	return s.findOneAndUpdate(ctx, owner, id, pipeline)
}

// DeleteOwned は (id, owner) で一致するタスクを削除します。削除できたかを返します。
func (s *TaskStore) DeleteOwned(ctx context.Context, owner, id primitive.ObjectID) (bool, error) {
	if owner.IsZero() {
		return false, ErrMissingOwner
	}
	res, err := s.coll.DeleteOne(ctx, ownedFilter(owner, id))
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

func (s *TaskStore) findOneAndUpdate(ctx context.Context, owner, id primitive.ObjectID, update any) (*models.Task, error) {
	if owner.IsZero() {
		return nil, ErrMissingOwner
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var task models.Task
	if err := s.coll.FindOneAndUpdate(ctx, ownedFilter(owner, id), update, opts).Decode(&task); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &task, nil
}
