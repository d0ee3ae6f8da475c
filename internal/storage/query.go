package storage

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/yourusername/task-manager/internal/models"
)

// DateRange は [From, To) の半開区間です。
type DateRange struct {
	From time.Time
	To   time.Time
}

// Contains は t が区間に含まれるかを返します。
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.From) && t.Before(r.To)
}

// TaskQuery は所有者で絞り込んだタスク検索条件です。nil の項目は条件に含めません。
type TaskQuery struct {
	Owner     primitive.ObjectID
	Priority  *models.Priority
	Completed *bool
	Due       *DateRange
}

// Filter は検索条件を MongoDB のフィルタに変換します。
func (q TaskQuery) Filter() bson.M {
	filter := bson.M{"user": q.Owner}
	if q.Priority != nil {
		filter["priority"] = *q.Priority
	}
	if q.Completed != nil {
		filter["isCompleted"] = *q.Completed
	}
	if q.Due != nil {
		filter["dueDate"] = bson.M{"$gte": q.Due.From, "$lt": q.Due.To}
	}
	return filter
}

// Matches は task が条件を満たすかを返します。Filter と同じ意味論です。
func (q TaskQuery) Matches(task *models.Task) bool {
	if task == nil || task.Owner != q.Owner {
		return false
	}
	if q.Priority != nil && task.Priority != *q.Priority {
		return false
	}
	if q.Completed != nil && task.IsCompleted != *q.Completed {
		return false
	}
	if q.Due != nil && (task.DueDate == nil || !q.Due.Contains(*task.DueDate)) {
		return false
	}
	return true
}

// TaskPatch はタスクの部分更新です。nil の項目は変更しません。
type TaskPatch struct {
	Title       *string
	IsCompleted *bool
	DueDate     *time.Time
	Priority    *models.Priority
}

// IsEmpty は更新項目が一つもないかを返します。
func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.IsCompleted == nil && p.DueDate == nil && p.Priority == nil
}

// Set は $set に渡すドキュメントを返します。
func (p TaskPatch) Set() bson.M {
	set := bson.M{}
	if p.Title != nil {
		set["title"] = *p.Title
	}
	if p.IsCompleted != nil {
		set["isCompleted"] = *p.IsCompleted
	}
	if p.DueDate != nil {
		set["dueDate"] = *p.DueDate
	}
	if p.Priority != nil {
		set["priority"] = *p.Priority
	}
	return set
}

// Apply はメモリ上のタスクに更新を反映します。
func (p TaskPatch) Apply(task *models.Task) {
	if p.Title != nil {
		task.Title = *p.Title
	}
	if p.IsCompleted != nil {
		task.IsCompleted = *p.IsCompleted
	}
	if p.DueDate != nil {
		due := *p.DueDate
		task.DueDate = &due
	}
	if p.Priority != nil {
		task.Priority = *p.Priority
	}
}

func ownedFilter(owner, id primitive.ObjectID) bson.M {
	return bson.M{"_id": id, "user": owner}
}
