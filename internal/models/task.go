// Package models はMongoDBに保存するドキュメントの型を定義します。
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Priority はタスクの優先度です。
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// ParsePriority は文字列を優先度に変換します。大文字小文字は区別します。
func ParsePriority(s string) (Priority, bool) {
	switch p := Priority(s); p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return p, true
	default:
		return "", false
	}
}

// Task はユーザーが所有するタスクです。
type Task struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Owner       primitive.ObjectID `bson:"user" json:"user"`
	Title       string             `bson:"title" json:"title"`
	IsCompleted bool               `bson:"isCompleted" json:"isCompleted"`
	DueDate     *time.Time         `bson:"dueDate,omitempty" json:"dueDate,omitempty"`
	Priority    Priority           `bson:"priority" json:"priority"`
}
