package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// User は登録済みユーザーです。PasswordHash は JSON に出力しません。
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password" json:"-"`
}
