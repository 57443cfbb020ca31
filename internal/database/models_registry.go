package database

import "snapfeed/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return append(AccountModels(), FeedModels()...)
}

// AccountModels are the identity and social graph tables (migration 000001).
func AccountModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Session{},
		&models.Follow{},
		&models.Message{},
	}
}

// FeedModels are the post, like and comment tables (migration 000002).
func FeedModels() []interface{} {
	return []interface{}{
		&models.Post{},
		&models.PostLike{},
		&models.PostComment{},
	}
}
