package repository

import (
	"errors"
	"strings"

	"snapfeed/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// PostgreSQL SQLSTATE codes the repositories react to.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgUndefinedTable      = "42P01"
	pgUndefinedColumn     = "42703"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// isUniqueConstraintError checks if a DB error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || pgCode(err) == pgUniqueViolation {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint")
}

// isForeignKeyError checks if a DB error is a foreign key violation, i.e. the
// referenced post or user does not exist.
func isForeignKeyError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) || pgCode(err) == pgForeignKeyViolation {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "foreign key constraint")
}

func constraintName(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
}

// missingReference names the row a like or comment insert pointed at but
// could not find. The violated constraint decides when the driver reports it
// (translated and sqlite errors do not); otherwise the post is looked up.
func missingReference(db *gorm.DB, err error, postID, userID string) error {
	name := constraintName(err)
	switch {
	case strings.HasSuffix(name, "_post"):
		return models.NewNotFoundError("Post", postID)
	case strings.HasSuffix(name, "_user"), strings.HasSuffix(name, "_author"):
		return models.NewNotFoundError("User", userID)
	}

	var posts int64
	if lookupErr := db.Raw("SELECT COUNT(*) FROM posts WHERE id = ?", postID).Scan(&posts).Error; lookupErr == nil && posts > 0 {
		return models.NewNotFoundError("User", userID)
	}
	return models.NewNotFoundError("Post", postID)
}

// IsMissingRelationError reports whether err means a table or column the
// query needs is absent from the schema.
func IsMissingRelationError(err error) bool {
	if err == nil {
		return false
	}
	switch pgCode(err) {
	case pgUndefinedTable, pgUndefinedColumn:
		return true
	case "":
	default:
		return false
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "no such table") || strings.Contains(msg, "no such column") {
		return true
	}
	return (strings.Contains(msg, "relation") || strings.Contains(msg, "column")) &&
		strings.Contains(msg, "does not exist")
}
