package postgres

import (
	"strings"

	"github.com/jinzhu/gorm"

	"github.com/nstepa/inkpost/internal/slug"
)

// isUniqueViolation recognizes a unique-constraint error from either backend
// (PostgreSQL or the SQLite test database). Neither driver exposes a typed
// error through gorm v1, so this matches on the message.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}

// uniqueSlug walks base, base-1, base-2, ... until it finds a slug no sibling
// row in table holds. excludeID skips the row being updated so an unchanged
// slug never collides with itself. The pre-check can still lose a race with a
// concurrent insert; callers retry on the unique-index violation.
func uniqueSlug(db *gorm.DB, table, base string, excludeID uint) (string, error) {
	candidate := base
	for i := 1; ; i++ {
		var count int
		q := db.Table(table).Where("slug = ?", candidate)
		if excludeID != 0 {
			q = q.Where("id <> ?", excludeID)
		}
		if err := q.Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return candidate, nil
		}
		candidate = slug.WithSuffix(base, i)
	}
}
