package repositories

import (
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// IsDuplicateKey распознает нарушение уникального индекса.
// С TranslateError postgres-драйвер отдает gorm.ErrDuplicatedKey,
// для остальных драйверов смотрим на текст ошибки.
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}

// forUpdate добавляет SELECT ... FOR UPDATE там, где диалект его поддерживает
func forUpdate(db *gorm.DB) *gorm.DB {
	if db.Dialector.Name() == "postgres" {
		return db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return db
}

// Pagination - общие параметры постраничной выборки
type Pagination struct {
	Page     int
	PageSize int
}

func (p Pagination) normalize() (limit, offset int) {
	if p.PageSize <= 0 || p.PageSize > 100 {
		p.PageSize = 20
	}
	if p.Page <= 0 {
		p.Page = 1
	}
	return p.PageSize, (p.Page - 1) * p.PageSize
}

// Normalized - страница и размер после применения значений по умолчанию
func (p Pagination) Normalized() Pagination {
	limit, offset := p.normalize()
	return Pagination{Page: offset/limit + 1, PageSize: limit}
}
