package specification

import (
	"fmt"

	"gorm.io/gorm"
)

// Specification narrows a repository query
type Specification interface {
	Apply(db *gorm.DB) *gorm.DB
}

// Scope adapts a gorm scope function to a Specification
type Scope func(db *gorm.DB) *gorm.DB

func (s Scope) Apply(db *gorm.DB) *gorm.DB {
	return s(db)
}

// OrderBy sorts on a single column, ascending unless Desc
type OrderBy struct {
	Field string
	Desc  bool
}

func (s OrderBy) Apply(db *gorm.DB) *gorm.DB {
	if s.Desc {
		return db.Order(fmt.Sprintf("%s DESC", s.Field))
	}
	return db.Order(fmt.Sprintf("%s ASC", s.Field))
}

type fieldEquals struct {
	field string
	value interface{}
}

func (s fieldEquals) Apply(db *gorm.DB) *gorm.DB {
	return db.Where(fmt.Sprintf("%s = ?", s.field), s.value)
}

// Filter matches rows whose column equals value. field must be a trusted column name.
func Filter(field string, value interface{}) Specification {
	return fieldEquals{field: field, value: value}
}
