package unitofwork

import (
	"context"

	"gorm.io/gorm"
)

// RepositoryFactory hands out a unit of work per tool call or consumer message
type RepositoryFactory interface {
	NewUnitOfWork(ctx context.Context) UnitOfWork
}

type repositoryFactory struct {
	db *gorm.DB
}

func NewRepositoryFactory(db *gorm.DB) RepositoryFactory {
	return &repositoryFactory{db: db}
}

// NewUnitOfWork binds ctx to every query of the unit; transactions start on Begin
func (f *repositoryFactory) NewUnitOfWork(ctx context.Context) UnitOfWork {
	return NewUnitOfWork(f.db.WithContext(ctx))
}
