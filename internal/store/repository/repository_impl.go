package repository

import (
	"context"

	"github.com/pharmadesk/pharmadesk/internal/store/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Upsert(ctx context.Context, db *gorm.DB, store *domain.Store) (*domain.Store, error) {
	err := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoNothing: true,
		}).
		Create(store).Error
	if err != nil {
		return nil, err
	}
	return r.FindByName(ctx, db, store.Name)
}

func (r *repo) FindByName(ctx context.Context, db *gorm.DB, name string) (*domain.Store, error) {
	var store domain.Store
	err := db.WithContext(ctx).
		Where("name = ?", name).
		First(&store).Error
	if err != nil {
		return nil, err
	}
	return &store, nil
}
