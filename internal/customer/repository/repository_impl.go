package repository

import (
	"context"

	"github.com/pharmadesk/pharmadesk/internal/customer/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

// Upsert inserts the customer unless a row with the same phone already
// exists, then returns the persisted row either way.
func (r *repo) Upsert(ctx context.Context, db *gorm.DB, customer *domain.Customer) (*domain.Customer, error) {
	err := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "phone"}},
			DoNothing: true,
		}).
		Create(customer).Error
	if err != nil {
		return nil, err
	}
	return r.FindByPhone(ctx, db, customer.Phone)
}

func (r *repo) FindByPhone(ctx context.Context, db *gorm.DB, phone string) (*domain.Customer, error) {
	var customer domain.Customer
	err := db.WithContext(ctx).
		Where("phone = ?", phone).
		First(&customer).Error
	if err != nil {
		return nil, err
	}
	return &customer, nil
}
