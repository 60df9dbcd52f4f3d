package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"studyroom-backend/internal/model"
)

// AccountRepository persists user accounts.
type AccountRepository interface {
	// Create returns ErrConflict if any unique field is already taken.
	Create(ctx context.Context, a *model.Account) error
	FindByUsername(ctx context.Context, username string) (model.Account, error)
	FindByID(ctx context.Context, id string) (model.Account, error)
}

type accountRepository struct {
	db *gorm.DB
}

func (r *accountRepository) Create(ctx context.Context, a *model.Account) error {
	if err := r.db.WithContext(ctx).Create(a).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("create account %s: %w", a.Username, err)
	}
	return nil
}

func (r *accountRepository) FindByUsername(ctx context.Context, username string) (model.Account, error) {
	var a model.Account
	if err := r.db.WithContext(ctx).First(&a, "username = ?", username).Error; err != nil {
		return model.Account{}, notFound(err)
	}
	return a, nil
}

func (r *accountRepository) FindByID(ctx context.Context, id string) (model.Account, error) {
	var a model.Account
	if err := r.db.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		return model.Account{}, notFound(err)
	}
	return a, nil
}
