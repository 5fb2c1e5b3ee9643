package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/spediralabs/spedira/internal/account/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() accountdomain.Resolver {
	return &repo{}
}

func (r *repo) Resolve(ctx context.Context, db *gorm.DB, accountID snowflake.ID) (*accountdomain.Account, error) {
	var a accountdomain.Account
	err := db.WithContext(ctx).Raw(
		`SELECT id, workspace_id, parent_id, email, is_reseller, is_super_admin,
		 byoc_contract_code, created_at, updated_at
		 FROM accounts WHERE id = ?`,
		accountID,
	).Scan(&a).Error
	if err != nil {
		return nil, err
	}
	if a.ID == 0 {
		return nil, nil
	}
	return &a, nil
}
