// Package domain describes the account identity consumed by the pricing
// engine. Provisioning and authentication live elsewhere; the engine only
// needs to know who is asking and in which workspace.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

var ErrAccountNotFound = errors.New("account not found")

type Account struct {
	ID           snowflake.ID  `gorm:"primaryKey" json:"id"`
	WorkspaceID  snowflake.ID  `gorm:"not null;index" json:"workspace_id"`
	ParentID     *snowflake.ID `gorm:"index" json:"parent_id,omitempty"`
	Email        string        `gorm:"type:text;not null" json:"email"`
	IsReseller   bool          `gorm:"not null;default:false" json:"is_reseller"`
	IsSuperAdmin bool          `gorm:"not null;default:false" json:"is_super_admin"`
	// ByocContractCode is set when the account brings its own courier
	// contract; rate lookups then go through the external adapter.
	ByocContractCode *string   `gorm:"type:text" json:"byoc_contract_code,omitempty"`
	CreatedAt        time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time `gorm:"not null" json:"updated_at"`
}

func (Account) TableName() string { return "accounts" }

// Resolver is the port onto the auth/workspace subsystem.
type Resolver interface {
	Resolve(ctx context.Context, db *gorm.DB, accountID snowflake.ID) (*Account, error)
}
