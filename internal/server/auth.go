package server

import (
	"crypto/subtle"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	accountdomain "github.com/spediralabs/spedira/internal/account/domain"
	pricelistdomain "github.com/spediralabs/spedira/internal/pricelist/domain"
)

const contextAccountKey = "account"

// IdentityRequired resolves the identity forwarded by the platform
// gateway. The engine never authenticates credentials itself; it trusts
// the gateway-set account header and verifies the account exists.
func (s *Server) IdentityRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("X-Account-Id"))
		if header == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		accountID, err := snowflake.ParseString(header)
		if err != nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		account, err := s.accounts.Resolve(c.Request.Context(), s.db, accountID)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		if account == nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		c.Set(contextAccountKey, account)
		c.Next()
	}
}

// AdminKeyRequired guards superadmin operations with the static admin
// key. When an account header is also present the actor keeps its
// identity for the audit trail.
func (s *Server) AdminKeyRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.cfg.App.AdminAPIKey == "" {
			AbortWithError(c, ErrForbidden)
			return
		}

		header := strings.TrimSpace(c.GetHeader("Authorization"))
		parts := strings.Fields(header)
		if len(parts) != 2 || parts[0] != "Bearer" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		if subtle.ConstantTimeCompare([]byte(parts[1]), []byte(s.cfg.App.AdminAPIKey)) != 1 {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		if header := strings.TrimSpace(c.GetHeader("X-Account-Id")); header != "" {
			if accountID, err := snowflake.ParseString(header); err == nil {
				if account, err := s.accounts.Resolve(c.Request.Context(), s.db, accountID); err == nil && account != nil {
					c.Set(contextAccountKey, account)
				}
			}
		}

		c.Set("is_super_admin", true)
		c.Next()
	}
}

func accountFrom(c *gin.Context) *accountdomain.Account {
	v, ok := c.Get(contextAccountKey)
	if !ok {
		return nil
	}
	account, _ := v.(*accountdomain.Account)
	return account
}

func actorFrom(c *gin.Context) pricelistdomain.Actor {
	actor := pricelistdomain.Actor{}
	if account := accountFrom(c); account != nil {
		actor.AccountID = account.ID
		actor.IsReseller = account.IsReseller
		actor.IsSuperAdmin = account.IsSuperAdmin
	}
	if c.GetBool("is_super_admin") {
		actor.IsSuperAdmin = true
	}
	return actor
}
