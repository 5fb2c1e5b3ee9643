package server

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	pricelistdomain "github.com/spediralabs/spedira/internal/pricelist/domain"
	"github.com/spediralabs/spedira/pkg/db/pagination"
)

func parseIDParam(c *gin.Context, name string) (snowflake.ID, bool) {
	id, err := snowflake.ParseString(strings.TrimSpace(c.Param(name)))
	if err != nil {
		AbortWithError(c, newValidationError(name, "invalid_id", "invalid id"))
		return 0, false
	}
	return id, true
}

// @Summary      Resolve Price List
// @Description  Select the single price list that applies to the calling account
// @Tags         price-lists
// @Produce      json
// @Param        courier_id  query  string  false  "Courier ID"
// @Success      200  {object}  pricelistdomain.PriceList
// @Router       /price-lists/resolve [get]
func (s *Server) ResolvePriceList(c *gin.Context) {
	var courierID *snowflake.ID
	if raw := strings.TrimSpace(c.Query("courier_id")); raw != "" {
		id, err := snowflake.ParseString(raw)
		if err != nil {
			AbortWithError(c, newValidationError("courier_id", "invalid_id", "invalid courier id"))
			return
		}
		courierID = &id
	}

	account := accountFrom(c)
	list, err := s.priceListSvc.ResolveApplicable(c.Request.Context(), account.ID, account.WorkspaceID, courierID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if list == nil {
		AbortWithError(c, ErrNoApplicablePriceList)
		return
	}

	respondData(c, list)
}

func (s *Server) GetPriceList(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	account := accountFrom(c)
	list, err := s.priceListSvc.Get(c.Request.Context(), account.WorkspaceID, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondData(c, list)
}

// @Summary      List Price Lists
// @Description  Page through the workspace's price lists, newest first
// @Tags         price-lists
// @Produce      json
// @Param        courier_id  query  string  false  "Courier ID"
// @Param        list_type   query  string  false  "List type"  Enums(master, supplier, custom)
// @Param        status      query  string  false  "Status"     Enums(draft, active, archived)
// @Param        page_token  query  string  false  "Cursor token"
// @Param        page_size   query  int     false  "Page size"
// @Success      200  {array}  pricelistdomain.PriceList
// @Router       /price-lists [get]
func (s *Server) ListPriceLists(c *gin.Context) {
	var page pagination.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	opts := pricelistdomain.ListOptions{}
	if raw := strings.TrimSpace(c.Query("courier_id")); raw != "" {
		id, err := snowflake.ParseString(raw)
		if err != nil {
			AbortWithError(c, newValidationError("courier_id", "invalid_id", "invalid courier id"))
			return
		}
		opts.CourierID = &id
	}
	if raw := strings.TrimSpace(c.Query("list_type")); raw != "" {
		lt := pricelistdomain.ListType(raw)
		switch lt {
		case pricelistdomain.ListTypeMaster, pricelistdomain.ListTypeSupplier, pricelistdomain.ListTypeCustom:
			opts.ListType = &lt
		default:
			AbortWithError(c, newValidationError("list_type", "invalid_list_type", "invalid list type"))
			return
		}
	}
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		status := pricelistdomain.Status(raw)
		switch status {
		case pricelistdomain.StatusDraft, pricelistdomain.StatusActive, pricelistdomain.StatusArchived:
			opts.Status = &status
		default:
			AbortWithError(c, newValidationError("status", "invalid_status", "invalid status"))
			return
		}
	}

	account := accountFrom(c)
	items, pageInfo, err := s.priceListSvc.List(c.Request.Context(), account.WorkspaceID, opts, page)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondList(c, items, pageInfo)
}

func (s *Server) ListPriceListEntries(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	account := accountFrom(c)
	entries, err := s.priceListSvc.ListEntries(c.Request.Context(), account.WorkspaceID, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondList(c, entries, nil)
}

type upsertEntriesRequest struct {
	Entries []pricelistdomain.EntryUpsert `json:"entries"`
}

// @Summary      Upsert Price List Entries
// @Description  Insert or update tariff rows as one atomic batch
// @Tags         price-lists
// @Accept       json
// @Produce      json
// @Param        request body upsertEntriesRequest true "Entries"
// @Success      200  {object}  pricelistdomain.UpsertResult
// @Router       /price-lists/{id}/entries [put]
func (s *Server) UpsertPriceListEntries(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req upsertEntriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if len(req.Entries) == 0 {
		AbortWithError(c, newValidationError("entries", "empty_batch", "entries must not be empty"))
		return
	}

	account := accountFrom(c)
	result, err := s.priceListSvc.UpsertEntries(c.Request.Context(), actorFrom(c), id, req.Entries, account.WorkspaceID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondData(c, result)
}

// @Summary      Delete Price List Entry
// @Description  Remove a single tariff row from a price list
// @Tags         price-lists
// @Produce      json
// @Router       /price-lists/{id}/entries/{entry_id} [delete]
func (s *Server) DeletePriceListEntry(c *gin.Context) {
	listID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	entryID, ok := parseIDParam(c, "entry_id")
	if !ok {
		return
	}

	account := accountFrom(c)
	if err := s.priceListSvc.DeleteEntry(c.Request.Context(), actorFrom(c), account.WorkspaceID, listID, entryID); err != nil {
		AbortWithError(c, err)
		return
	}

	respondData(c, gin.H{"deleted": true})
}

type cloneRequest struct {
	NewName         string `json:"new_name"`
	TargetAccountID string `json:"target_account_id"`
	Overrides       struct {
		DefaultMarginPercent *float64 `json:"default_margin_percent"`
		CourierID            string   `json:"courier_id"`
		ValidFromNow         bool     `json:"valid_from_now"`
		Status               string   `json:"status"`
	} `json:"overrides"`
	WorkspaceID string `json:"workspace_id"`
}

// @Summary      Clone Price List
// @Description  Duplicate a list and its entries under a new name
// @Tags         price-lists
// @Accept       json
// @Produce      json
// @Param        request body cloneRequest true "Clone Request"
// @Success      200  {object}  pricelistdomain.PriceList
// @Router       /admin/price-lists/{id}/clone [post]
func (s *Server) ClonePriceList(c *gin.Context) {
	sourceID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req cloneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	domainReq := pricelistdomain.CloneRequest{
		SourceID: sourceID,
		NewName:  req.NewName,
	}

	workspaceID, err := snowflake.ParseString(strings.TrimSpace(req.WorkspaceID))
	if err != nil {
		AbortWithError(c, newValidationError("workspace_id", "invalid_id", "invalid workspace id"))
		return
	}
	domainReq.WorkspaceID = workspaceID

	if req.TargetAccountID != "" {
		id, err := snowflake.ParseString(req.TargetAccountID)
		if err != nil {
			AbortWithError(c, newValidationError("target_account_id", "invalid_id", "invalid target account id"))
			return
		}
		domainReq.TargetAccountID = &id
	}

	domainReq.Overrides.DefaultMarginPercent = req.Overrides.DefaultMarginPercent
	domainReq.Overrides.ValidFromNow = req.Overrides.ValidFromNow
	if req.Overrides.CourierID != "" {
		id, err := snowflake.ParseString(req.Overrides.CourierID)
		if err != nil {
			AbortWithError(c, newValidationError("overrides.courier_id", "invalid_id", "invalid courier id"))
			return
		}
		domainReq.Overrides.CourierID = &id
	}
	if req.Overrides.Status != "" {
		status := pricelistdomain.Status(req.Overrides.Status)
		switch status {
		case pricelistdomain.StatusDraft, pricelistdomain.StatusActive, pricelistdomain.StatusArchived:
			domainReq.Overrides.Status = &status
		default:
			AbortWithError(c, newValidationError("overrides.status", "invalid_status", "invalid status"))
			return
		}
	}

	clone, err := s.priceListSvc.Clone(c.Request.Context(), actorFrom(c), domainReq)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondData(c, clone)
}

type assignRequest struct {
	AccountID string `json:"account_id"`
}

func (s *Server) AssignPriceList(c *gin.Context) {
	listID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	accountID, err := snowflake.ParseString(strings.TrimSpace(req.AccountID))
	if err != nil {
		AbortWithError(c, newValidationError("account_id", "invalid_id", "invalid account id"))
		return
	}

	if err := s.priceListSvc.Assign(c.Request.Context(), actorFrom(c), listID, accountID); err != nil {
		AbortWithError(c, err)
		return
	}

	respondData(c, gin.H{"assigned": true})
}

func (s *Server) RevokeAssignment(c *gin.Context) {
	listID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	accountID, ok := parseIDParam(c, "account_id")
	if !ok {
		return
	}

	if err := s.priceListSvc.RevokeAssignment(c.Request.Context(), actorFrom(c), listID, accountID); err != nil {
		AbortWithError(c, err)
		return
	}

	respondData(c, gin.H{"revoked": true})
}
