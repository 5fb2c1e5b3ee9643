package server

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/spediralabs/spedira/internal/margin"
	pricelistdomain "github.com/spediralabs/spedira/internal/pricelist/domain"
	ratedomain "github.com/spediralabs/spedira/internal/rate/domain"
)

type quoteRequest struct {
	Weight      float64                 `json:"weight"`
	Volume      *float64                `json:"volume"`
	Destination ratedomain.Destination  `json:"destination"`
	CourierID   string                  `json:"courier_id"`
	ServiceType string                  `json:"service_type"`
	Options     ratedomain.QuoteOptions `json:"options"`
	PriceListID string                  `json:"price_list_id"`
}

func (r *quoteRequest) toParams() (ratedomain.QuoteParams, error) {
	params := ratedomain.QuoteParams{
		Weight:      r.Weight,
		Volume:      r.Volume,
		Destination: r.Destination,
		ServiceType: pricelistdomain.ServiceType(strings.TrimSpace(r.ServiceType)),
		Options:     r.Options,
	}
	if r.CourierID != "" {
		id, err := snowflake.ParseString(r.CourierID)
		if err != nil {
			return params, newValidationError("courier_id", "invalid_id", "invalid courier id")
		}
		params.CourierID = &id
	}
	return params, nil
}

type marginView struct {
	margin.Result
	Display string              `json:"display"`
	Class   margin.DisplayClass `json:"display_class"`
	Tooltip string              `json:"tooltip"`
}

type quoteResponse struct {
	Quote  *ratedomain.PriceQuote `json:"quote"`
	Margin marginView             `json:"margin"`
}

func newMarginView(r margin.Result) marginView {
	value, class, tooltip := margin.Display(r)
	return marginView{Result: r, Display: value, Class: class, Tooltip: tooltip}
}

// @Summary      Create Quote
// @Description  Price a shipment against the applicable price list
// @Tags         quotes
// @Accept       json
// @Produce      json
// @Param        request body quoteRequest true "Quote Request"
// @Success      200  {object}  quoteResponse
// @Router       /quotes [post]
func (s *Server) CreateQuote(c *gin.Context) {
	var req quoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	params, err := req.toParams()
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var priceListID *snowflake.ID
	if req.PriceListID != "" {
		id, err := snowflake.ParseString(req.PriceListID)
		if err != nil {
			AbortWithError(c, newValidationError("price_list_id", "invalid_id", "invalid price list id"))
			return
		}
		priceListID = &id
	}

	account := accountFrom(c)
	quote, err := s.rateSvc.PriceWithRules(c.Request.Context(), account.ID, account.WorkspaceID, params, priceListID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if quote == nil {
		AbortWithError(c, ErrNoApplicablePriceList)
		return
	}

	respondData(c, quoteResponse{
		Quote:  quote,
		Margin: newMarginView(margin.Compute(&quote.TotalPrice, nil, &quote.BasePrice, quote.APISource)),
	})
}

// @Summary      Compare Quotes
// @Description  Quote the reseller contract and the master tariff, returning the cheaper
// @Tags         quotes
// @Accept       json
// @Produce      json
// @Param        request body quoteRequest true "Quote Request"
// @Success      200  {object}  ratedomain.ComparisonResult
// @Router       /quotes/compare [post]
func (s *Server) CompareQuotes(c *gin.Context) {
	var req quoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	params, err := req.toParams()
	if err != nil {
		AbortWithError(c, err)
		return
	}

	account := accountFrom(c)
	result, err := s.rateSvc.BestPriceForReseller(c.Request.Context(), account.ID, account.WorkspaceID, params)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondData(c, result)
}
