package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/fleetdesk/contracts/service"
)

type PricingHandler struct {
	schedule *service.FeeSchedule
}

func NewPricingHandler(schedule *service.FeeSchedule) *PricingHandler {
	return &PricingHandler{schedule: schedule}
}

// AuctionFee quotes the buyer fee for ?price
func (h *PricingHandler) AuctionFee(c *gin.Context) {
	price, err := decimal.NewFromString(c.Query("price"))
	if err != nil {
		respondErrors(c, http.StatusUnprocessableEntity, "Price must be a decimal number")
		return
	}

	bracket, err := h.schedule.BracketFor(price)
	if err != nil {
		msg := "Price is not covered by any fee bracket"
		if errors.Is(err, service.ErrNegativePrice) {
			msg = "Price must not be negative"
		}
		respondErrors(c, http.StatusUnprocessableEntity, msg)
		return
	}
	fee, err := h.schedule.Fee(price)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{
		"price":   price.StringFixed(2),
		"fee":     fee.StringFixed(2),
		"total":   price.Add(fee).StringFixed(2),
		"bracket": bracket,
	})
}
