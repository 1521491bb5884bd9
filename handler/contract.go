package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/fleetdesk/contracts/middleware"
	"github.com/fleetdesk/contracts/model"
	"github.com/fleetdesk/contracts/service"
)

// defaultExpiringDays is used when /contracts/expiring is called without ?days
const defaultExpiringDays = 30

type ContractHandler struct {
	manager *service.ContractManager
}

func NewContractHandler(manager *service.ContractManager) *ContractHandler {
	return &ContractHandler{manager: manager}
}

type StatusRequest struct {
	Status   string `json:"status" binding:"required"`
	Reason   string `json:"reason"`
	Revision *int64 `json:"revision"`
}

// Create validates and stores a new contract
func (h *ContractHandler) Create(c *gin.Context) {
	var req service.CreateContractInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErrors(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	contract, err := h.manager.CreateContract(c.Request.Context(), req, middleware.GetActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, contract)
}

// List returns the tenant's contracts, optionally filtered by query parameters
func (h *ContractHandler) List(c *gin.Context) {
	filter := model.ContractFilter{
		OrganisationID: strings.TrimSpace(c.Query("organisation_id")),
		DealID:         strings.TrimSpace(c.Query("deal_id")),
	}

	var errs []string
	if raw := c.Query("status"); raw != "" {
		status, err := model.ParseStatus(raw)
		if err != nil {
			errs = append(errs, fmt.Sprintf("Status %q is not a valid status", raw))
		}
		filter.Status = status
	}
	if raw := c.Query("type"); raw != "" {
		typ := model.ContractType(strings.ToUpper(strings.TrimSpace(raw)))
		if !typ.Valid() {
			errs = append(errs, fmt.Sprintf("Type %q is not a valid contract type", raw))
		}
		filter.Type = typ
	}
	if len(errs) > 0 {
		respondErrors(c, http.StatusUnprocessableEntity, errs...)
		return
	}

	contracts, err := h.manager.ListContracts(c.Request.Context(), middleware.GetActor(c), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, contracts)
}

// Expiring returns ACTIVE contracts ending within ?days days
func (h *ContractHandler) Expiring(c *gin.Context) {
	days := defaultExpiringDays
	if raw := c.Query("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respondErrors(c, http.StatusUnprocessableEntity, "Days must be a whole number")
			return
		}
		days = n
	}

	contracts, err := h.manager.ExpiringWithin(c.Request.Context(), middleware.GetActor(c), days)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, contracts)
}

// Transitions lists the statuses reachable from ?from
func (h *ContractHandler) Transitions(c *gin.Context) {
	raw := c.Query("from")
	from, err := model.ParseStatus(raw)
	if err != nil {
		respondErrors(c, http.StatusUnprocessableEntity, fmt.Sprintf("Status %q is not a valid status", raw))
		return
	}
	respondOK(c, http.StatusOK, gin.H{
		"from":              from,
		"allowed":           model.AllowedTransitions(from),
		"max_reactivations": h.manager.MaxReactivations(),
	})
}

// Get returns a single contract
func (h *ContractHandler) Get(c *gin.Context) {
	contract, err := h.manager.GetContract(c.Request.Context(), c.Param("id"), middleware.GetActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, contract)
}

// Patch updates non-lifecycle fields
func (h *ContractHandler) Patch(c *gin.Context) {
	var req service.ContractPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErrors(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	contract, err := h.manager.UpdateContract(c.Request.Context(), c.Param("id"), req, middleware.GetActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, contract)
}

// UpdateStatus moves a contract to another lifecycle status
func (h *ContractHandler) UpdateStatus(c *gin.Context) {
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErrors(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	to, err := model.ParseStatus(req.Status)
	if err != nil {
		respondErrors(c, http.StatusUnprocessableEntity, fmt.Sprintf("Status %q is not a valid status", req.Status))
		return
	}

	contract, err := h.manager.UpdateStatus(c.Request.Context(), c.Param("id"), to, middleware.GetActor(c), service.TransitionOptions{
		Reason:           req.Reason,
		ExpectedRevision: req.Revision,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, contract)
}

// History returns the status trail of a contract
func (h *ContractHandler) History(c *gin.Context) {
	entries, err := h.manager.History(c.Request.Context(), c.Param("id"), middleware.GetActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, entries)
}
