package service

import (
	"fmt"
	"strings"

	"github.com/fleetdesk/contracts/model"
)

// Validation messages returned to clients
const (
	MsgTitleRequired        = "Title is required"
	MsgOrganisationRequired = "Organisation is required"
	MsgAmountNegative       = "Amount must be non-negative"
	MsgEndBeforeEffective   = "End date must be after effective date"
	MsgSignedBeforeSent     = "Signed date must not be before sent date"
	MsgCurrencyInvalid      = "Currency must be a 3-letter ISO 4217 code"
	MsgTenantRequired       = "Tenant is required"
)

// validateContract checks every business rule and returns all violations
func validateContract(c *model.Contract) []string {
	var errs []string

	if strings.TrimSpace(c.TenantID) == "" {
		errs = append(errs, MsgTenantRequired)
	}
	if strings.TrimSpace(c.Title) == "" {
		errs = append(errs, MsgTitleRequired)
	}
	if strings.TrimSpace(c.OrganisationID) == "" {
		errs = append(errs, MsgOrganisationRequired)
	}
	if c.Amount != nil && c.Amount.IsNegative() {
		errs = append(errs, MsgAmountNegative)
	}
	if c.Currency != "" && !isCurrencyCode(c.Currency) {
		errs = append(errs, MsgCurrencyInvalid)
	}
	if !c.Type.Valid() {
		errs = append(errs, fmt.Sprintf("Type %q is not a valid contract type", c.Type))
	}
	if !c.Status.Valid() {
		errs = append(errs, fmt.Sprintf("Status %q is not a valid status", c.Status))
	}
	if c.EffectiveDate != nil && c.EndDate != nil && !c.EndDate.After(*c.EffectiveDate) {
		errs = append(errs, MsgEndBeforeEffective)
	}
	if c.SentDate != nil && c.SignedDate != nil && c.SignedDate.Before(*c.SentDate) {
		errs = append(errs, MsgSignedBeforeSent)
	}

	return errs
}

func isCurrencyCode(s string) bool {
	if len(s) != 3 {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
