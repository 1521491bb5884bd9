package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ContractType classifies a contract
type ContractType string

const (
	TypeMaster           ContractType = "MASTER"
	TypeOrder            ContractType = "ORDER"
	TypeService          ContractType = "SERVICE"
	TypeNDA              ContractType = "NDA"
	TypeAmendment        ContractType = "AMENDMENT"
	TypeServiceAgreement ContractType = "SERVICE_AGREEMENT"
	TypeOther            ContractType = "OTHER"
)

var contractTypes = []ContractType{
	TypeMaster, TypeOrder, TypeService, TypeNDA, TypeAmendment, TypeServiceAgreement, TypeOther,
}

// Valid reports whether t is a known contract type
func (t ContractType) Valid() bool {
	for _, known := range contractTypes {
		if t == known {
			return true
		}
	}
	return false
}

// DefaultVersion is assigned to contracts created without a version
const DefaultVersion = "1.0"

// Contract is a tenant-scoped commercial agreement with an organisation
type Contract struct {
	ID                string           `gorm:"primaryKey;size:36" json:"id"`
	TenantID          string           `gorm:"column:tenant_id;size:64;not null;uniqueIndex:idx_contracts_tenant_number,priority:1" json:"tenant_id"`
	ContractNumber    string           `gorm:"column:contract_number;size:64;not null;uniqueIndex:idx_contracts_tenant_number,priority:2" json:"contract_number"`
	Title             string           `gorm:"column:title;size:255" json:"title"`
	Type              ContractType     `gorm:"column:type;size:32" json:"type"`
	Status            Status           `gorm:"column:status;size:16;index" json:"status"`
	OrganisationID    string           `gorm:"column:organisation_id;size:64;not null;index" json:"organisation_id"`
	DealID            *string          `gorm:"column:deal_id;size:64;index" json:"deal_id,omitempty"`
	ContactIDs        []string         `gorm:"column:contact_ids;serializer:json" json:"contact_ids"`
	Amount            *decimal.Decimal `gorm:"column:amount;type:numeric(18,2)" json:"amount,omitempty"`
	Currency          string           `gorm:"column:currency;size:3" json:"currency,omitempty"`
	Version           string           `gorm:"column:version;size:16" json:"version"`
	EffectiveDate     *time.Time       `gorm:"column:effective_date" json:"effective_date,omitempty"`
	EndDate           *time.Time       `gorm:"column:end_date;index" json:"end_date,omitempty"`
	SentDate          *time.Time       `gorm:"column:sent_date" json:"sent_date,omitempty"`
	SignedDate        *time.Time       `gorm:"column:signed_date" json:"signed_date,omitempty"`
	ReactivationCount int              `gorm:"column:reactivation_count;not null;default:0" json:"reactivation_count"`
	AssignedUserID    string           `gorm:"column:assigned_user_id;size:64" json:"assigned_user_id"`
	Notes             string           `gorm:"column:notes;type:text" json:"notes,omitempty"`
	CreatedBy         string           `gorm:"column:created_by;size:64" json:"created_by"`
	Revision          int64            `gorm:"column:revision;not null;default:1" json:"revision"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

func (Contract) TableName() string { return "contracts" }

// Clone returns a deep copy so callers never share pointer fields with a store
func (c *Contract) Clone() *Contract {
	if c == nil {
		return nil
	}
	out := *c
	out.DealID = cloneString(c.DealID)
	out.Amount = cloneDecimal(c.Amount)
	out.EffectiveDate = cloneTime(c.EffectiveDate)
	out.EndDate = cloneTime(c.EndDate)
	out.SentDate = cloneTime(c.SentDate)
	out.SignedDate = cloneTime(c.SignedDate)
	if c.ContactIDs != nil {
		out.ContactIDs = append([]string(nil), c.ContactIDs...)
	}
	return &out
}

// StatusChange is one entry of a contract's audit trail
type StatusChange struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	TenantID   string    `gorm:"column:tenant_id;size:64;not null;index:idx_status_changes_contract,priority:1" json:"-"`
	ContractID string    `gorm:"column:contract_id;size:36;not null;index:idx_status_changes_contract,priority:2" json:"contract_id"`
	FromStatus Status    `gorm:"column:from_status;size:16" json:"from_status"`
	ToStatus   Status    `gorm:"column:to_status;size:16" json:"to_status"`
	Reason     string    `gorm:"column:reason;type:text" json:"reason,omitempty"`
	ActorID    string    `gorm:"column:actor_id;size:64" json:"actor_id"`
	CreatedAt  time.Time `json:"created_at"`
}

func (StatusChange) TableName() string { return "contract_status_changes" }

// ContractFilter narrows a tenant-scoped listing; zero fields match everything
type ContractFilter struct {
	OrganisationID string
	DealID         string
	Status         Status
	Type           ContractType
	EndDateFrom    *time.Time
	EndDateTo      *time.Time
}

// Matches reports whether c satisfies every set field of f
func (f ContractFilter) Matches(c *Contract) bool {
	if f.OrganisationID != "" && c.OrganisationID != f.OrganisationID {
		return false
	}
	if f.DealID != "" && (c.DealID == nil || *c.DealID != f.DealID) {
		return false
	}
	if f.Status != "" && c.Status != f.Status {
		return false
	}
	if f.Type != "" && c.Type != f.Type {
		return false
	}
	if f.EndDateFrom != nil || f.EndDateTo != nil {
		if c.EndDate == nil {
			return false
		}
		if f.EndDateFrom != nil && c.EndDate.Before(*f.EndDateFrom) {
			return false
		}
		if f.EndDateTo != nil && c.EndDate.After(*f.EndDateTo) {
			return false
		}
	}
	return true
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneDecimal(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}
