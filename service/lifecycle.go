package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fleetdesk/contracts/config"
	"github.com/fleetdesk/contracts/model"
	"github.com/fleetdesk/contracts/pkg/logger"
)

// CreateContractInput is the caller-supplied part of a new contract.
// Zero values are replaced by defaults before validation.
type CreateContractInput struct {
	ContractNumber string             `json:"contract_number" yaml:"contract_number"`
	Title          string             `json:"title" yaml:"title"`
	Type           model.ContractType `json:"type" yaml:"type"`
	Status         model.Status       `json:"status" yaml:"status"`
	OrganisationID string             `json:"organisation_id" yaml:"organisation_id"`
	DealID         *string            `json:"deal_id" yaml:"deal_id"`
	ContactIDs     []string           `json:"contact_ids" yaml:"contact_ids"`
	Amount         *decimal.Decimal   `json:"amount" yaml:"amount"`
	Currency       string             `json:"currency" yaml:"currency"`
	Version        string             `json:"version" yaml:"version"`
	EffectiveDate  *time.Time         `json:"effective_date" yaml:"effective_date"`
	EndDate        *time.Time         `json:"end_date" yaml:"end_date"`
	SentDate       *time.Time         `json:"sent_date" yaml:"sent_date"`
	SignedDate     *time.Time         `json:"signed_date" yaml:"signed_date"`
	AssignedUserID string             `json:"assigned_user_id" yaml:"assigned_user_id"`
	Notes          string             `json:"notes" yaml:"notes"`
}

// ContractPatch changes non-lifecycle fields. Nil fields are left untouched;
// an empty DealID detaches the deal.
type ContractPatch struct {
	Title            *string             `json:"title"`
	Type             *model.ContractType `json:"type"`
	OrganisationID   *string             `json:"organisation_id"`
	DealID           *string             `json:"deal_id"`
	ContactIDs       *[]string           `json:"contact_ids"`
	Amount           *decimal.Decimal    `json:"amount"`
	Currency         *string             `json:"currency"`
	Version          *string             `json:"version"`
	EffectiveDate    *time.Time          `json:"effective_date"`
	EndDate          *time.Time          `json:"end_date"`
	AssignedUserID   *string             `json:"assigned_user_id"`
	Notes            *string             `json:"notes"`
	ExpectedRevision *int64              `json:"revision"`
}

// TransitionOptions carries the optional parts of a status change
type TransitionOptions struct {
	Reason           string
	ExpectedRevision *int64
}

// Option configures a ContractManager
type Option func(*ContractManager)

// WithClock replaces the time source used for lifecycle timestamps
func WithClock(now func() time.Time) Option {
	return func(m *ContractManager) { m.now = now }
}

// WithNumberGenerator replaces the contract number generator
func WithNumberGenerator(g *NumberGenerator) Option {
	return func(m *ContractManager) { m.numbers = g }
}

// ContractManager owns the contract status field: it validates new
// contracts, enforces the transition table and bounds reactivations.
type ContractManager struct {
	repo             ContractRepository
	numbers          *NumberGenerator
	maxReactivations int
	now              func() time.Time
}

func NewContractManager(repo ContractRepository, cfg *config.ContractsConfig, opts ...Option) *ContractManager {
	m := &ContractManager{
		repo:             repo,
		numbers:          NewNumberGenerator(cfg.NumberPrefix),
		maxReactivations: cfg.MaxReactivations,
		now:              time.Now,
	}
	if m.maxReactivations <= 0 {
		m.maxReactivations = config.DefaultMaxReactivations
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// MaxReactivations returns how many EXPIRED -> ACTIVE cycles a contract may make
func (m *ContractManager) MaxReactivations() int {
	return m.maxReactivations
}

// CreateContract validates and stores a new contract on behalf of actor
func (m *ContractManager) CreateContract(ctx context.Context, in CreateContractInput, actor model.Actor) (*model.Contract, error) {
	now := m.now()

	c := &model.Contract{
		ID:             uuid.NewString(),
		TenantID:       actor.TenantID,
		ContractNumber: strings.TrimSpace(in.ContractNumber),
		Title:          strings.TrimSpace(in.Title),
		Type:           model.ContractType(strings.ToUpper(string(in.Type))),
		Status:         model.Status(strings.ToUpper(string(in.Status))),
		OrganisationID: strings.TrimSpace(in.OrganisationID),
		DealID:         normalizeOptional(in.DealID),
		ContactIDs:     in.ContactIDs,
		Amount:         in.Amount,
		Currency:       strings.ToUpper(strings.TrimSpace(in.Currency)),
		Version:        strings.TrimSpace(in.Version),
		EffectiveDate:  in.EffectiveDate,
		EndDate:        in.EndDate,
		SentDate:       in.SentDate,
		SignedDate:     in.SignedDate,
		AssignedUserID: strings.TrimSpace(in.AssignedUserID),
		Notes:          in.Notes,
		CreatedBy:      actor.ID,
	}
	if c.AssignedUserID == "" {
		c.AssignedUserID = actor.ID
	}
	if c.Status == "" {
		c.Status = model.StatusDraft
	}
	if c.Type == "" {
		c.Type = model.TypeOther
	}
	if c.Version == "" {
		c.Version = model.DefaultVersion
	}
	stampLifecycleDates(c, c.Status, now)

	errs := validateContract(c)
	if c.Status.Valid() && !c.Status.IsInitial() {
		errs = append(errs, fmt.Sprintf("Contracts cannot be created in status %s", c.Status))
	}
	if len(errs) > 0 {
		logger.Debug(ctx, "contract rejected", "errors", errs)
		return nil, newLifecycleError(ErrKindValidation, errs...)
	}

	generated := c.ContractNumber == ""
	for attempt := 1; ; attempt++ {
		if generated {
			c.ContractNumber = m.numbers.Next(now)
		}
		entry := &model.StatusChange{
			ToStatus:  c.Status,
			Reason:    "created",
			ActorID:   actor.ID,
			CreatedAt: now,
		}
		err := m.repo.Create(ctx, c, entry)
		if err == nil {
			break
		}
		if !errors.Is(err, ErrDuplicateNumber) {
			return nil, fmt.Errorf("failed to create contract: %w", err)
		}
		if !generated {
			return nil, newLifecycleError(ErrKindValidation,
				fmt.Sprintf("Contract number %s already exists", c.ContractNumber))
		}
		if attempt >= maxNumberAttempts {
			return nil, fmt.Errorf("failed to generate a unique contract number after %d attempts: %w", attempt, err)
		}
		logger.Warn(ctx, "generated contract number collided, retrying", "contract_number", c.ContractNumber)
	}

	logger.Info(ctx, "contract created",
		"contract_id", c.ID,
		"contract_number", c.ContractNumber,
		"status", c.Status,
	)
	return c, nil
}

// UpdateStatus moves a contract along one edge of the transition table
func (m *ContractManager) UpdateStatus(ctx context.Context, id string, to model.Status, actor model.Actor, opts TransitionOptions) (*model.Contract, error) {
	c, err := m.load(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if opts.ExpectedRevision != nil && *opts.ExpectedRevision != c.Revision {
		return nil, conflictError()
	}

	from := c.Status
	if !model.CanTransition(from, to) {
		return nil, newLifecycleError(ErrKindIllegalTransition,
			fmt.Sprintf("Cannot transition from %s to %s", from, to))
	}

	reason := strings.TrimSpace(opts.Reason)
	if model.IsReactivation(from, to) {
		if c.ReactivationCount >= m.maxReactivations {
			logger.Warn(ctx, "reactivation refused", "contract_id", c.ID, "reactivation_count", c.ReactivationCount)
			return nil, newLifecycleError(ErrKindReactivationLimit,
				fmt.Sprintf("Contract has reached the maximum reactivation limit of %d", m.maxReactivations))
		}
		c.ReactivationCount++
		reason = reactivationReason(c.ReactivationCount, reason)
	}

	now := m.now()
	revision := c.Revision
	c.Status = to
	stampLifecycleDates(c, to, now)

	if errs := validateContract(c); len(errs) > 0 {
		return nil, newLifecycleError(ErrKindValidation, errs...)
	}

	entry := &model.StatusChange{
		FromStatus: from,
		ToStatus:   to,
		Reason:     reason,
		ActorID:    actor.ID,
		CreatedAt:  now,
	}
	if err := m.repo.Update(ctx, c, revision, entry); err != nil {
		return nil, m.mapWriteError(err, id)
	}

	logger.Info(ctx, "contract status changed",
		"contract_id", c.ID,
		"from", from,
		"to", to,
		"reactivation_count", c.ReactivationCount,
	)
	return c, nil
}

// UpdateContract applies a field patch and re-validates the result
func (m *ContractManager) UpdateContract(ctx context.Context, id string, patch ContractPatch, actor model.Actor) (*model.Contract, error) {
	c, err := m.load(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if patch.ExpectedRevision != nil && *patch.ExpectedRevision != c.Revision {
		return nil, conflictError()
	}

	revision := c.Revision
	applyPatch(c, patch)
	if errs := validateContract(c); len(errs) > 0 {
		return nil, newLifecycleError(ErrKindValidation, errs...)
	}

	if err := m.repo.Update(ctx, c, revision, nil); err != nil {
		return nil, m.mapWriteError(err, id)
	}
	logger.Info(ctx, "contract updated", "contract_id", c.ID, "revision", c.Revision)
	return c, nil
}

// GetContract returns one contract visible to actor
func (m *ContractManager) GetContract(ctx context.Context, id string, actor model.Actor) (*model.Contract, error) {
	return m.load(ctx, id, actor)
}

// ListContracts returns the actor's tenant contracts matching filter
func (m *ContractManager) ListContracts(ctx context.Context, actor model.Actor, filter model.ContractFilter) ([]*model.Contract, error) {
	contracts, err := m.repo.List(ctx, actor.TenantID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list contracts: %w", err)
	}
	return contracts, nil
}

func (m *ContractManager) ByOrganisation(ctx context.Context, actor model.Actor, organisationID string) ([]*model.Contract, error) {
	return m.ListContracts(ctx, actor, model.ContractFilter{OrganisationID: organisationID})
}

func (m *ContractManager) ByDeal(ctx context.Context, actor model.Actor, dealID string) ([]*model.Contract, error) {
	return m.ListContracts(ctx, actor, model.ContractFilter{DealID: dealID})
}

func (m *ContractManager) ByStatus(ctx context.Context, actor model.Actor, status model.Status) ([]*model.Contract, error) {
	return m.ListContracts(ctx, actor, model.ContractFilter{Status: status})
}

func (m *ContractManager) ByType(ctx context.Context, actor model.Actor, typ model.ContractType) ([]*model.Contract, error) {
	return m.ListContracts(ctx, actor, model.ContractFilter{Type: typ})
}

// ExpiringWithin returns ACTIVE contracts whose end date falls in [now, now+days]
func (m *ContractManager) ExpiringWithin(ctx context.Context, actor model.Actor, days int) ([]*model.Contract, error) {
	if days < 0 {
		return nil, newLifecycleError(ErrKindValidation, "Days must not be negative")
	}
	from := m.now()
	to := from.AddDate(0, 0, days)
	return m.ListContracts(ctx, actor, model.ContractFilter{
		Status:      model.StatusActive,
		EndDateFrom: &from,
		EndDateTo:   &to,
	})
}

// History returns the status trail of one contract, oldest first
func (m *ContractManager) History(ctx context.Context, id string, actor model.Actor) ([]*model.StatusChange, error) {
	entries, err := m.repo.History(ctx, actor.TenantID, id)
	if errors.Is(err, ErrNotFound) {
		return nil, notFoundError(id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	return entries, nil
}

func (m *ContractManager) load(ctx context.Context, id string, actor model.Actor) (*model.Contract, error) {
	c, err := m.repo.Get(ctx, actor.TenantID, id)
	if errors.Is(err, ErrNotFound) {
		return nil, notFoundError(id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load contract: %w", err)
	}
	return c, nil
}

func (m *ContractManager) mapWriteError(err error, id string) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return notFoundError(id)
	case errors.Is(err, ErrRevisionConflict):
		return conflictError()
	default:
		return fmt.Errorf("failed to update contract: %w", err)
	}
}

func notFoundError(id string) *LifecycleError {
	return newLifecycleError(ErrKindNotFound, fmt.Sprintf("Contract %s not found", id))
}

func conflictError() *LifecycleError {
	return newLifecycleError(ErrKindConflict, "Contract was modified by another request; reload and retry")
}

// stampLifecycleDates records when a contract first entered SENT or SIGNED.
// An existing stamp is never overwritten.
func stampLifecycleDates(c *model.Contract, status model.Status, now time.Time) {
	switch status {
	case model.StatusSent:
		if c.SentDate == nil {
			t := now
			c.SentDate = &t
		}
	case model.StatusSigned:
		if c.SignedDate == nil {
			t := now
			c.SignedDate = &t
		}
	}
}

func reactivationReason(n int, reason string) string {
	if reason == "" {
		return fmt.Sprintf("reactivation #%d", n)
	}
	return fmt.Sprintf("reactivation #%d: %s", n, reason)
}

func applyPatch(c *model.Contract, p ContractPatch) {
	if p.Title != nil {
		c.Title = strings.TrimSpace(*p.Title)
	}
	if p.Type != nil {
		c.Type = model.ContractType(strings.ToUpper(string(*p.Type)))
	}
	if p.OrganisationID != nil {
		c.OrganisationID = strings.TrimSpace(*p.OrganisationID)
	}
	if p.DealID != nil {
		c.DealID = normalizeOptional(p.DealID)
	}
	if p.ContactIDs != nil {
		c.ContactIDs = append([]string(nil), (*p.ContactIDs)...)
	}
	if p.Amount != nil {
		amount := *p.Amount
		c.Amount = &amount
	}
	if p.Currency != nil {
		c.Currency = strings.ToUpper(strings.TrimSpace(*p.Currency))
	}
	if p.Version != nil {
		c.Version = strings.TrimSpace(*p.Version)
	}
	if p.EffectiveDate != nil {
		t := *p.EffectiveDate
		c.EffectiveDate = &t
	}
	if p.EndDate != nil {
		t := *p.EndDate
		c.EndDate = &t
	}
	if p.AssignedUserID != nil {
		c.AssignedUserID = strings.TrimSpace(*p.AssignedUserID)
	}
	if p.Notes != nil {
		c.Notes = *p.Notes
	}
}

func normalizeOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
