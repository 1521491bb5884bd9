package service

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/fleetdesk/contracts/model"
	"github.com/fleetdesk/contracts/pkg/logger"
)

// SeedFile lists contracts to load into an empty installation
type SeedFile struct {
	Contracts []SeedContract `yaml:"contracts"`
}

// SeedContract is created as Actor in Tenant, then walked through Transitions in order
type SeedContract struct {
	Tenant      string              `yaml:"tenant"`
	Actor       string              `yaml:"actor"`
	Contract    CreateContractInput `yaml:"contract"`
	Transitions []model.Status      `yaml:"transitions"`
}

func LoadSeedFile(path string) (*SeedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var seed SeedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	return &seed, nil
}

// SeedContracts creates each seed through the manager so seeded records obey
// the same validation and transition rules as live ones. It stops at the
// first failure and reports how many contracts were fully seeded.
func SeedContracts(ctx context.Context, mgr *ContractManager, seeds []SeedContract) (int, error) {
	for i, seed := range seeds {
		actor := model.Actor{ID: seed.Actor, Username: seed.Actor, TenantID: seed.Tenant, Role: model.RoleAdmin}
		if actor.ID == "" {
			actor.ID = "seed"
		}

		c, err := mgr.CreateContract(ctx, seed.Contract, actor)
		if err != nil {
			return i, fmt.Errorf("seed %d (%q): %w", i, seed.Contract.Title, err)
		}
		for _, to := range seed.Transitions {
			if c, err = mgr.UpdateStatus(ctx, c.ID, to, actor, TransitionOptions{Reason: "seed"}); err != nil {
				return i, fmt.Errorf("seed %d (%q) -> %s: %w", i, seed.Contract.Title, to, err)
			}
		}
	}
	logger.Info(ctx, "contracts seeded", "count", len(seeds))
	return len(seeds), nil
}
