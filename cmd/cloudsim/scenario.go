package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cuemby/cloudsim/pkg/config"
	"github.com/cuemby/cloudsim/pkg/cost"
	"github.com/cuemby/cloudsim/pkg/simulator"
)

// scenario is the YAML-decoded description of one simulation run: which
// policy to use, where its inputs live, and the knobs config.Config
// otherwise defaults.
type scenario struct {
	Policy       string   `yaml:"policy"`
	CatalogPath  string   `yaml:"catalog"`
	TracePaths   []string `yaml:"traces"`
	BillingPeriodS int64  `yaml:"billing_period_s"`
	PredictModel string   `yaml:"predict_model"`
	ProvisionDelayS float64 `yaml:"vm_provision_delay_s"`
	DeprovisionPercent float64 `yaml:"deprovision_percent"`
	MaxIter      int      `yaml:"max_iter"`

	// Deadline and Budget apply to every trace in TracePaths that does
	// not set its own — WfCommons traces carry neither (§6).
	DeadlineS *float64 `yaml:"deadline_s"`
	Budget    *float64 `yaml:"budget"`
}

func loadScenario(path string) (*scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scenario: read %s: %w", path, err)
	}
	var s scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("scenario: parse %s: %w", path, err)
	}
	if s.Policy == "" {
		return nil, fmt.Errorf("scenario: %s: policy is required", path)
	}
	if s.CatalogPath == "" {
		return nil, fmt.Errorf("scenario: %s: catalog is required", path)
	}
	if len(s.TracePaths) == 0 {
		return nil, fmt.Errorf("scenario: %s: at least one trace is required", path)
	}
	if (s.DeadlineS == nil) == (s.Budget == nil) {
		return nil, fmt.Errorf("scenario: %s: exactly one of deadline_s or budget must be set", path)
	}
	return &s, nil
}

// toConfig converts the scenario's tuning knobs to a config.Config,
// falling back to package defaults for anything left zero.
func (s *scenario) toConfig() (config.Config, error) {
	cfg := config.Default()
	if s.BillingPeriodS != 0 {
		cfg.BillingPeriodS = s.BillingPeriodS
	}
	if s.ProvisionDelayS != 0 {
		cfg.VMProvisionDelayS = s.ProvisionDelayS
	}
	if s.DeprovisionPercent != 0 {
		cfg.VMDeprovisionPercent = s.DeprovisionPercent
	}
	if s.MaxIter != 0 {
		cfg.OnDemandConfMaxIter = s.MaxIter
	}
	if s.PredictModel != "" {
		model, err := cost.ParseModel(s.PredictModel)
		if err != nil {
			return cfg, err
		}
		cfg.PredictModel = model
	}
	return cfg, nil
}

func (s *scenario) policy() simulator.Policy {
	return simulator.Policy(s.Policy)
}
