package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// SweepPlan lists the categories and stores a scheduled sweep covers.
type SweepPlan struct {
	Categories []string `yaml:"categories"`
	Stores     []string `yaml:"stores"`
}

// LoadSweepPlan reads a YAML sweep plan from path.
func LoadSweepPlan(path string) (*SweepPlan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sweep plan: %w", err)
	}

	var plan SweepPlan
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("parse sweep plan: %w", err)
	}
	plan.Categories = compact(plan.Categories)
	plan.Stores = compact(plan.Stores)

	if len(plan.Categories) == 0 {
		return nil, fmt.Errorf("sweep plan %s has no categories", path)
	}
	return &plan, nil
}

// Plan returns the sweep plan for this configuration: the plan file when one
// is configured, otherwise the comma-separated env lists.
func (c *Config) Plan() (*SweepPlan, error) {
	if c.SweepPlanFile != "" {
		plan, err := LoadSweepPlan(c.SweepPlanFile)
		if err != nil {
			return nil, err
		}
		if len(plan.Stores) == 0 {
			plan.Stores = []string{c.DefaultStore}
		}
		return plan, nil
	}

	stores := c.SweepStores
	if len(stores) == 0 {
		stores = []string{c.DefaultStore}
	}
	return &SweepPlan{Categories: c.SweepCategories, Stores: stores}, nil
}

func compact(values []string) []string {
	out := values[:0]
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
