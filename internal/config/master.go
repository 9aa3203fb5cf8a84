package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/Veraticus/shiwake/internal/common"
	"github.com/Veraticus/shiwake/internal/model"
	"gopkg.in/yaml.v3"
)

// GroupCompany is one of the business's own legal entities.
type GroupCompany struct {
	Name    string   `yaml:"name"`
	Aliases []string `yaml:"aliases,omitempty"`
}

// DefaultRules are used when no vendor or keyword rule matches.
type DefaultRules struct {
	Sales    *model.JournalRule `yaml:"sales,omitempty"`
	Purchase *model.JournalRule `yaml:"purchase,omitempty"`
	Fallback *model.JournalRule `yaml:"fallback,omitempty"`
}

// MasterData is the vendor and rule master loaded at startup.
type MasterData struct {
	Defaults       DefaultRules        `yaml:"defaults"`
	DefaultBank    string              `yaml:"default_bank,omitempty"`
	GroupCompanies []GroupCompany      `yaml:"group_companies"`
	Vendors        []model.Vendor      `yaml:"vendors"`
	Rules          []model.JournalRule `yaml:"rules"`
	// EntryRules are looked up by name when creating typed entries and are
	// never keyword matched.
	EntryRules []model.JournalRule `yaml:"entry_rules,omitempty"`
	Banks      []model.Bank        `yaml:"banks,omitempty"`
	BankRules  []model.BankRule    `yaml:"bank_rules,omitempty"`
}

// LoadMasterData reads and validates a YAML master data file.
func LoadMasterData(path string) (*MasterData, error) {
	data, err := os.ReadFile(ExpandPath(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read master data: %w", err)
	}
	return ParseMasterData(data)
}

// ParseMasterData decodes and validates YAML master data.
func ParseMasterData(data []byte) (*MasterData, error) {
	var md MasterData
	if err := yaml.Unmarshal(data, &md); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidConfig, err)
	}
	if err := md.Validate(); err != nil {
		return nil, err
	}
	return &md, nil
}

// Validate checks vendor keys, roles and rule mappings.
func (md *MasterData) Validate() error {
	keys := make(map[string]bool, len(md.Vendors))
	for i, v := range md.Vendors {
		if strings.TrimSpace(v.Key) == "" {
			return fmt.Errorf("%w: vendor %d has no key", common.ErrInvalidConfig, i)
		}
		if keys[v.Key] {
			return fmt.Errorf("%w: duplicate vendor key %q", common.ErrInvalidConfig, v.Key)
		}
		keys[v.Key] = true
		if v.Role != model.RoleClient && v.Role != model.RoleSupplier {
			return fmt.Errorf("%w: vendor %q has invalid role %q", common.ErrInvalidConfig, v.Key, v.Role)
		}
		if len(v.MatchNames()) == 0 {
			return fmt.Errorf("%w: vendor %q has no name or aliases", common.ErrInvalidConfig, v.Key)
		}
		if v.DefaultMapping != nil {
			if err := validateMapping(*v.DefaultMapping); err != nil {
				return fmt.Errorf("vendor %q: %w", v.Key, err)
			}
		}
	}

	for i, r := range md.Rules {
		name := r.Name
		if name == "" {
			name = fmt.Sprintf("#%d", i)
		}
		if r.IsFallback() {
			return fmt.Errorf("%w: rule %s has neither vendor nor keywords", common.ErrInvalidConfig, name)
		}
		if r.VendorKey != "" && !keys[r.VendorKey] {
			return fmt.Errorf("%w: rule %s references unknown vendor %q", common.ErrInvalidConfig, name, r.VendorKey)
		}
		for _, kw := range r.Keywords {
			if strings.TrimSpace(kw) == "" {
				return fmt.Errorf("%w: rule %s has an empty keyword", common.ErrInvalidConfig, name)
			}
		}
		if r.Direction != nil && !r.Direction.IsValid() {
			return fmt.Errorf("%w: rule %s has invalid direction %q", common.ErrInvalidConfig, name, *r.Direction)
		}
		if r.AmountMin != nil && r.AmountMax != nil && *r.AmountMin > *r.AmountMax {
			return fmt.Errorf("%w: rule %s has amount_min above amount_max", common.ErrInvalidConfig, name)
		}
		if err := validateMapping(r.Mapping); err != nil {
			return fmt.Errorf("rule %s: %w", name, err)
		}
	}

	for _, d := range []*model.JournalRule{md.Defaults.Sales, md.Defaults.Purchase, md.Defaults.Fallback} {
		if d == nil {
			continue
		}
		if err := validateMapping(d.Mapping); err != nil {
			return fmt.Errorf("default rule %s: %w", d.Name, err)
		}
	}

	if err := md.validateEntryRules(); err != nil {
		return err
	}
	return md.validateBanks()
}

func (md *MasterData) validateEntryRules() error {
	names := make(map[string]bool, len(md.EntryRules))
	for i, r := range md.EntryRules {
		if strings.TrimSpace(r.Name) == "" {
			return fmt.Errorf("%w: entry rule %d has no name", common.ErrInvalidConfig, i)
		}
		if names[r.Name] {
			return fmt.Errorf("%w: duplicate entry rule %q", common.ErrInvalidConfig, r.Name)
		}
		names[r.Name] = true
		if err := validateMapping(r.Mapping); err != nil {
			return fmt.Errorf("entry rule %s: %w", r.Name, err)
		}
	}
	return nil
}

func (md *MasterData) validateBanks() error {
	ids := make(map[string]bool, len(md.Banks))
	for i, b := range md.Banks {
		if strings.TrimSpace(b.ID) == "" {
			return fmt.Errorf("%w: bank %d has no id", common.ErrInvalidConfig, i)
		}
		if ids[b.ID] {
			return fmt.Errorf("%w: duplicate bank id %q", common.ErrInvalidConfig, b.ID)
		}
		ids[b.ID] = true
	}
	if md.DefaultBank != "" && !ids[md.DefaultBank] {
		return fmt.Errorf("%w: default bank %q is not defined", common.ErrInvalidConfig, md.DefaultBank)
	}

	for i, r := range md.BankRules {
		name := r.Name
		if name == "" {
			return fmt.Errorf("%w: bank rule %d has no name", common.ErrInvalidConfig, i)
		}
		if !r.Flow.IsValid() {
			return fmt.Errorf("%w: bank rule %s has invalid flow %q", common.ErrInvalidConfig, name, r.Flow)
		}
		for _, kw := range r.Keywords {
			if strings.TrimSpace(kw) == "" {
				return fmt.Errorf("%w: bank rule %s has an empty keyword", common.ErrInvalidConfig, name)
			}
		}
		if err := validateMapping(r.Mapping); err != nil {
			return fmt.Errorf("bank rule %s: %w", name, err)
		}
	}
	return nil
}

func validateMapping(m model.AccountMapping) error {
	if strings.TrimSpace(m.DebitAccount) == "" || strings.TrimSpace(m.CreditAccount) == "" {
		return fmt.Errorf("%w: mapping needs both debit and credit accounts", common.ErrInvalidConfig)
	}
	return nil
}
