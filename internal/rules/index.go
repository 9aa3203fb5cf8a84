// Package rules matches invoice issuers and text against vendor and
// journal rule master data.
package rules

import (
	"cmp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/Veraticus/shiwake/internal/config"
	"github.com/Veraticus/shiwake/internal/model"
)

// Query carries everything the index can match on.
type Query struct {
	Issuer    string
	Direction model.Direction
	// Hints is free text such as the invoice description and line item names.
	Hints  []string
	Amount int64
}

// Result is a matched rule plus the vendor it was matched through, if any.
type Result struct {
	Vendor *model.Vendor
	Rule   model.JournalRule
	// Specificity is the length of the matched alias or keyword; 0 for defaults.
	Specificity int
	IsDefault   bool
}

type candidate struct {
	rule        model.JournalRule
	order       int
	specificity int
}

type alias struct {
	name   string
	vendor int
}

type groupAlias struct {
	name    string
	company string
}

// Index is an immutable in-memory lookup over vendors and ordered rules.
// It is safe for concurrent use.
type Index struct {
	defaults    config.DefaultRules
	entryRules  map[string]model.JournalRule
	defaultBank string
	vendors     []model.Vendor
	rules       []model.JournalRule
	banks       []model.Bank
	bankRules   []model.BankRule
	aliases     []alias
	groups      []groupAlias
	// keywords holds the normalized keywords of rules[i].
	keywords [][]string
}

// NewIndex builds an index from master data.
func NewIndex(md *config.MasterData) *Index {
	idx := &Index{
		defaults: md.Defaults,
		vendors:  append([]model.Vendor(nil), md.Vendors...),
		rules:    append([]model.JournalRule(nil), md.Rules...),
	}

	for i, v := range idx.vendors {
		for _, name := range v.MatchNames() {
			if n := model.NormalizeName(name); n != "" {
				idx.aliases = append(idx.aliases, alias{name: n, vendor: i})
			}
		}
	}

	idx.keywords = make([][]string, len(idx.rules))
	for i, r := range idx.rules {
		for _, kw := range r.Keywords {
			if n := model.NormalizeName(kw); n != "" {
				idx.keywords[i] = append(idx.keywords[i], n)
			}
		}
	}

	for _, gc := range md.GroupCompanies {
		for _, name := range append([]string{gc.Name}, gc.Aliases...) {
			if n := model.NormalizeName(name); n != "" {
				idx.groups = append(idx.groups, groupAlias{name: n, company: gc.Name})
			}
		}
	}

	// Entry rules missing from master data fall back to the built-in ones.
	idx.entryRules = make(map[string]model.JournalRule)
	for _, r := range DefaultEntryRules() {
		idx.entryRules[r.Name] = r
	}
	for _, r := range md.EntryRules {
		idx.entryRules[r.Name] = r
	}

	idx.banks = append([]model.Bank(nil), md.Banks...)
	idx.defaultBank = md.DefaultBank

	idx.bankRules = append([]model.BankRule(nil), md.BankRules...)
	if len(idx.bankRules) == 0 {
		idx.bankRules = DefaultBankRules()
	}
	slices.SortStableFunc(idx.bankRules, func(a, b model.BankRule) int {
		return cmp.Compare(a.Priority, b.Priority)
	})

	return idx
}

// Match returns the best rule for an issuer, amount and direction.
// It never fails; when nothing matches the default rule is returned.
func (idx *Index) Match(issuer string, amount int64, direction model.Direction) model.JournalRule {
	return idx.MatchQuery(Query{Issuer: issuer, Amount: amount, Direction: direction}).Rule
}

// MatchQuery resolves q in three steps: vendor alias, rule candidates, defaults.
// The most specific candidate wins and ties go to the earliest declared rule.
// Vendor default mappings rank after every explicit rule.
func (idx *Index) MatchQuery(q Query) Result {
	issuer := model.NormalizeName(q.Issuer)
	text := issuer
	for _, h := range q.Hints {
		text += "\n" + model.NormalizeName(h)
	}

	vendorIdx, aliasLen := idx.matchVendor(issuer)

	var candidates []candidate
	for i, r := range idx.rules {
		if !matchesFilters(r, q) {
			continue
		}
		if r.VendorKey != "" {
			if vendorIdx >= 0 && idx.vendors[vendorIdx].Key == r.VendorKey {
				candidates = append(candidates, candidate{rule: r, order: i, specificity: aliasLen})
			}
			continue
		}
		if n := longestKeyword(idx.keywords[i], text); n > 0 {
			candidates = append(candidates, candidate{rule: r, order: i, specificity: n})
		}
	}

	var vendor *model.Vendor
	if vendorIdx >= 0 {
		v := idx.vendors[vendorIdx]
		vendor = &v
		if v.DefaultMapping != nil {
			candidates = append(candidates, candidate{
				rule: model.JournalRule{
					Name:      "vendor:" + v.Key,
					VendorKey: v.Key,
					Mapping:   *v.DefaultMapping,
				},
				order:       len(idx.rules) + vendorIdx,
				specificity: aliasLen,
			})
		}
	}

	if best, ok := pick(candidates); ok {
		return Result{Rule: best.rule, Vendor: vendor, Specificity: best.specificity}
	}
	return Result{Rule: idx.DefaultRule(q.Direction), Vendor: vendor, IsDefault: true}
}

// DefaultRule returns the configured default for a direction, falling back
// to the configured fallback and then the system default.
func (idx *Index) DefaultRule(direction model.Direction) model.JournalRule {
	switch {
	case direction == model.DirectionSales && idx.defaults.Sales != nil:
		return *idx.defaults.Sales
	case direction == model.DirectionPurchase && idx.defaults.Purchase != nil:
		return *idx.defaults.Purchase
	case idx.defaults.Fallback != nil:
		return *idx.defaults.Fallback
	}
	return model.SystemDefaultRule()
}

// FindVendor returns the vendor whose alias best matches name.
func (idx *Index) FindVendor(name string) (*model.Vendor, bool) {
	i, _ := idx.matchVendor(model.NormalizeName(name))
	if i < 0 {
		return nil, false
	}
	v := idx.vendors[i]
	return &v, true
}

// IsGroupCompany reports whether name refers to one of the business's own entities.
func (idx *Index) IsGroupCompany(name string) bool {
	_, ok := idx.GroupCompany(name)
	return ok
}

// GroupCompany returns the name of the group company whose longest alias
// appears in text.
func (idx *Index) GroupCompany(text string) (string, bool) {
	n := model.NormalizeName(text)
	if n == "" {
		return "", false
	}
	best, bestLen := "", 0
	for _, g := range idx.groups {
		if l := utf8.RuneCountInString(g.name); l > bestLen && strings.Contains(n, g.name) {
			best, bestLen = g.company, l
		}
	}
	return best, bestLen > 0
}

// Rule looks a rule up by name: entry rules first, then the ordered rules,
// then the direction defaults.
func (idx *Index) Rule(name string) (model.JournalRule, bool) {
	if r, ok := idx.entryRules[name]; ok {
		return r, true
	}
	for _, r := range idx.rules {
		if r.Name == name {
			return r, true
		}
	}
	for _, d := range []*model.JournalRule{idx.defaults.Sales, idx.defaults.Purchase, idx.defaults.Fallback} {
		if d != nil && d.Name == name {
			return *d, true
		}
	}
	return model.JournalRule{}, false
}

// Bank returns the bank account with id, or the default account when id
// is empty.
func (idx *Index) Bank(id string) (model.Bank, bool) {
	if id == "" {
		id = idx.defaultBank
	}
	if id == "" {
		return model.Bank{}, false
	}
	for _, b := range idx.banks {
		if b.ID == id {
			return b, true
		}
	}
	return model.Bank{}, false
}

// Banks returns a copy of the bank master.
func (idx *Index) Banks() []model.Bank {
	return append([]model.Bank(nil), idx.banks...)
}

// BankRules returns the statement rules ordered by priority.
func (idx *Index) BankRules() []model.BankRule {
	return append([]model.BankRule(nil), idx.bankRules...)
}

// DetermineDirection infers sales or purchase from the invoice parties.
func (idx *Index) DetermineDirection(issuer, recipient string) model.Direction {
	if idx.IsGroupCompany(issuer) {
		return model.DirectionSales
	}
	if idx.IsGroupCompany(recipient) {
		return model.DirectionPurchase
	}
	if v, ok := idx.FindVendor(recipient); ok && v.Role == model.RoleClient {
		return model.DirectionSales
	}
	return model.DirectionPurchase
}

// Vendors returns a copy of the vendor master.
func (idx *Index) Vendors() []model.Vendor {
	return append([]model.Vendor(nil), idx.vendors...)
}

// Rules returns a copy of the ordered rule list.
func (idx *Index) Rules() []model.JournalRule {
	return append([]model.JournalRule(nil), idx.rules...)
}

// matchVendor returns the vendor index with the longest alias contained in
// the normalized issuer, or -1.
func (idx *Index) matchVendor(issuer string) (int, int) {
	best, bestLen := -1, 0
	if issuer == "" {
		return best, bestLen
	}
	for _, a := range idx.aliases {
		l := utf8.RuneCountInString(a.name)
		if l <= bestLen || !strings.Contains(issuer, a.name) {
			continue
		}
		best, bestLen = a.vendor, l
	}
	return best, bestLen
}

func matchesFilters(r model.JournalRule, q Query) bool {
	if r.Direction != nil && q.Direction.IsValid() && *r.Direction != q.Direction {
		return false
	}
	if r.AmountMin != nil && q.Amount < *r.AmountMin {
		return false
	}
	if r.AmountMax != nil && q.Amount > *r.AmountMax {
		return false
	}
	return true
}

func longestKeyword(keywords []string, text string) int {
	best := 0
	for _, kw := range keywords {
		if n := utf8.RuneCountInString(kw); n > best && strings.Contains(text, kw) {
			best = n
		}
	}
	return best
}

// pick returns the candidate with the highest specificity, earliest order on ties.
func pick(candidates []candidate) (candidate, bool) {
	if len(candidates) == 0 {
		return candidate{}, false
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.specificity > best.specificity ||
			(c.specificity == best.specificity && c.order < best.order) {
			best = c
		}
	}
	return best, true
}
