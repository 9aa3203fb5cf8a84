package bank

import (
	"strings"

	"github.com/Veraticus/shiwake/internal/model"
	"github.com/Veraticus/shiwake/internal/rules"
)

// Confidence levels assigned by the matcher.
const (
	// ReviewThreshold is the confidence below which a line needs review.
	ReviewThreshold = 0.7

	confidenceKeywordBase  = 0.9
	confidencePerPriority  = 0.01
	confidenceCounterparty = 0.85
	confidenceFallback     = 0.5
)

// Match is the rule chosen for a statement line.
type Match struct {
	Rule model.BankRule
	// Counterparty is the vendor or group company named in the description.
	Counterparty string
	Confidence   float64
}

// NeedsReview reports whether the match is too uncertain to post unseen.
func (m Match) NeedsReview() bool {
	return m.Confidence < ReviewThreshold
}

// Matcher picks bank rules for statement descriptions. It is safe for
// concurrent use.
type Matcher struct {
	index    *rules.Index
	rules    []model.BankRule
	keywords [][]string
}

// NewMatcher builds a matcher over the index's bank rules.
func NewMatcher(index *rules.Index) *Matcher {
	m := &Matcher{index: index, rules: index.BankRules()}
	m.keywords = make([][]string, len(m.rules))
	for i, r := range m.rules {
		for _, kw := range r.Keywords {
			if n := model.NormalizeName(kw); n != "" {
				m.keywords[i] = append(m.keywords[i], n)
			}
		}
	}
	return m
}

// Match returns the rule for a description moving money in flow.
//
// The first keyword rule in priority order wins, with confidence falling by
// priority. A deposit naming a known client or group company and matching
// no keyword is a receivable collection. Anything else falls back to the
// suspense rule of its flow.
func (m *Matcher) Match(description string, flow model.Flow) Match {
	text := model.NormalizeName(description)
	counterparty := m.counterparty(description, flow)

	for i, r := range m.rules {
		if r.Flow != flow || !containsAny(text, m.keywords[i]) {
			continue
		}
		return Match{
			Rule:         r,
			Counterparty: counterparty,
			Confidence:   confidenceKeywordBase - float64(r.Priority)*confidencePerPriority,
		}
	}

	if counterparty != "" {
		if r, ok := m.rule(rules.BankRuleReceivable); ok {
			return Match{Rule: r, Counterparty: counterparty, Confidence: confidenceCounterparty}
		}
	}
	return Match{Rule: m.fallback(flow), Counterparty: counterparty, Confidence: confidenceFallback}
}

// counterparty finds who paid a deposit. Withdrawals carry no counterparty.
func (m *Matcher) counterparty(description string, flow model.Flow) string {
	if flow != model.FlowDeposit {
		return ""
	}
	if v, ok := m.index.FindVendor(description); ok && v.Role == model.RoleClient {
		return v.Label()
	}
	if name, ok := m.index.GroupCompany(description); ok {
		return name
	}
	return ""
}

func (m *Matcher) rule(name string) (model.BankRule, bool) {
	for _, r := range m.rules {
		if r.Name == name {
			return r, true
		}
	}
	return model.BankRule{}, false
}

// fallback returns the suspense rule for flow, synthesizing one when the
// configured rules have none.
func (m *Matcher) fallback(flow model.Flow) model.BankRule {
	if flow == model.FlowDeposit {
		if r, ok := m.rule(rules.BankRuleUnknownDeposit); ok {
			return r
		}
		return model.BankRule{
			Name: rules.BankRuleUnknownDeposit,
			Flow: flow,
			Mapping: model.AccountMapping{
				DebitAccount:    "普通預金",
				DebitSubAccount: rules.BankPlaceholder,
				CreditAccount:   "仮受金",
			},
		}
	}
	if r, ok := m.rule(rules.BankRuleUnknownWithdrawal); ok {
		return r
	}
	return model.BankRule{
		Name: rules.BankRuleUnknownWithdrawal,
		Flow: flow,
		Mapping: model.AccountMapping{
			DebitAccount:     "仮払金",
			CreditAccount:    "普通預金",
			CreditSubAccount: rules.BankPlaceholder,
		},
	}
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
