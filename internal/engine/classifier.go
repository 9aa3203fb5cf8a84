// Package engine turns OCR fields into journal entry suggestions and drives
// the process and export pipeline around the ledger.
package engine

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/shiwake/internal/common"
	"github.com/Veraticus/shiwake/internal/model"
	"github.com/Veraticus/shiwake/internal/rules"
	"github.com/Veraticus/shiwake/internal/service"
)

// RuleLearning names the rule of a suggestion taken from a learning record.
const RuleLearning = "learning"

// Suggestion is a proposed journal entry for one document.
type Suggestion struct {
	Vendor          *model.Vendor      `json:"vendor,omitempty"`
	Entry           model.JournalEntry `json:"entry"`
	RuleName        string             `json:"rule_name"`
	Signature       string             `json:"signature"`
	Direction       model.Direction    `json:"direction"`
	LearningApplied bool               `json:"learning_applied"`
	IsDefault       bool               `json:"is_default"`
}

// Item is one document of a batch.
type Item struct {
	Source string
	Fields model.OCRFields
}

// ItemResult is the outcome of classifying one batch item.
type ItemResult struct {
	Err        error
	Suggestion *Suggestion
	Source     string
	Index      int
}

// Classifier suggests journal entries from OCR fields using learned
// corrections first and the rule index second.
type Classifier struct {
	index    *rules.Index
	learning service.LearningStore
	now      func() time.Time
}

// NewClassifier creates a classifier over an index and a learning store.
func NewClassifier(index *rules.Index, learning service.LearningStore) *Classifier {
	return &Classifier{
		index:    index,
		learning: learning,
		now:      time.Now,
	}
}

// SetClock replaces the processing-date source used when OCR has no date.
func (c *Classifier) SetClock(now func() time.Time) {
	c.now = now
}

// Index returns the rule index the classifier matches against.
func (c *Classifier) Index() *rules.Index {
	return c.index
}

// ResolveDirection returns direction when valid, otherwise infers it from
// the invoice parties.
func (c *Classifier) ResolveDirection(fields model.OCRFields, direction model.Direction) model.Direction {
	if direction.IsValid() {
		return direction
	}
	return c.index.DetermineDirection(model.Text(fields.Issuer), model.Text(fields.Recipient))
}

// Classify proposes a balanced journal entry for fields. Missing optional
// fields never fail; a missing issuer or an absent or unreadable amount does.
func (c *Classifier) Classify(ctx context.Context, fields model.OCRFields, direction model.Direction) (*Suggestion, error) {
	issuer := strings.TrimSpace(model.Text(fields.Issuer))
	if issuer == "" {
		return nil, &ClassificationError{Field: "issuer", Err: ErrMissingIssuer}
	}
	rawAmount := strings.TrimSpace(model.Text(fields.Amount))
	if rawAmount == "" {
		return nil, &ClassificationError{Field: "amount", Err: ErrMissingAmount}
	}
	amount, err := ParseAmount(rawAmount)
	if err != nil {
		return nil, &ClassificationError{Field: "amount", Value: rawAmount, Err: err}
	}

	direction = c.ResolveDirection(fields, direction)
	sig := model.Signature(issuer, direction)

	date := c.now()
	if d, ok := ParseDate(model.Text(fields.Date)); ok {
		date = d
	} else if fields.Date != nil {
		slog.Debug("Unreadable OCR date, using processing date", "date", *fields.Date, "issuer", issuer)
	}

	s := &Suggestion{Signature: sig, Direction: direction}

	learned, err := c.learning.LookupLearning(ctx, sig)
	switch {
	case err == nil:
		s.LearningApplied = true
		s.RuleName = RuleLearning
	case errors.Is(err, common.ErrNotFound):
	default:
		return nil, fmt.Errorf("failed to look up learning record: %w", err)
	}

	counterparty := issuer
	if recipient := strings.TrimSpace(model.Text(fields.Recipient)); direction == model.DirectionSales && recipient != "" && c.index.IsGroupCompany(issuer) {
		counterparty = recipient
	}

	var (
		mapping  model.AccountMapping
		template string
	)
	if s.LearningApplied {
		mapping = learned.Mapping
		if v, ok := c.index.FindVendor(counterparty); ok {
			s.Vendor = v
		}
	} else {
		res := c.index.MatchQuery(rules.Query{
			Issuer:    issuer,
			Direction: direction,
			Hints:     hints(fields),
			Amount:    amount,
		})
		s.RuleName = res.Rule.Name
		s.IsDefault = res.IsDefault
		s.Vendor = res.Vendor
		if s.Vendor == nil && counterparty != issuer {
			if v, ok := c.index.FindVendor(counterparty); ok {
				s.Vendor = v
			}
		}
		mapping = res.Rule.Mapping
		template = res.Rule.DescriptionTemplate
	}

	vars := templateVars{
		issuer:        issuer,
		vendor:        counterparty,
		invoiceNumber: model.Text(fields.InvoiceNumber),
		month:         int(date.Month()),
	}
	if s.Vendor != nil {
		vars.vendor = s.Vendor.Label()
	}
	if b, ok := c.index.Bank(""); ok {
		vars.bank = b.Label()
	}
	if !s.LearningApplied {
		mapping = vars.fillMapping(mapping)
	}

	description := strings.TrimSpace(model.Text(fields.Description))
	switch {
	case description != "":
	case template != "":
		description = vars.fill(template)
	default:
		description = vars.fill(DefaultDescription)
	}

	s.Entry = model.NewEntry(date, mapping, amount, description)

	slog.Debug("Classified document",
		"issuer", issuer,
		"signature", sig,
		"rule", s.RuleName,
		"learning_applied", s.LearningApplied)
	return s, nil
}

// ClassifyAll classifies items lazily and in order. A failing item yields
// an error result and never affects its siblings. Iteration stops once ctx
// is done.
func (c *Classifier) ClassifyAll(ctx context.Context, items []Item, direction model.Direction) iter.Seq[ItemResult] {
	return func(yield func(ItemResult) bool) {
		for i, it := range items {
			res := ItemResult{Index: i, Source: it.Source}
			if err := ctx.Err(); err != nil {
				res.Err = &common.ItemError{Index: i, Name: it.Source, Err: err}
				yield(res)
				return
			}
			s, err := c.Classify(ctx, it.Fields, direction)
			if err != nil {
				res.Err = &common.ItemError{Index: i, Name: it.Source, Err: err}
			} else {
				res.Suggestion = s
			}
			if !yield(res) {
				return
			}
		}
	}
}

// SubmitCorrection stores the accounts of a human-corrected entry as the
// learning record for the original document's issuer.
func (c *Classifier) SubmitCorrection(ctx context.Context, original model.OCRFields, corrected model.JournalEntry, direction model.Direction) error {
	issuer := strings.TrimSpace(model.Text(original.Issuer))
	if issuer == "" {
		return &ClassificationError{Field: "issuer", Err: ErrMissingIssuer}
	}
	mapping := corrected.Mapping()
	if strings.TrimSpace(mapping.DebitAccount) == "" || strings.TrimSpace(mapping.CreditAccount) == "" {
		return &ClassificationError{Field: "corrected", Err: ErrInvalidCorrection}
	}

	direction = c.ResolveDirection(original, direction)
	now := c.now()
	record := &model.LearningRecord{
		Signature: model.Signature(issuer, direction),
		Issuer:    issuer,
		Direction: direction,
		Mapping:   mapping,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := c.learning.UpsertLearning(ctx, record); err != nil {
		return fmt.Errorf("failed to save correction: %w", err)
	}

	common.LogInfo("Saved learning correction", common.Fields{
		"signature": record.Signature,
		"debit":     mapping.DebitAccount,
		"credit":    mapping.CreditAccount,
	})
	return nil
}

func hints(fields model.OCRFields) []string {
	var h []string
	if d := model.Text(fields.Description); d != "" {
		h = append(h, d)
	}
	for _, li := range fields.LineItems {
		h = append(h, li.Name)
	}
	return h
}
