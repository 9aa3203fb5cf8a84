package testutil

import (
	"time"

	"github.com/Veraticus/shiwake/internal/model"
)

// EntryBuilder builds balanced journal entries for tests.
// The zero configuration is a 1,000 yen 消耗品費 / 未払金 entry dated 2024-04-01.
type EntryBuilder struct {
	date        time.Time
	mapping     model.AccountMapping
	description string
	amount      int64
}

// NewEntry starts a builder with the default entry.
func NewEntry() *EntryBuilder {
	return &EntryBuilder{
		date: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
		mapping: model.AccountMapping{
			DebitAccount:  "消耗品費",
			CreditAccount: "未払金",
		},
		description: "test entry",
		amount:      1000,
	}
}

func (b *EntryBuilder) On(year int, month time.Month, day int) *EntryBuilder {
	b.date = time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return b
}

func (b *EntryBuilder) Amount(yen int64) *EntryBuilder {
	b.amount = yen
	return b
}

func (b *EntryBuilder) Debit(account, sub, tax string) *EntryBuilder {
	b.mapping.DebitAccount = account
	b.mapping.DebitSubAccount = sub
	b.mapping.DebitTaxCategory = tax
	return b
}

func (b *EntryBuilder) Credit(account, sub, tax string) *EntryBuilder {
	b.mapping.CreditAccount = account
	b.mapping.CreditSubAccount = sub
	b.mapping.CreditTaxCategory = tax
	return b
}

func (b *EntryBuilder) Description(s string) *EntryBuilder {
	b.description = s
	return b
}

// Build returns the entry. The builder can be reused.
func (b *EntryBuilder) Build() model.JournalEntry {
	return model.NewEntry(b.date, b.mapping, b.amount, b.description)
}
