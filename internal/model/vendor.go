package model

// VendorRole indicates which side of a transaction a vendor stands on.
type VendorRole string

const (
	// RoleClient is a customer the business invoices (sales).
	RoleClient VendorRole = "client"
	// RoleSupplier is a vendor that invoices the business (purchases).
	RoleSupplier VendorRole = "supplier"
)

// Direction tells whether a transaction is a sale or a purchase.
type Direction string

const (
	// DirectionSales is money owed to the business.
	DirectionSales Direction = "sales"
	// DirectionPurchase is money the business owes.
	DirectionPurchase Direction = "purchase"
)

// IsValid reports whether d is a known direction.
func (d Direction) IsValid() bool {
	return d == DirectionSales || d == DirectionPurchase
}

// Vendor represents a known counterparty loaded from master data.
// Vendors are read-only for the lifetime of a session.
type Vendor struct {
	DefaultMapping *AccountMapping `yaml:"default_mapping,omitempty" json:"default_mapping,omitempty"`
	Key            string          `yaml:"key" json:"key"`
	Name           string          `yaml:"name" json:"name"`
	Role           VendorRole      `yaml:"role" json:"role"`
	SubAccount     string          `yaml:"sub_account,omitempty" json:"sub_account,omitempty"`
	Aliases        []string        `yaml:"aliases,omitempty" json:"aliases,omitempty"`
}

// MatchNames returns the display name followed by every alias.
func (v Vendor) MatchNames() []string {
	names := make([]string, 0, len(v.Aliases)+1)
	if v.Name != "" {
		names = append(names, v.Name)
	}
	return append(names, v.Aliases...)
}

// Label returns the sub-account label used in entries for this vendor.
func (v Vendor) Label() string {
	if v.SubAccount != "" {
		return v.SubAccount
	}
	return v.Name
}
