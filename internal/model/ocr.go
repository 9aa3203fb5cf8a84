package model

// LineItem is one invoice detail row as read by OCR.
type LineItem struct {
	Quantity  *string `json:"quantity,omitempty"`
	UnitPrice *string `json:"unit_price,omitempty"`
	Amount    *string `json:"amount,omitempty"`
	Name      string  `json:"name"`
}

// OCRFields is the structured output of the vision extraction step.
// A nil pointer means the field was not present in the document; numeric
// fields stay raw text so that unreadable values can be told apart from
// missing ones.
type OCRFields struct {
	Issuer        *string    `json:"issuer,omitempty"`
	Recipient     *string    `json:"recipient,omitempty"`
	Amount        *string    `json:"amount,omitempty"`
	Date          *string    `json:"date,omitempty"`
	InvoiceNumber *string    `json:"invoice_number,omitempty"`
	Description   *string    `json:"description,omitempty"`
	DocumentType  *string    `json:"document_type,omitempty"`
	Confidence    *float64   `json:"confidence,omitempty"`
	LineItems     []LineItem `json:"line_items,omitempty"`
}

// Text returns the value of an optional field, or "" when absent.
func Text(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
