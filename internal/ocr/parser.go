package ocr

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Veraticus/shiwake/internal/model"
)

// ErrNoJSON is returned when a reply contains no JSON object.
var ErrNoJSON = errors.New("no JSON object in response")

// ParseFields decodes a model reply into OCR fields. The reply may wrap the
// JSON in a markdown fence or surround it with prose; the first balanced
// object wins. Unknown keys are ignored and numbers keep their text form.
func ParseFields(reply string) (model.OCRFields, error) {
	obj, ok := firstObject(reply)
	if !ok {
		return model.OCRFields{}, ErrNoJSON
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(obj)))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return model.OCRFields{}, fmt.Errorf("failed to parse JSON response: %w", err)
	}

	fields := model.OCRFields{
		Issuer:        text(raw, "issuer", "vendor_name"),
		Recipient:     text(raw, "recipient"),
		Amount:        text(raw, "total_amount", "amount"),
		Date:          text(raw, "date"),
		InvoiceNumber: text(raw, "invoice_no", "invoice_number"),
		Description:   text(raw, "description"),
		DocumentType:  text(raw, "document_type"),
	}
	if c := text(raw, "confidence"); c != nil {
		if f, err := strconv.ParseFloat(*c, 64); err == nil {
			fields.Confidence = &f
		}
	}

	items, _ := first(raw, "items", "line_items").([]any)
	for _, it := range items {
		m, ok := it.(map[string]any)
		if !ok {
			continue
		}
		name := model.Text(text(m, "name"))
		if name == "" {
			continue
		}
		fields.LineItems = append(fields.LineItems, model.LineItem{
			Name:      name,
			Quantity:  text(m, "quantity"),
			UnitPrice: text(m, "unit_price"),
			Amount:    text(m, "amount"),
		})
	}
	return fields, nil
}

func first(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

// text returns the first present key as trimmed text, or nil.
func text(m map[string]any, keys ...string) *string {
	var s string
	switch v := first(m, keys...).(type) {
	case string:
		s = strings.TrimSpace(v)
	case json.Number:
		s = v.String()
	case bool:
		s = strconv.FormatBool(v)
	default:
		return nil
	}
	if s == "" {
		return nil
	}
	return &s
}

// firstObject finds the first balanced {...} in s, honoring JSON strings.
func firstObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString, escaped := false, false
	for i := start; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
