// Package ocr turns invoice images and PDFs into structured fields.
//
// The Extractor interface is the only contract the rest of the system
// depends on. AnthropicExtractor implements it with Claude vision messages;
// MockExtractor serves fixed results for tests and dry runs.
package ocr
