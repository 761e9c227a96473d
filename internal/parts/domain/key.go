package domain

import "strings"

// keySeparator joins normalized key components. The unit separator control
// character cannot survive normalization of any component, so joined keys
// are unambiguous without an escaping scheme.
const keySeparator = "\x1f"

// CompositeKey derives the catalog identity for a part from its item type,
// description and part number. Normalization is lower-case, trimmed, with
// internal whitespace runs collapsed to a single space, so the same part
// printed with different casing or spacing on two invoices resolves to the
// same catalog entry.
func CompositeKey(itemType, description, partNumber string) string {
	return strings.Join([]string{
		NormalizeComponent(itemType),
		NormalizeComponent(description),
		NormalizeComponent(partNumber),
	}, keySeparator)
}

// NormalizeComponent normalizes a single key component. Control characters
// are treated as whitespace, which keeps the separator out of components.
func NormalizeComponent(value string) string {
	value = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return ' '
		}
		return r
	}, value)
	return strings.Join(strings.Fields(strings.ToLower(value)), " ")
}
