package ingredient

import "strings"

// Field labels used by the upstream ingredient format.
const (
	LabelTotalAmount = "총량"
	LabelName        = "성분명"
	LabelQuantity    = "분량"
	LabelUnit        = "단위"
)

const (
	entrySeparator = ";"
	fieldSeparator = "|"
	keySeparator   = ":"
)

// ParsedIngredient is one ingredient row of a product.
type ParsedIngredient struct {
	// Classification is the usage or batch qualifier taken from the suffix
	// of the total-amount field (e.g. 내수용, 수출용). Nil when absent.
	Classification *string `json:"classification"`

	IngredientName string `json:"ingredientName"`

	// Quantity is kept as text; upstream values are not always numeric.
	Quantity string `json:"quantity"`

	Unit string `json:"unit"`
}

// Parse decodes a raw ingredient string. Entry order is preserved and
// duplicates are kept: the same compound listed for domestic and export use
// yields two rows. An empty input yields an empty, non-nil slice.
func Parse(input string) []ParsedIngredient {
	parsed := []ParsedIngredient{}
	if input == "" {
		return parsed
	}

	for _, raw := range strings.Split(input, entrySeparator) {
		entry := strings.TrimSpace(raw)
		if entry == "" {
			continue
		}

		fields := parseFields(entry)

		name := fields[LabelName]
		quantity := fields[LabelQuantity]
		unit := fields[LabelUnit]
		if name == "" || quantity == "" || unit == "" {
			continue
		}

		parsed = append(parsed, ParsedIngredient{
			Classification: classification(fields[LabelTotalAmount]),
			IngredientName: name,
			Quantity:       quantity,
			Unit:           unit,
		})
	}

	return parsed
}

// parseFields splits one entry into its label/value pairs. Unknown labels
// are kept; later duplicates overwrite earlier ones.
func parseFields(entry string) map[string]string {
	fields := make(map[string]string)

	for _, raw := range strings.Split(entry, fieldSeparator) {
		field := strings.TrimSpace(raw)
		if field == "" {
			continue
		}

		key, value, found := strings.Cut(field, keySeparator)
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if key == "" || value == "" {
			continue
		}

		fields[key] = value
	}

	return fields
}

// classification returns the text after the last '-' of a total-amount
// value, or nil when there is no '-', it is the final character, or the
// suffix is blank.
func classification(totalAmount string) *string {
	idx := strings.LastIndex(totalAmount, "-")
	if idx < 0 || idx == len(totalAmount)-1 {
		return nil
	}

	suffix := strings.TrimSpace(totalAmount[idx+1:])
	if suffix == "" {
		return nil
	}
	return &suffix
}

// SplitMainIngredients splits a '/'-separated list of main ingredient
// names (the MAIN_INGR_ENG field) into trimmed, non-empty names.
func SplitMainIngredients(raw string) []string {
	names := []string{}
	for _, part := range strings.Split(raw, "/") {
		if name := strings.TrimSpace(part); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// Describe returns the display columns for a row: classification ("-" when
// absent), name, and "quantity unit".
func (p ParsedIngredient) Describe() (classification, name, amount string) {
	classification = "-"
	if p.Classification != nil {
		classification = *p.Classification
	}
	return classification, p.IngredientName, p.Quantity + " " + p.Unit
}
