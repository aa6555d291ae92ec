package fields

import (
	"strings"

	"doppler-shopify-bridge/internal/domain"
)

// ResolveMapping validates the requested (shopifyPath → dopplerField)
// pairs against the live Doppler schema and the static catalog, and
// returns the resolved entries augmented with type/sample metadata.
//
// Checks run per pair in order: Doppler field exists, Shopify field
// exists, types match. The first failing check wins; errors are not
// aggregated. A Shopify path maps to at most one Doppler field and
// vice versa.
func ResolveMapping(dopplerFields []domain.DopplerField, pairs []domain.FieldMappingEntry) ([]domain.ResolvedMappingEntry, error) {
	byName := make(map[string]domain.DopplerField, len(dopplerFields))
	for _, f := range dopplerFields {
		byName[strings.ToLower(f.Name)] = f
	}

	seenPath := make(map[string]bool, len(pairs))
	seenField := make(map[string]bool, len(pairs))

	resolved := make([]domain.ResolvedMappingEntry, 0, len(pairs))
	for _, pair := range pairs {
		dopplerField, ok := byName[strings.ToLower(pair.DopplerField)]
		if !ok {
			return nil, &domain.UnknownDopplerFieldError{Name: pair.DopplerField}
		}

		shopifyField, ok := CatalogField(pair.ShopifyPath)
		if !ok {
			return nil, &domain.UnknownShopifyFieldError{Path: pair.ShopifyPath}
		}

		if !typesMatch(shopifyField.Type, dopplerField.Type) {
			return nil, &domain.TypeMismatchError{
				ShopifyPath:  pair.ShopifyPath,
				DopplerField: pair.DopplerField,
				ShopifyType:  shopifyField.Type,
				DopplerType:  dopplerField.Type,
			}
		}

		if seenPath[pair.ShopifyPath] {
			return nil, &domain.DuplicateMappingError{Field: pair.ShopifyPath}
		}
		if seenField[dopplerField.Name] {
			return nil, &domain.DuplicateMappingError{Field: pair.DopplerField}
		}
		seenPath[pair.ShopifyPath] = true
		seenField[dopplerField.Name] = true

		resolved = append(resolved, domain.ResolvedMappingEntry{
			ShopifyPath:  pair.ShopifyPath,
			DopplerField: dopplerField.Name,
			Type:         shopifyField.Type,
			Sample:       shopifyField.Sample,
		})
	}

	return resolved, nil
}

func typesMatch(shopifyType, dopplerType string) bool {
	return strings.EqualFold(shopifyType, dopplerType)
}

// ExtractValue returns the value at the dotted path in the customer
// record, or nil when any segment is absent. It is total: no input
// makes it fail.
func ExtractValue(customer domain.Customer, dottedPath string) interface{} {
	return customer.Value(dottedPath)
}

// BuildSubscriberFields applies the mapping to a customer and returns
// one {name, value} pair per entry, in mapping order. Entries whose
// extracted value is absent are omitted from the payload.
func BuildSubscriberFields(customer domain.Customer, mapping []domain.FieldMappingEntry) []domain.SubscriberField {
	out := make([]domain.SubscriberField, 0, len(mapping))
	for _, entry := range mapping {
		value := ExtractValue(customer, entry.ShopifyPath)
		if value == nil {
			continue
		}
		out = append(out, domain.SubscriberField{Name: entry.DopplerField, Value: value})
	}
	return out
}
