package domain

import "strings"

// Customer is a Shopify customer record as decoded JSON. Keeping the
// raw shape lets the field mapper address nested attributes by dotted
// path (e.g. "default_address.company") exactly as they appear on the
// wire.
type Customer map[string]interface{}

// Email returns the customer's email, or "" when absent or not a string.
func (c Customer) Email() string {
	email, _ := c["email"].(string)
	return email
}

// HasEmail reports whether the customer can be mapped to a Doppler
// subscriber identity. Customers without an email are dropped from
// synchronization, not reported as errors.
func (c Customer) HasEmail() bool {
	return c.Email() != ""
}

// Value walks the record segment by segment and returns the value at
// the dotted path, or nil when any intermediate segment is absent. It
// never fails: missing data is simply missing.
func (c Customer) Value(dottedPath string) interface{} {
	var current interface{} = map[string]interface{}(c)
	for _, segment := range strings.Split(dottedPath, ".") {
		node, ok := current.(map[string]interface{})
		if !ok {
			return nil
		}
		current, ok = node[segment]
		if !ok {
			return nil
		}
	}
	return current
}
