package fields

// ShopifyField describes one Shopify customer attribute that can be
// offered for mapping: its dotted path into the customer record, a
// display name, its semantic type and a sample value.
type ShopifyField struct {
	Path   string      `json:"path"`
	Name   string      `json:"name"`
	Type   string      `json:"type"`
	Sample interface{} `json:"sample"`
}

// Semantic types shared between the Shopify catalog and Doppler's
// field schema. A mapping is valid only when both sides agree.
const (
	TypeString  = "string"
	TypeNumber  = "number"
	TypeBoolean = "boolean"
	TypeEmail   = "email"
	TypeDate    = "date"
)

var catalog = []ShopifyField{
	{Path: "email", Name: "Email", Type: TypeEmail, Sample: "jonsnow@example.com"},
	{Path: "first_name", Name: "First Name", Type: TypeString, Sample: "Jon"},
	{Path: "last_name", Name: "Last Name", Type: TypeString, Sample: "Snow"},
	{Path: "phone", Name: "Phone", Type: TypeString, Sample: "+15142546011"},
	{Path: "note", Name: "Note", Type: TypeString, Sample: "Placed an order that had a fraud warning"},
	{Path: "tags", Name: "Tags", Type: TypeString, Sample: "loyal"},
	{Path: "orders_count", Name: "Orders Count", Type: TypeNumber, Sample: 3},
	{Path: "total_spent", Name: "Total Spent", Type: TypeNumber, Sample: 375.3},
	{Path: "verified_email", Name: "Verified Email", Type: TypeBoolean, Sample: true},
	{Path: "accepts_marketing", Name: "Accepts Marketing", Type: TypeBoolean, Sample: true},
	{Path: "created_at", Name: "Customer Since", Type: TypeDate, Sample: "2013-06-27T08:48:27-04:00"},
	{Path: "default_address.company", Name: "Company", Type: TypeString, Sample: "Winterfell"},
	{Path: "default_address.address1", Name: "Address", Type: TypeString, Sample: "105 Victoria St"},
	{Path: "default_address.address2", Name: "Address 2", Type: TypeString, Sample: "Suite 300"},
	{Path: "default_address.city", Name: "City", Type: TypeString, Sample: "Toronto"},
	{Path: "default_address.province", Name: "Province", Type: TypeString, Sample: "Ontario"},
	{Path: "default_address.zip", Name: "Zip", Type: TypeString, Sample: "M5C1N7"},
	{Path: "default_address.country", Name: "Country", Type: TypeString, Sample: "Canada"},
	{Path: "default_address.phone", Name: "Address Phone", Type: TypeString, Sample: "416-555-1212"},
}

// Catalog returns the static set of Shopify customer fields available
// for mapping.
func Catalog() []ShopifyField {
	out := make([]ShopifyField, len(catalog))
	copy(out, catalog)
	return out
}

// CatalogField looks up a catalog entry by dotted path.
func CatalogField(path string) (ShopifyField, bool) {
	for _, f := range catalog {
		if f.Path == path {
			return f, true
		}
	}
	return ShopifyField{}, false
}
