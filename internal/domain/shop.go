package domain

import "time"

// ShopIntegration is the per-shop state of the Doppler connection. One
// record exists per Shopify shop domain, created when the merchant's
// Doppler credentials are first validated and removed on uninstall.
type ShopIntegration struct {
	ShopDomain                 string              `json:"shop_domain"`
	ShopifyAccessToken         string              `json:"shopify_access_token"`
	DopplerAccountName         string              `json:"doppler_account_name"`
	DopplerAPIKey              string              `json:"doppler_api_key"`
	DopplerListID              string              `json:"doppler_list_id"`
	DopplerListName            string              `json:"doppler_list_name"`
	FieldsMapping              []FieldMappingEntry `json:"fields_mapping"`
	SynchronizationInProgress  bool                `json:"synchronization_in_progress"`
	LastSynchronizationDate    string              `json:"last_synchronization_date"`
	LastImportTaskID           string              `json:"last_import_task_id"`
	SynchronizedCustomersCount int                 `json:"synchronized_customers_count"`
	ConnectedOnDate            time.Time           `json:"connected_on_date"`
}

// ShopUpdate is a partial update of a ShopIntegration. Only non-nil
// fields are written, so concurrent unrelated fields are not clobbered.
type ShopUpdate struct {
	ShopifyAccessToken         *string
	DopplerAccountName         *string
	DopplerAPIKey              *string
	DopplerListID              *string
	DopplerListName            *string
	FieldsMapping              []FieldMappingEntry
	SynchronizationInProgress  *bool
	LastSynchronizationDate    *string
	LastImportTaskID           *string
	SynchronizedCustomersCount *int
	ConnectedOnDate            *time.Time
}

// DefaultListName is the list created when the merchant asks for the
// default instead of picking an existing one.
const DefaultListName = "Shopify Contacto"

type listSelectionKind int

const (
	selectionExisting listSelectionKind = iota
	selectionCreateDefault
)

// ListSelection is the merchant's choice of target subscriber list:
// either an existing Doppler list or "create the default list for me".
type ListSelection struct {
	kind   listSelectionKind
	listID string
}

// ExistingList selects an already existing Doppler list by id.
func ExistingList(listID string) ListSelection {
	return ListSelection{kind: selectionExisting, listID: listID}
}

// CreateDefaultList asks for the default list to be found or created.
func CreateDefaultList() ListSelection {
	return ListSelection{kind: selectionCreateDefault}
}

// IsCreateDefault reports whether the default list was requested.
func (s ListSelection) IsCreateDefault() bool {
	return s.kind == selectionCreateDefault
}

// ListID returns the selected list id. Empty for CreateDefaultList.
func (s ListSelection) ListID() string {
	return s.listID
}
