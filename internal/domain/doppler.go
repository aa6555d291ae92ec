package domain

// DopplerList is a subscriber list in the merchant's Doppler account.
type DopplerList struct {
	ID   string `json:"listId"`
	Name string `json:"name"`
}

// DopplerField describes one subscriber field in a Doppler account.
type DopplerField struct {
	Name       string      `json:"name"`
	Type       string      `json:"type"`
	Sample     interface{} `json:"sample,omitempty"`
	Predefined bool        `json:"predefined"`
	Private    bool        `json:"private"`
	Readonly   bool        `json:"readonly"`
}

// FieldMappingEntry is one user-declared correspondence between a
// Shopify customer attribute path and a Doppler subscriber field name.
type FieldMappingEntry struct {
	ShopifyPath  string `json:"shopify"`
	DopplerField string `json:"doppler"`
}

// ResolvedMappingEntry is a mapping entry validated against the live
// Doppler schema and the Shopify field catalog, augmented with the
// fields' metadata.
type ResolvedMappingEntry struct {
	ShopifyPath  string      `json:"shopify"`
	DopplerField string      `json:"doppler"`
	Type         string      `json:"type"`
	Sample       interface{} `json:"sample,omitempty"`
}

// SubscriberField is a named field value on a Doppler subscriber.
type SubscriberField struct {
	Name  string      `json:"name"`
	Value interface{} `json:"value"`
}

// Subscriber is a Doppler contact: an email identity plus field values.
type Subscriber struct {
	Email  string            `json:"email"`
	Fields []SubscriberField `json:"fields"`
}

// ImportTask is the status of Doppler's asynchronous bulk-ingestion
// job. Completion is normally signaled by callback; this record is for
// diagnostics.
type ImportTask struct {
	ID               string `json:"taskId"`
	Type             string `json:"taskType,omitempty"`
	Status           string `json:"taskStatus"`
	SubscribersCount int    `json:"subscribersCount"`
	ProcessedCount   int    `json:"processedCount"`
}
