package domain

import "fmt"

// InvalidCredentialsError means Doppler rejected the account name /
// API key pair. Maps to 401 at the API boundary.
type InvalidCredentialsError struct {
	AccountName string
}

func (e *InvalidCredentialsError) Error() string {
	return fmt.Sprintf("invalid Doppler credentials for account %s", e.AccountName)
}

// DuplicatedListNameError means Doppler refused to create a list
// because the name is taken (errorCode 2, status 400).
type DuplicatedListNameError struct {
	Name string
}

func (e *DuplicatedListNameError) Error() string {
	return fmt.Sprintf("a Doppler list named %q already exists", e.Name)
}

// UnknownDopplerFieldError means a mapping referenced a Doppler field
// that does not exist in the account's schema.
type UnknownDopplerFieldError struct {
	Name string
}

func (e *UnknownDopplerFieldError) Error() string {
	return fmt.Sprintf("unknown Doppler field %q", e.Name)
}

// UnknownShopifyFieldError means a mapping referenced a path that is
// not in the Shopify field catalog.
type UnknownShopifyFieldError struct {
	Path string
}

func (e *UnknownShopifyFieldError) Error() string {
	return fmt.Sprintf("unknown Shopify customer field %q", e.Path)
}

// TypeMismatchError means the mapped fields' semantic types differ.
type TypeMismatchError struct {
	ShopifyPath  string
	DopplerField string
	ShopifyType  string
	DopplerType  string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("cannot map Shopify field %q (%s) to Doppler field %q (%s): types differ",
		e.ShopifyPath, e.ShopifyType, e.DopplerField, e.DopplerType)
}

// DuplicateMappingError means a requested mapping uses a Shopify path
// or a Doppler field that is already taken by another entry.
type DuplicateMappingError struct {
	Field string
}

func (e *DuplicateMappingError) Error() string {
	return fmt.Sprintf("field %q appears more than once in the mapping", e.Field)
}

// APIError is any other failing response (>=400) from a remote API,
// carrying the transport status and the API-supplied error code.
type APIError struct {
	StatusCode int
	ErrorCode  int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("remote API error (status %d, code %d): %s", e.StatusCode, e.ErrorCode, e.Message)
}

// StoreError wraps a shop store failure with the shop it concerned.
type StoreError struct {
	ShopDomain string
	Err        error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("shop store operation failed for %s: %v", e.ShopDomain, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
