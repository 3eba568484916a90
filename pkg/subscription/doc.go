// Package subscription reconciles payment-provider lifecycle notifications
// into persisted subscription state and orchestrates checkout creation.
//
// The external provider subscription ID is the natural key: the first
// notification referencing an unseen ID creates the row, every later one
// merges into it. Delivery is at-least-once with no ordering guarantee, so
// the store's upsert must be atomic and re-applying any notification must
// be a no-op. Subscriber/capper linkage is immutable once established;
// rows are never hard-deleted — deactivation flips the Active flag.
package subscription
