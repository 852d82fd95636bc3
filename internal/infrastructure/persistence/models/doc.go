// Package models contains the GORM persistence models behind the repositories.
// Domain aggregates stay free of ORM tags; each model converts with FromDomain/ToDomain.
//
// Tables:
//   - companies: tenant accounts and their subscription
//   - b2c_clients: travellers, status history stored as JSON
//   - b2b_clients: business partners, with a folded name key for per-tenant uniqueness
//   - transactions: the payment ledger, owned through client_id
package models
