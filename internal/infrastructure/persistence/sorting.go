package persistence

import (
	"strings"

	"github.com/agency/backend/internal/domain/shared"
	"gorm.io/gorm/clause"
)

// sortColumns is the set of columns a list endpoint may order by. Only
// members ever reach the ORDER BY clause.
type sortColumns map[string]struct{}

// sortable returns id, created_at and updated_at plus extra
func sortable(extra ...string) sortColumns {
	cols := sortColumns{"id": {}, "created_at": {}, "updated_at": {}}
	for _, c := range extra {
		cols[c] = struct{}{}
	}
	return cols
}

func (s sortColumns) allows(col string) bool {
	_, ok := s[col]
	return ok
}

var (
	b2cSortColumns = sortable("name", "email", "passport_number", "destination",
		"client_type", "status", "contract_amount", "due_amount", "archived_at")
	b2bSortColumns         = sortable("name", "email", "business_type", "contract_amount", "due_amount")
	transactionSortColumns = sortable("date", "received_amount", "refund_amount")
	companySortColumns     = sortable("name", "email", "subscription_status")
)

// sortColumn returns requested when allowed lists it, fallback otherwise.
// Matching is exact after trimming.
func sortColumn(requested string, allowed sortColumns, fallback string) string {
	if col := strings.TrimSpace(requested); allowed.allows(col) {
		return col
	}
	return fallback
}

// sortDescending is true unless dir is "asc" in any case
func sortDescending(dir string) bool {
	return !strings.EqualFold(strings.TrimSpace(dir), "asc")
}

// orderBy builds the ORDER BY for a list query with id as the tie breaker
func orderBy(filter shared.Filter, allowed sortColumns, fallback string) clause.OrderBy {
	col := sortColumn(filter.OrderBy, allowed, fallback)
	desc := sortDescending(filter.OrderDir)

	order := clause.OrderBy{Columns: []clause.OrderByColumn{
		{Column: clause.Column{Name: col}, Desc: desc},
	}}
	if col != "id" {
		order.Columns = append(order.Columns, clause.OrderByColumn{Column: clause.Column{Name: "id"}, Desc: desc})
	}
	return order
}
