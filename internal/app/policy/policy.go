// Package policy holds the role matrix gating every engine operation.
// Authorization decisions live here and nowhere else, so the matrix stays
// testable as a single table.
package policy

import "github.com/smebase/inventory-core/internal/app/models"

type Operation string

const (
	OpItemRead       Operation = "item:read"
	OpItemCreate     Operation = "item:create"
	OpItemUpdate     Operation = "item:update"
	OpItemDelete     Operation = "item:delete"
	OpLocationRead   Operation = "location:read"
	OpLocationCreate Operation = "location:create"
	OpLocationUpdate Operation = "location:update"
	OpLocationDelete Operation = "location:delete"
	OpStockRead      Operation = "stock:read"
	OpLedgerRead     Operation = "ledger:read"
	OpStockIn        Operation = "stock:in"
	OpStockOut       Operation = "stock:out"
	OpStockTransfer  Operation = "stock:transfer"
	OpStockAdjust    Operation = "stock:adjust"
	OpAuditRead      Operation = "audit:read"
)

var minRole = map[Operation]models.Role{
	OpItemRead:       models.RoleViewer,
	OpLocationRead:   models.RoleViewer,
	OpStockRead:      models.RoleViewer,
	OpLedgerRead:     models.RoleViewer,
	OpStockIn:        models.RoleStaff,
	OpStockOut:       models.RoleStaff,
	OpStockTransfer:  models.RoleStaff,
	OpItemCreate:     models.RoleAdmin,
	OpItemUpdate:     models.RoleAdmin,
	OpItemDelete:     models.RoleAdmin,
	OpLocationCreate: models.RoleAdmin,
	OpLocationUpdate: models.RoleAdmin,
	OpLocationDelete: models.RoleAdmin,
	OpStockAdjust:    models.RoleAdmin,
	OpAuditRead:      models.RoleAdmin,
}

// MinRole returns the minimum role required for op and whether op is known.
func MinRole(op Operation) (models.Role, bool) {
	r, ok := minRole[op]
	return r, ok
}

// Permits reports whether role may perform op. Unknown operations and
// unknown roles are never permitted.
func Permits(role models.Role, op Operation) bool {
	min, ok := minRole[op]
	if !ok {
		return false
	}
	return role.AtLeast(min)
}
