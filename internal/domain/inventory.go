package domain

// Types below mirror the upstream Admin API connection shape exactly. The
// gateway passes the decoded `data` field through without reshaping, so the
// JSON tags are the upstream field names, not snake_case.

// Quantity is a single named stock count on an inventory level.
type Quantity struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// InventoryLevel holds the quantities reported for one location.
type InventoryLevel struct {
	Quantities []Quantity `json:"quantities"`
}

type InventoryLevelEdge struct {
	Node InventoryLevel `json:"node"`
}

type InventoryLevelConnection struct {
	Edges []InventoryLevelEdge `json:"edges"`
}

// InventoryItem is one upstream inventory record. The ID is opaque and
// upstream-assigned; duplicates are passed through unmodified.
type InventoryItem struct {
	ID              string                   `json:"id"`
	SKU             string                   `json:"sku"`
	Tracked         bool                     `json:"tracked"`
	InventoryLevels InventoryLevelConnection `json:"inventoryLevels"`
}

type InventoryItemEdge struct {
	Node InventoryItem `json:"node"`
}

type InventoryItemConnection struct {
	Edges []InventoryItemEdge `json:"edges"`
}

// InventoryQueryData is the `data` field of the upstream envelope for the
// fixed inventory query.
type InventoryQueryData struct {
	InventoryItems InventoryItemConnection `json:"inventoryItems"`
}

// ActionResult is the value one client trigger produces: either the
// inventory payload or a failure envelope, never both. Seq is a client-side
// identity counter assigned on arrival; it is not part of the wire format.
type ActionResult struct {
	Seq       uint64              `json:"-"`
	Inventory *InventoryQueryData `json:"inventory,omitempty"`
	Error     string              `json:"error,omitempty"`
}

// OK reports whether the result carries a successful inventory payload.
func (r *ActionResult) OK() bool {
	return r != nil && r.Error == "" && r.Inventory != nil
}
