package upstream

import "fmt"

// The inventory query is a static contract: fixed page sizes, fixed quantity
// filter, no caller-supplied parameters.
const (
	itemPageSize  = 10
	levelPageSize = 5
	quantityName  = "available"
)

// inventoryQuery is the single read document issued per trigger.
var inventoryQuery = fmt.Sprintf(`query inventoryItems {
  inventoryItems(first: %d) {
    edges {
      node {
        id
        sku
        tracked
        inventoryLevels(first: %d) {
          edges {
            node {
              quantities(names: [%q]) {
                name
                quantity
              }
            }
          }
        }
      }
    }
  }
}`, itemPageSize, levelPageSize, quantityName)
