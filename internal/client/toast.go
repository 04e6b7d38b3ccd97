package client

import "github.com/harborline/stockgate/internal/domain"

// toastMessage matches the acknowledgement the admin surface shows.
const toastMessage = "Inventory fetched"

// Toast observes the Action Result view and surfaces a one-shot,
// non-blocking acknowledgement the first time a new successful result
// arrives, then stays dormant until the next one. It keys on the result's
// sequence identity, so re-observing the same result never re-fires, and
// failure results never fire at all.
type Toast struct {
	lastSeq uint64
	show    func(message string)
}

// NewToast creates a Toast that delivers through show.
func NewToast(show func(message string)) *Toast {
	return &Toast{show: show}
}

// Observe inspects the latest result and reports whether it fired.
func (t *Toast) Observe(res *domain.ActionResult) bool {
	if !res.OK() {
		return false
	}
	if res.Seq == t.lastSeq {
		return false
	}

	t.lastSeq = res.Seq
	t.show(toastMessage)
	return true
}
