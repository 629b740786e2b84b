package service

import (
	"time"

	"marketplace/internal/model"

	"github.com/google/uuid"
)

// reconciliation is the outcome of diffing an order's lines against an edit.
type reconciliation struct {
	Items    []model.LineItem
	Returned []model.ReturnedItem
}

// validateItemUpdates rejects malformed edit requests before the order is loaded.
func validateItemUpdates(items []model.OrderItemUpdate) error {
	if items == nil {
		return model.ErrInvalidItems
	}

	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		if it.ProductID == "" || it.Quantity < 0 {
			return model.ErrInvalidItems
		}
		key := it.Key()
		if _, dup := seen[key]; dup {
			return model.ErrDuplicateItem
		}
		seen[key] = struct{}{}
	}
	return nil
}

// reconcile diffs existing against requested. Lines keep their original
// order and snapshot prices. Each line that loses quantity produces one
// returned record carrying the removed amount. Quantities cannot grow and
// requested lines must exist on the order.
func reconcile(existing []model.LineItem, requested []model.OrderItemUpdate, now time.Time) (reconciliation, error) {
	want := make(map[string]int, len(requested))
	for _, r := range requested {
		want[r.Key()] = r.Quantity
	}

	matched := 0
	out := reconciliation{
		Items:    make([]model.LineItem, 0, len(existing)),
		Returned: []model.ReturnedItem{},
	}

	for _, line := range existing {
		qty, ok := want[line.Key()]
		if ok {
			matched++
		}
		if qty > line.Quantity {
			return reconciliation{}, model.ErrQuantityIncrease
		}

		if removed := line.Quantity - qty; removed > 0 {
			out.Returned = append(out.Returned, model.ReturnedItem{
				ID:               uuid.New(),
				ProductID:        line.ProductID,
				SellerID:         line.SellerID,
				Quantity:         line.Quantity,
				ReturnedQuantity: removed,
				Price:            line.Price,
				DiscountedPrice:  line.DiscountedPrice,
				Variant:          line.Variant,
				ReturnedAt:       now,
			})
		}

		if qty > 0 {
			kept := line
			kept.Quantity = qty
			out.Items = append(out.Items, kept)
		}
	}

	if matched != len(want) {
		return reconciliation{}, model.ErrUnknownOrderItem
	}
	if len(out.Items) == 0 {
		return reconciliation{}, model.ErrEmptyOrder
	}

	return out, nil
}
