package cart

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformed marks a response that failed structural normalization.
// Merely-missing optional fields never produce it; it is reserved for
// payloads that cannot be coerced into the canonical model at all.
var ErrMalformed = errors.New("malformed storefront response")

// rawCart mirrors the cart shapes the backend is known to emit. Every field
// is optional on the wire.
type rawCart struct {
	CartID *int64          `json:"cart_id"`
	Items  json.RawMessage `json:"items"`
}

// rawLine tolerates the two id field names the backend uses interchangeably.
type rawLine struct {
	ItemID   *int64   `json:"item_id"`
	ID       *int64   `json:"id"`
	Name     string   `json:"name"`
	Price    *float64 `json:"price"`
	Quantity *int     `json:"quantity"`
}

// NormalizeCart coerces a raw cart response into the canonical Cart.
//
// Coercion rules, in precedence order:
//   - empty, null, or item-less responses normalize to an empty cart with the
//     response's cart_id (sentinel 0 when absent)
//   - line id comes from item_id, then id; a line carrying neither is malformed
//   - missing quantity defaults to 1, missing price to 0 (the backend emits
//     partial lines; these defaults mirror what it means by omission)
//   - quantity <= 0 or price < 0 on a present field is a malformed response,
//     not something to clamp
func NormalizeCart(raw []byte) (Cart, error) {
	if isJSONEmpty(raw) {
		return Empty(), nil
	}

	var rc rawCart
	if err := json.Unmarshal(raw, &rc); err != nil {
		return Empty(), fmt.Errorf("%w: cart body is not an object: %v", ErrMalformed, err)
	}

	out := Empty()
	if rc.CartID != nil {
		out.ID = *rc.CartID
	}

	if isJSONEmpty(rc.Items) {
		return out, nil
	}

	var lines []rawLine
	if err := json.Unmarshal(rc.Items, &lines); err != nil {
		return Empty(), fmt.Errorf("%w: items is not list-shaped: %v", ErrMalformed, err)
	}

	for i, rl := range lines {
		line, err := rl.normalize()
		if err != nil {
			return Empty(), fmt.Errorf("%w: item %d: %v", ErrMalformed, i, err)
		}
		out.Lines = append(out.Lines, line)
	}
	return out, nil
}

func (rl rawLine) normalize() (Line, error) {
	var id int64
	switch {
	case rl.ItemID != nil:
		id = *rl.ItemID
	case rl.ID != nil:
		id = *rl.ID
	default:
		return Line{}, errors.New("no item_id or id field")
	}

	quantity := 1
	if rl.Quantity != nil {
		if *rl.Quantity <= 0 {
			return Line{}, fmt.Errorf("non-positive quantity %d", *rl.Quantity)
		}
		quantity = *rl.Quantity
	}

	price := 0.0
	if rl.Price != nil {
		if *rl.Price < 0 {
			return Line{}, fmt.Errorf("negative price %v", *rl.Price)
		}
		price = *rl.Price
	}

	return Line{ID: id, Name: rl.Name, Price: price, Quantity: quantity}, nil
}

// NormalizeCatalog coerces a raw catalog listing into a product slice.
// The backend occasionally returns the same product id twice; duplicates are
// collapsed deterministically: the last-seen entry wins for field values, the
// first occurrence wins for position.
func NormalizeCatalog(raw []byte) ([]Product, error) {
	if isJSONEmpty(raw) {
		return []Product{}, nil
	}

	var listed []Product
	if err := json.Unmarshal(raw, &listed); err != nil {
		return nil, fmt.Errorf("%w: catalog body is not list-shaped: %v", ErrMalformed, err)
	}

	out := make([]Product, 0, len(listed))
	seen := make(map[int64]int, len(listed))
	for _, p := range listed {
		if at, dup := seen[p.ID]; dup {
			out[at] = p
			continue
		}
		seen[p.ID] = len(out)
		out = append(out, p)
	}
	return out, nil
}

// isJSONEmpty reports whether the payload carries no usable value at all:
// zero bytes, whitespace, or a bare JSON null.
func isJSONEmpty(raw []byte) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
