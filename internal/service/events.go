package service

// MerchantUpdate announces that a cache key now resolves to a merchant and
// category. Published after every successful remote enrichment so stored
// transactions can pick up corrected names.
type MerchantUpdate struct {
	CacheKey string
	Merchant string
	Category string
}

type merchantSub struct {
	id int
	fn func(MerchantUpdate)
}

// MerchantUpdates is a typed observer hub. Dispatch is synchronous and in
// subscription order; the hub is owned by the single-threaded caller, so no
// locking is involved.
type MerchantUpdates struct {
	subs   []merchantSub
	nextID int
}

// Subscribe registers fn and returns a token for Unsubscribe.
func (h *MerchantUpdates) Subscribe(fn func(MerchantUpdate)) int {
	h.nextID++
	h.subs = append(h.subs, merchantSub{id: h.nextID, fn: fn})
	return h.nextID
}

// Unsubscribe removes the subscription with the given token.
func (h *MerchantUpdates) Unsubscribe(id int) {
	for i, s := range h.subs {
		if s.id == id {
			h.subs = append(h.subs[:i], h.subs[i+1:]...)
			return
		}
	}
}

// Publish delivers u to every subscriber.
func (h *MerchantUpdates) Publish(u MerchantUpdate) {
	for _, s := range h.subs {
		s.fn(u)
	}
}
