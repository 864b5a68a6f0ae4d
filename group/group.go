// Package group implements the item-layer codec's C5 component: a
// registry of items keyed by both numeric id and textual name, and the
// logic for applying one inbound heap by installing descriptors and
// updating affected items.
//
// The dual-keyed registry is grounded on mebo's indexMaps[T] pattern
// (blob/blob.go): two maps over the same owned objects, kept consistent
// on every insert/replace so each item appears under exactly one id key
// and one name key at any instant.
package group

import (
	"fmt"
	"log"

	"github.com/ska-sa/spead-go/internal/hash"
	"github.com/ska-sa/spead-go/internal/options"
	"github.com/ska-sa/spead-go/item"
	"github.com/ska-sa/spead-go/wire"
)

// defaultReservedIDThreshold is the wire-level convention that ids 1..6 are
// reserved protocol fields and never surfaced as items.
const defaultReservedIDThreshold = 6

// Option configures an ItemGroup at construction time.
type Option = options.Option[*ItemGroup]

// WithReservedIDThreshold overrides the id below-or-equal which raw items
// are treated as reserved protocol fields and skipped by Update. The
// default, matching the wire convention spec.md documents, is 6.
func WithReservedIDThreshold(threshold uint64) Option {
	return options.NoError[*ItemGroup](func(g *ItemGroup) {
		g.reservedIDThreshold = threshold
	})
}

// ItemGroup is a registry of items keyed by both id and name. Inserting an
// item whose id or name already exists replaces the prior entry under both
// keys; the group exclusively owns its items for their lifetime.
type ItemGroup struct {
	byID   map[uint64]*item.Item
	byName map[string]*item.Item

	reservedIDThreshold uint64
}

// New creates an empty ItemGroup, applying any supplied options.
func New(opts ...Option) *ItemGroup {
	g := &ItemGroup{
		byID:                make(map[uint64]*item.Item),
		byName:              make(map[string]*item.Item),
		reservedIDThreshold: defaultReservedIDThreshold,
	}
	_ = options.Apply(g, opts...) // NoError-wrapped options never fail
	return g
}

// AddItem installs it, replacing any existing entry under either its id or
// its name. Replacement under one key evicts the prior occupant from both
// of its keys, preserving the invariant that each item appears under
// exactly one id key and one name key.
func (g *ItemGroup) AddItem(it *item.Item) {
	if prior, ok := g.byID[it.ID]; ok && prior != it {
		log.Printf("spead: item group replacing id %d (name %q -> %q)", it.ID, prior.Name, it.Name)
		delete(g.byName, prior.Name)
	}
	if prior, ok := g.byName[it.Name]; ok && prior != it {
		log.Printf("spead: item group replacing name %q (id %d -> %d)", it.Name, prior.ID, it.ID)
		delete(g.byID, prior.ID)
	}

	g.byID[it.ID] = it
	g.byName[it.Name] = it
}

// ByID looks up an item by its numeric id.
func (g *ItemGroup) ByID(id uint64) (*item.Item, bool) {
	it, ok := g.byID[id]
	return it, ok
}

// ByName looks up an item by its textual name.
func (g *ItemGroup) ByName(name string) (*item.Item, bool) {
	it, ok := g.byName[name]
	return it, ok
}

// HasID reports whether id is present.
func (g *ItemGroup) HasID(id uint64) bool {
	_, ok := g.byID[id]
	return ok
}

// HasName reports whether name is present.
func (g *ItemGroup) HasName(name string) bool {
	_, ok := g.byName[name]
	return ok
}

// IDs returns the group's item ids in no particular order.
func (g *ItemGroup) IDs() []uint64 {
	ids := make([]uint64, 0, len(g.byID))
	for id := range g.byID {
		ids = append(ids, id)
	}
	return ids
}

// Names returns the group's item names in no particular order.
func (g *ItemGroup) Names() []string {
	names := make([]string, 0, len(g.byName))
	for name := range g.byName {
		names = append(names, name)
	}
	return names
}

// Items returns every (name, item) pair in the group, in no particular
// order.
func (g *ItemGroup) Items() map[string]*item.Item {
	out := make(map[string]*item.Item, len(g.byName))
	for name, it := range g.byName {
		out[name] = it
	}
	return out
}

// Len reports the number of items currently registered.
func (g *ItemGroup) Len() int {
	return len(g.byName)
}

// descriptorFingerprint computes a content hash over the parts of an item's
// descriptor that determine its wire layout, for change-detection trace
// logging when a descriptor is replaced.
func descriptorFingerprint(it *item.Item) uint64 {
	d := it.Descriptor
	return hash.ID(fmt.Sprintf("%d|%s|%v|%c|%v|%t|%v|%t", d.ID, d.Name, d.Shape, d.Order, d.Dtype, d.HasDtype, d.Format, d.HasFormat))
}

// Update applies one inbound heap:
//  1. For each descriptor in the heap, build an Item via item.FromRaw and
//     install it via AddItem.
//  2. For each raw item in the heap with id above the reserved-id
//     threshold (6 by default), locate the item by id. If
//     no descriptor is known, log a warning and skip. Otherwise call
//     SetFromRaw, stamp Version with the heap's sequence number, and enter
//     it into the returned name -> item mapping.
func (g *ItemGroup) Update(heap wire.Heap) (map[string]*item.Item, error) {
	for _, rawDesc := range heap.Descriptors {
		it, err := item.FromRaw(rawDesc, heap.BugCompat)
		if err != nil {
			return nil, err
		}

		fp := descriptorFingerprint(it)
		if prior, ok := g.byID[it.ID]; ok {
			if descriptorFingerprint(prior) != fp {
				log.Printf("spead: descriptor for id %d (%q) changed, fingerprint %x -> %x", it.ID, it.Name, descriptorFingerprint(prior), fp)
			}
		} else {
			log.Printf("spead: installing new descriptor for id %d (%q), fingerprint %x", it.ID, it.Name, fp)
		}

		g.AddItem(it)
	}

	updated := make(map[string]*item.Item)
	for _, rawItem := range heap.Items {
		if rawItem.ID <= g.reservedIDThreshold {
			continue
		}

		it, ok := g.byID[rawItem.ID]
		if !ok {
			log.Printf("spead: item group update: unknown descriptor for id %d, skipping", rawItem.ID)
			continue
		}

		if err := it.SetFromRaw(rawItem); err != nil {
			return nil, err
		}
		it.SetVersionFromHeap(heap.Cnt)

		updated[it.Name] = it
	}

	return updated, nil
}
