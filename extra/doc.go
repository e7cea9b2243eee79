// Package extra adds path based filters and structural change detection on
// top of listate.Listen.
//
// Filters are described with small sealed types instead of free-form values:
//
//	extra.Path("a.b.c")                     // value at a dot path
//	extra.Fields{"k", "l"}                  // {k: state.k, l: state.l}
//	extra.Parts{"total": "cart.total"}      // {total: state.cart.total}
//	extra.Func(func(s any) any { ... })     // any listate.Filter
//
// Paths walk maps, slices, arrays and structs (through pointers and
// interfaces). A path that cannot be resolved yields Absent, which is a
// value distinct from nil.
//
// Listen defaults When to Unlike, so a filter producing a fresh map with
// the same contents on every notification does not fire the handler.
package extra
