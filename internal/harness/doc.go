// Package harness runs YAML composition scenarios.
//
// A scenario carries a CUE mixin configuration, names one target and lists
// the mixins expected to survive suppression, in integration order, together
// with their overrider and overridden method sets:
//
//	name: legacy_suppressed
//	description: TreeSuppression removes the legacy mixin and its subclasses
//	target: shop.Order
//	config: |
//	  type: "shop.Order": {}
//	  ...
//	expect:
//	  mixins: [shop.AuditMixin]
//
// Run composes the target through real type and constructor caches backed
// by the emit plan builder. Generated type names come from a sequence
// generator, so golden snapshots written by RunWithGolden are stable.
//
// Each Run uses fresh caches. A Harness created with New can run several
// scenarios against shared caches to exercise reuse across targets.
package harness
