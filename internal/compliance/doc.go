// Package compliance holds the rule tables requirements are validated
// against and the validator that applies them.
//
// A framework is an ordered list of rules. Each rule pairs an id with a
// predicate over a requirement and the stories and UAT cases tracing back
// to it. Built-in frameworks are registered by DefaultCatalog; rule packs
// (TOML or YAML files with CEL expressions) extend them at startup.
//
// Validation is deterministic: the same rule table and targets always
// produce the same findings in the same order.
package compliance
