// Package describe resolves engine module names to interface descriptions.
//
// A Service combines three collaborators:
//   - a Source that yields the raw GRASS interface-description XML for a
//     module (by running the engine, reading a directory of dumps, or
//     through a Redis cache wrapped around either)
//   - ParseInterfaceDescription, which maps the XML onto ir.Module
//   - curated Overrides, hand-authored JSON documents that extend or stand
//     in for a description (the importer and exporter pseudo-modules)
//
// Module descriptions are pure functions of the module name; the batch key
// carried by a Request only correlates calls in logs and caches.
package describe
