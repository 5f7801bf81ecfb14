// Package nameparse turns free-text release names into typed entities and
// normalized tag sets.
//
// The heavy lifting happens in two layers. The inference engine
// (inference.go) tokenizes a release name and classifies what it finds:
// season/episode markers, dates, years, quality, codecs, source formats,
// languages, release groups. Its output is a loose field map in the
// engine's own vocabulary. Parse (parser.go) then runs the ordered
// correction chain over that map and splits it into entity-constructor
// fields, dotted tag namespaces and leftovers via translation tables.
//
// Release names are adversarial input; the chain prefers warning and
// dropping a field over failing a record. The only hard failures are an
// undeterminable entity type and entity constructor rejection.
package nameparse
