// Package buildcfg materializes the build configuration snapshot that
// template predicates query. A snapshot maps attribute names to values
// that are either a single scalar string or a set of strings (for
// multi-valued attributes such as the enabled feature list). Snapshots
// are assembled once per invocation from environment variables, YAML or
// JSON snapshot files, and explicit name=value assignments, then handed
// to the template engine through the Resolver interface.
package buildcfg
