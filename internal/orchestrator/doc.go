// Package orchestrator turns the named build targets into a task graph and
// runs it. Delegated software builds produce binaries, binaries become hex
// images and byte lanes, and independently the module set is resolved and
// composed into the system description. Every generated file is published
// atomically into the system's output directory.
package orchestrator
