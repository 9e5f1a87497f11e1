// Package registry holds the static knowledge of available hardware IP
// modules: where each one lives, what category of behaviour it provides and
// which sub-modules it declares. A Registry is populated once from the
// configuration model and is read-only afterwards, so it can be shared by
// concurrent stages without locking.
package registry
