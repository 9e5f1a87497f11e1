// Package hcl provides the concrete HCL implementation of the config.Loader
// interface. It discovers module manifests and system files, evaluates them
// against the build parameters and translates the decoded blocks into the
// format-agnostic config model.
package hcl
