package config

// Model is the unified, format-agnostic representation of everything the
// loader discovered: the module library and the system being assembled.
type Model struct {
	// Modules holds every declared module in discovery order.
	Modules []*ModuleDef
	System  *System
}

// --- Module Manifest Models ---

// ModuleDef is a single hardware IP module as declared in a manifest.
type ModuleDef struct {
	Name       string
	Root       string
	Category   string
	Submodules []string
	// Headers, Instance and Ports are paths relative to Root.
	Headers  []string
	Instance string
	Ports    string
	// Purpose names the build folder the module's sources are copied to:
	// hardware, simulation or fpga. Empty means hardware.
	Purpose string
	// Sources lists files or directories, relative to Root, copied into the
	// build tree.
	Sources []string
	// Source is the file that declared the module.
	Source string
}

// --- System Models ---

// System describes the SoC being assembled.
type System struct {
	Name      string
	Template  string
	OutputDir string
	Claimed   []string
	WordBytes int
	Lanes     int

	Peripherals []*Peripheral
	Software    []*Software

	Source string
}

// Peripheral binds an instance name to the module providing its fragments.
type Peripheral struct {
	Name   string
	Module string
}

// Software is a delegated software sub-build and the memory image it feeds.
type Software struct {
	Role    string
	Dir     string
	Command []string
	Clean   []string
	// AddrW is the address width of the memory the image preloads.
	AddrW int
	// Image is false for software that produces no memory image (e.g. a host console).
	Image bool
	// Outputs lists files, relative to Dir, that must exist after the build.
	Outputs []string
}

// BinaryName is the conventional name of the compiled binary for a role.
func (s *Software) BinaryName() string {
	return s.Role + ".bin"
}
