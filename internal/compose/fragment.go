package compose

import "fmt"

// Markers and placeholders recognised in templates and fragments.
const (
	HeaderMarker   = "// PHEADER"
	PortsMarker    = "// PIO"
	MemoryMarker   = "// MEMORIES"
	InstanceMarker = "// PERIPHERALS"

	// Placeholder is replaced by the bound instance name.
	Placeholder = "/*<InstanceName>*/"

	// RegFileHeader is the shared register-file interface every system
	// description must include exactly once.
	RegFileHeader = "iob_gen_if.vh"
)

// Header is an interface definition to be textually included. Two headers
// with the same ID must have the same Source.
type Header struct {
	ID     string
	Source string
}

// Include renders the include directive for the header.
func (h Header) Include() string {
	return fmt.Sprintf("`include \"%s\"", h.ID)
}

// Fragment is what one peripheral contributes to the system description.
type Fragment struct {
	// Name is the bound instance name substituted for Placeholder.
	Name     string
	Module   string
	Headers  []Header
	Instance string
	Ports    string
}

// Memory is one entry of the ordered memory module list.
type Memory struct {
	Name     string
	Instance string
}
