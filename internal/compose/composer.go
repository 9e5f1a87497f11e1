package compose

import (
	"slices"
	"strings"

	"github.com/specialistvlad/socgrid/internal/builderr"
)

const stage = "compose"

// Plan is the structured content of a system description before rendering.
type Plan struct {
	Headers   []Header
	Ports     []string
	Memories  []string
	Instances []string
}

// Compose builds the plan for the given memories and peripherals and renders
// it into template. A nil template fails with ErrMissingTemplate.
func Compose(template []byte, memories []Memory, peripherals []Fragment) ([]byte, error) {
	if template == nil {
		return nil, builderr.New(builderr.ErrMissingTemplate, stage, "")
	}
	plan, err := Build(memories, peripherals)
	if err != nil {
		return nil, err
	}
	return plan.Render(template)
}

// Build collects headers, ports and instances. Peripherals are processed in
// lexicographic order of their instance names; memories keep the order given.
func Build(memories []Memory, peripherals []Fragment) (*Plan, error) {
	plan := &Plan{}

	for _, m := range memories {
		if m.Instance == "" {
			continue
		}
		if !strings.Contains(m.Instance, Placeholder) {
			return nil, builderr.New(builderr.ErrUnresolvedPlaceholder, stage,
				"instance fragment of memory %q has no %s placeholder", m.Name, Placeholder).WithModule(m.Name)
		}
		plan.Memories = append(plan.Memories, strings.ReplaceAll(m.Instance, Placeholder, m.Name))
	}

	sorted := slices.Clone(peripherals)
	slices.SortStableFunc(sorted, func(a, b Fragment) int {
		return strings.Compare(a.Name, b.Name)
	})

	owners := make(map[string]string)
	sources := make(map[string]string)
	for _, p := range sorted {
		for _, h := range p.Headers {
			prev, seen := sources[h.ID]
			if !seen {
				sources[h.ID] = h.Source
				owners[h.ID] = p.Name
				plan.Headers = append(plan.Headers, h)
				continue
			}
			if prev != h.Source {
				return nil, builderr.New(builderr.ErrDuplicateHeaderConflict, stage,
					"header %q differs between peripherals %q and %q", h.ID, owners[h.ID], p.Name).WithModule(p.Module)
			}
		}

		if p.Ports != "" {
			plan.Ports = append(plan.Ports, strings.ReplaceAll(p.Ports, Placeholder, p.Name))
		}
		if p.Instance == "" {
			continue
		}
		if p.Name == "" {
			return nil, builderr.New(builderr.ErrUnresolvedPlaceholder, stage,
				"peripheral has no instance name").WithModule(p.Module)
		}
		if !strings.Contains(p.Instance, Placeholder) {
			return nil, builderr.New(builderr.ErrUnresolvedPlaceholder, stage,
				"instance fragment of %q has no %s placeholder", p.Name, Placeholder).WithModule(p.Module)
		}
		plan.Instances = append(plan.Instances, strings.ReplaceAll(p.Instance, Placeholder, p.Name))
	}

	if _, ok := sources[RegFileHeader]; !ok {
		plan.Headers = append(plan.Headers, Header{ID: RegFileHeader})
	}
	return plan, nil
}

// Render emits the plan into template after the corresponding marker lines.
func (p *Plan) Render(template []byte) ([]byte, error) {
	if template == nil {
		return nil, builderr.New(builderr.ErrMissingTemplate, stage, "")
	}
	text := string(template)

	var headers []string
	for _, h := range p.Headers {
		if h.ID == RegFileHeader && strings.Contains(text, RegFileHeader) {
			continue
		}
		headers = append(headers, h.Include())
	}

	inserts := map[string][]string{
		HeaderMarker:   headers,
		PortsMarker:    p.Ports,
		InstanceMarker: p.Instances,
	}
	lines := strings.Split(text, "\n")
	if hasMarker(lines, MemoryMarker) {
		inserts[MemoryMarker] = p.Memories
	} else if len(p.Memories) > 0 {
		inserts[InstanceMarker] = append(slices.Clone(p.Memories), p.Instances...)
	}

	for _, marker := range []string{HeaderMarker, PortsMarker, MemoryMarker, InstanceMarker} {
		if len(inserts[marker]) > 0 && !hasMarker(lines, marker) {
			return nil, builderr.New(builderr.ErrMissingMarker, stage, "template has no %q line", marker)
		}
	}

	var out strings.Builder
	out.Grow(len(text))
	for i, line := range lines {
		if i > 0 {
			out.WriteByte('\n')
		}
		out.WriteString(line)
		// Only the first occurrence of a marker receives content.
		marker := strings.TrimSpace(line)
		chunks := inserts[marker]
		if len(chunks) == 0 {
			continue
		}
		delete(inserts, marker)
		indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
		for _, chunk := range chunks {
			for _, l := range strings.Split(strings.TrimRight(chunk, "\n"), "\n") {
				out.WriteByte('\n')
				if l != "" {
					out.WriteString(indent)
					out.WriteString(l)
				}
			}
		}
	}
	return []byte(out.String()), nil
}

func hasMarker(lines []string, marker string) bool {
	for _, l := range lines {
		if strings.TrimSpace(l) == marker {
			return true
		}
	}
	return false
}
