package orchestrator

import (
	"fmt"
	"slices"

	"github.com/specialistvlad/socgrid/internal/dag"
)

// Target names accepted by Run.
const (
	TargetSystem        = "system"
	TargetSources       = "sources"
	TargetHex           = "hex"
	TargetSoftware      = "sw"
	TargetAll           = "all"
	TargetVerify        = "verify"
	TargetSoftwareClean = "sw-clean"
	TargetHardwareClean = "hw-clean"
	TargetClean         = "clean"
	TargetPrintBuildDir = "print-build-dir"

	DefaultTarget = TargetAll
)

var knownTargets = []string{
	TargetSystem,
	TargetSources,
	TargetHex,
	TargetSoftware,
	TargetAll,
	TargetVerify,
	TargetSoftwareClean,
	TargetHardwareClean,
	TargetClean,
	TargetPrintBuildDir,
}

// Targets lists every target name.
func Targets() []string {
	return slices.Clone(knownTargets)
}

// IsTarget reports whether name is a known target.
func IsTarget(name string) bool {
	return slices.Contains(knownTargets, name)
}

// Task IDs.
const (
	taskSystem  = "system"
	taskSources = "sources"
	taskHWClean = "hw-clean"
)

func taskSoftware(role string) string      { return "sw." + role }
func taskImage(role string) string         { return "hex." + role }
func taskVerify(role string) string        { return "verify." + role }
func taskSoftwareClean(role string) string { return "sw-clean." + role }

// plan is the executable form of a list of targets.
type plan struct {
	clean         *dag.Graph
	build         *dag.Graph
	informational []string
}

// graph returns every build task with its dependencies: software feeds the
// image built from it. Verification reads what is already published, so it
// waits for the image only when chainVerify is set, that is when the same
// run also builds the images.
func (o *Orchestrator) graph(chainVerify bool) (*dag.Graph, error) {
	g := dag.New()
	g.AddNode(taskSystem, o.buildSystem)
	g.AddNode(taskSources, o.collectSources)
	for _, sw := range o.sys.Software {
		g.AddNode(taskSoftware(sw.Role), o.buildSoftware(sw))
	}
	for _, sw := range o.imageRoles() {
		g.AddNode(taskImage(sw.Role), o.buildImage(sw))
		g.AddNode(taskVerify(sw.Role), o.verifyImage(sw))
		if err := g.AddEdge(taskSoftware(sw.Role), taskImage(sw.Role)); err != nil {
			return nil, err
		}
		if !chainVerify {
			continue
		}
		if err := g.AddEdge(taskImage(sw.Role), taskVerify(sw.Role)); err != nil {
			return nil, err
		}
	}
	return g, nil
}

func (o *Orchestrator) cleanGraph(software, hardware bool) *dag.Graph {
	g := dag.New()
	if software {
		for _, sw := range o.sys.Software {
			g.AddNode(taskSoftwareClean(sw.Role), o.cleanSoftware(sw))
		}
	}
	if hardware {
		g.AddNode(taskHWClean, o.cleanHardware)
	}
	return g
}

// plan expands targets into task IDs and cuts the matching subgraphs.
func (o *Orchestrator) plan(targets []string) (*plan, error) {
	p := &plan{}
	var ids []string
	var software, hardware, images bool

	for _, t := range targets {
		switch t {
		case TargetSystem:
			ids = append(ids, taskSystem)
		case TargetSources:
			ids = append(ids, taskSources)
		case TargetHex:
			images = true
			for _, sw := range o.imageRoles() {
				ids = append(ids, taskImage(sw.Role))
			}
		case TargetSoftware:
			for _, sw := range o.sys.Software {
				ids = append(ids, taskSoftware(sw.Role))
			}
		case TargetAll:
			images = true
			ids = append(ids, taskSystem, taskSources)
			for _, sw := range o.imageRoles() {
				ids = append(ids, taskImage(sw.Role))
			}
		case TargetVerify:
			for _, sw := range o.imageRoles() {
				ids = append(ids, taskVerify(sw.Role))
			}
		case TargetSoftwareClean:
			software = true
		case TargetHardwareClean:
			hardware = true
		case TargetClean:
			software, hardware = true, true
		case TargetPrintBuildDir:
			p.informational = append(p.informational, t)
		default:
			return nil, fmt.Errorf("unknown target %q", t)
		}
	}

	if software || hardware {
		p.clean = o.cleanGraph(software, hardware)
	}
	if len(ids) > 0 {
		full, err := o.graph(images)
		if err != nil {
			return nil, err
		}
		p.build, err = full.Subgraph(ids...)
		if err != nil {
			return nil, err
		}
	}
	return p, nil
}
