package hcl

import (
	"path/filepath"

	"github.com/specialistvlad/socgrid/internal/builderr"
	"github.com/specialistvlad/socgrid/internal/config"
)

const (
	defaultOutputDir = "build"
	defaultWordBytes = 4
	defaultLanes     = 4
)

// translateModule converts a decoded module block into the agnostic model.
// A module's root defaults to the directory of the manifest declaring it.
func translateModule(mb *moduleBlock, file, dir string) *config.ModuleDef {
	return &config.ModuleDef{
		Name:       mb.Name,
		Root:       resolvePath(dir, mb.Root),
		Category:   mb.Category,
		Submodules: mb.Submodules,
		Headers:    mb.Headers,
		Instance:   mb.Instance,
		Ports:      mb.Ports,
		Purpose:    mb.Purpose,
		Sources:    mb.Sources,
		Source:     file,
	}
}

// translateSystem converts a decoded system block, applying defaults and
// resolving every path relative to the declaring file.
func translateSystem(sb *systemBlock, file, dir string) (*config.System, error) {
	sys := &config.System{
		Name:      sb.Name,
		Template:  resolvePath(dir, sb.Template),
		OutputDir: resolvePath(dir, sb.OutputDir),
		Claimed:   sb.Claimed,
		WordBytes: defaultWordBytes,
		Lanes:     defaultLanes,
		Source:    file,
	}
	if sb.OutputDir == "" {
		sys.OutputDir = filepath.Join(dir, defaultOutputDir)
	}
	if sb.Claimed == nil {
		sys.Claimed = []string{sb.Name}
	}
	if sb.WordBytes != nil {
		sys.WordBytes = *sb.WordBytes
	}
	if sb.Lanes != nil {
		sys.Lanes = *sb.Lanes
	}
	if sys.WordBytes < 1 || sys.WordBytes > 8 {
		return nil, builderr.New(builderr.ErrMalformedDeclaration, stage,
			"word_bytes must be in 1..8, got %d", sys.WordBytes).WithModule(sb.Name).WithPath(file)
	}
	if sys.Lanes < 1 {
		return nil, builderr.New(builderr.ErrMalformedDeclaration, stage,
			"lanes must be positive, got %d", sys.Lanes).WithModule(sb.Name).WithPath(file)
	}

	seen := make(map[string]bool)
	for _, pb := range sb.Peripherals {
		if seen[pb.Name] {
			return nil, builderr.New(builderr.ErrMalformedDeclaration, stage,
				"peripheral %q declared twice", pb.Name).WithModule(sb.Name).WithPath(file)
		}
		seen[pb.Name] = true
		sys.Peripherals = append(sys.Peripherals, &config.Peripheral{Name: pb.Name, Module: pb.Module})
	}

	roles := make(map[string]bool)
	for _, swb := range sb.Software {
		if roles[swb.Role] {
			return nil, builderr.New(builderr.ErrMalformedDeclaration, stage,
				"software %q declared twice", swb.Role).WithModule(sb.Name).WithPath(file)
		}
		roles[swb.Role] = true
		sw, err := translateSoftware(swb, sb.Name, file, dir)
		if err != nil {
			return nil, err
		}
		sys.Software = append(sys.Software, sw)
	}
	return sys, nil
}

func translateSoftware(swb *softwareBlock, system, file, dir string) (*config.Software, error) {
	sw := &config.Software{
		Role:    swb.Role,
		Dir:     resolvePath(dir, swb.Dir),
		Command: swb.Command,
		Clean:   swb.Clean,
		Image:   true,
		Outputs: swb.Outputs,
	}
	if swb.Image != nil {
		sw.Image = *swb.Image
	}
	if sw.Image {
		if swb.AddrW == nil {
			return nil, builderr.New(builderr.ErrMalformedDeclaration, stage,
				"software %q produces an image but declares no addr_w", swb.Role).WithModule(system).WithPath(file)
		}
		sw.AddrW = *swb.AddrW
		if sw.Outputs == nil {
			sw.Outputs = []string{sw.BinaryName()}
		}
	}
	return sw, nil
}

func resolvePath(dir, p string) string {
	if p == "" {
		return dir
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}
