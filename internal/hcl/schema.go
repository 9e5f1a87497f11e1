package hcl

import "github.com/hashicorp/hcl/v2"

// fileRoot is used to decode all possible top-level blocks from any file.
type fileRoot struct {
	Modules []*moduleBlock `hcl:"module,block"`
	Systems []*systemBlock `hcl:"system,block"`
	Remain  hcl.Body       `hcl:",remain"`
}

type moduleBlock struct {
	Name       string   `hcl:"name,label"`
	Root       string   `hcl:"root,optional"`
	Category   string   `hcl:"category,optional"`
	Submodules []string `hcl:"submodules,optional"`
	Headers    []string `hcl:"headers,optional"`
	Instance   string   `hcl:"instance,optional"`
	Ports      string   `hcl:"ports,optional"`
	Purpose    string   `hcl:"purpose,optional"`
	Sources    []string `hcl:"sources,optional"`
}

type systemBlock struct {
	Name        string             `hcl:"name,label"`
	Template    string             `hcl:"template"`
	OutputDir   string             `hcl:"output_dir,optional"`
	Claimed     []string           `hcl:"claimed,optional"`
	WordBytes   *int               `hcl:"word_bytes,optional"`
	Lanes       *int               `hcl:"lanes,optional"`
	Peripherals []*peripheralBlock `hcl:"peripheral,block"`
	Software    []*softwareBlock   `hcl:"software,block"`
}

type peripheralBlock struct {
	Name   string `hcl:"name,label"`
	Module string `hcl:"module"`
}

type softwareBlock struct {
	Role    string   `hcl:"role,label"`
	Dir     string   `hcl:"dir"`
	AddrW   *int     `hcl:"addr_w,optional"`
	Image   *bool    `hcl:"image,optional"`
	Command []string `hcl:"command,optional"`
	Clean   []string `hcl:"clean,optional"`
	Outputs []string `hcl:"outputs,optional"`
}
