package config

import (
	"errors"
	"fmt"
	"strconv"
)

// Defaults for the build parameters.
const (
	DefaultFreq     = 100000000
	DefaultBaud     = 115200
	DefaultDDRAddrW = 30
)

// Build holds the parameters that flow into every stage and delegated
// sub-build. It is passed explicitly; nothing reads them from the environment.
type Build struct {
	Freq     int
	Baud     int
	UseDDR   bool
	DDRAddrW int
}

// DefaultBuild returns the build parameters used when none are given.
func DefaultBuild() Build {
	return Build{
		Freq:     DefaultFreq,
		Baud:     DefaultBaud,
		DDRAddrW: DefaultDDRAddrW,
	}
}

// Validate checks that the parameters are usable.
func (b Build) Validate() error {
	var errs []error
	if b.Freq <= 0 {
		errs = append(errs, fmt.Errorf("freq must be positive, got %d", b.Freq))
	}
	if b.Baud <= 0 {
		errs = append(errs, fmt.Errorf("baud must be positive, got %d", b.Baud))
	}
	if b.DDRAddrW <= 0 || b.DDRAddrW > 64 {
		errs = append(errs, fmt.Errorf("ddr-addr-w must be in 1..64, got %d", b.DDRAddrW))
	}
	return errors.Join(errs...)
}

// MakeVars renders the parameters as variable assignments for a delegated
// make invocation.
func (b Build) MakeVars() []string {
	useDDR := 0
	if b.UseDDR {
		useDDR = 1
	}
	return []string{
		"FREQ=" + strconv.Itoa(b.Freq),
		"BAUD=" + strconv.Itoa(b.Baud),
		"USE_DDR=" + strconv.Itoa(useDDR),
		"DDR_ADDR_W=" + strconv.Itoa(b.DDRAddrW),
	}
}
