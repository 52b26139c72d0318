package ruby

import (
	"fmt"

	"github.com/sarchlab/akita/v3/sim"
)

// ControllerParams attaches one controller instance to the network.
type ControllerParams struct {
	Name    string
	Version int
	Range   AddrRange
	Period  sim.VTimeInSec // one cycle; defaults to 1
}

func (p ControllerParams) validate() error {
	if p.Name == "" {
		return fmt.Errorf("controller name must be provided")
	}
	if p.Period < 0 {
		return fmt.Errorf("controller %s: period must be >= 0", p.Name)
	}
	if p.Range.End != 0 && p.Range.End <= p.Range.Start {
		return fmt.Errorf("controller %s: empty address range %s", p.Name, p.Range)
	}
	return nil
}

func (p ControllerParams) withDefaults() ControllerParams {
	if p.Period == 0 {
		p.Period = 1
	}
	return p
}
