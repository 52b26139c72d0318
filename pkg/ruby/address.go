package ruby

import "fmt"

// Addr is a physical address.
type Addr uint64

// LineSize is the coherence granule in bytes.
const LineSize = 64

func (a Addr) String() string {
	return fmt.Sprintf("0x%x", uint64(a))
}

// LineAddress returns the address of the line holding a.
func LineAddress(a Addr) Addr {
	return a &^ (LineSize - 1)
}

// AddrRange is the half-open interval [Start, End). The zero range covers
// every address.
type AddrRange struct {
	Start Addr
	End   Addr
}

func (r AddrRange) Contains(a Addr) bool {
	if r.Start == 0 && r.End == 0 {
		return true
	}
	return a >= r.Start && a < r.End
}

func (r AddrRange) String() string {
	if r.Start == 0 && r.End == 0 {
		return "[all]"
	}
	return fmt.Sprintf("[%s, %s)", r.Start, r.End)
}
