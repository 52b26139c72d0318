package viewer

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"goslicc/pkg/ruby"
)

// Step is one line of a trace: an event arriving for an address.
type Step struct {
	Line  int
	Addr  ruby.Addr
	Event string
}

func (s Step) String() string {
	return fmt.Sprintf("%s %s", s.Addr, s.Event)
}

// ParseTrace reads "<addr> <Event>" lines. Addresses are decimal or 0x hex;
// blank lines and text after '#' are ignored.
func ParseTrace(r io.Reader) ([]Step, error) {
	var steps []Step
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := sc.Text()
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}
		fields := strings.Fields(text)
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 2 {
			return nil, fmt.Errorf("line %d: expected \"<addr> <Event>\", got %q", line, strings.TrimSpace(text))
		}
		addr, err := strconv.ParseUint(fields[0], 0, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid address %q", line, fields[0])
		}
		steps = append(steps, Step{Line: line, Addr: ruby.Addr(addr), Event: fields[1]})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return steps, nil
}
