package main

import (
	"flag"
	"fmt"
	"image/color"
	"log"
	"os"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font/basicfont"

	"goslicc/pkg/compiler"
	"goslicc/pkg/grid"
	"goslicc/pkg/utils"
	"goslicc/pkg/viewer"
)

const (
	screenWidth  = 800
	screenHeight = 600
	lineHeight   = 14
	cellWidth    = 190
	cellHeight   = 44
	addrCols     = 4
)

var (
	colorText    = color.RGBA{0xdd, 0xdd, 0xdd, 0xff}
	colorStall   = color.RGBA{0x80, 0x80, 0x80, 0xff}
	colorCurrent = color.RGBA{0xff, 0xd0, 0x40, 0xff}
	colorWaiting = color.RGBA{0xff, 0x60, 0x60, 0xff}
)

type Game struct {
	session *viewer.Session
	face    text.Face
	last    []viewer.Outcome
}

func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.last, _ = g.session.Step()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
		for !g.session.Done() {
			g.last, _ = g.session.Step()
		}
	}
	return nil
}

func (g *Game) drawText(screen *ebiten.Image, s string, x, y int, clr color.Color) {
	op := &text.DrawOptions{}
	op.GeoM.Translate(float64(x), float64(y))
	op.ColorScale.ScaleWithColor(clr)
	text.Draw(screen, s, g.face, op)
}

func (g *Game) Draw(screen *ebiten.Image) {
	y := 4
	for _, l := range tableLines(g.session, g.last) {
		clr := colorText
		switch l.kind {
		case lineStall:
			clr = colorStall
		case lineCurrent:
			clr = colorCurrent
		}
		g.drawText(screen, l.text, 8, y, clr)
		y += lineHeight
	}

	// One cell per address: its state and how many messages wait on it.
	top := y + lineHeight
	for i, addr := range g.session.Addresses() {
		col, row := grid.GetGridCoords(i, addrCols)
		px := 8 + col*cellWidth
		py := top + row*cellHeight
		g.drawText(screen, fmt.Sprintf("%s  %s", addr, g.session.State(addr)), px, py, colorText)
		if n := g.session.Waiting().Len(addr); n > 0 {
			g.drawText(screen, fmt.Sprintf("%d waiting", n), px, py+lineHeight, colorWaiting)
		}
	}

	status := fmt.Sprintf("%d step(s) left  [space] step  [enter] run", g.session.Remaining())
	ebitenutil.DebugPrintAt(screen, status, 8, screenHeight-20)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return screenWidth, screenHeight
}

type lineKind int

const (
	lineNormal lineKind = iota
	lineStall
	lineCurrent
)

type tableLine struct {
	text string
	kind lineKind
}

// tableLines renders the transition table, highlighting the rows taken by
// the last step.
func tableLines(s *viewer.Session, last []viewer.Outcome) []tableLine {
	taken := make(map[*compiler.Row]bool)
	for _, o := range last {
		taken[o.Row] = true
	}
	t := s.Machine().Table
	lines := []tableLine{{text: fmt.Sprintf("Table %s (%d states x %d events)", t.Machine, len(t.States), len(t.Events))}}
	for si := range t.Rows {
		for ei := range t.Rows[si] {
			r := &t.Rows[si][ei]
			l := tableLine{text: rowText(r)}
			switch {
			case taken[r]:
				l.kind = lineCurrent
			case r.IsStall():
				l.kind = lineStall
			}
			lines = append(lines, l)
		}
	}
	return lines
}

func rowText(r *compiler.Row) string {
	if r.IsStall() {
		return fmt.Sprintf("%-10s %-10s stall", r.State, r.Event)
	}
	names := make([]string, len(r.Actions))
	for i, a := range r.Actions {
		names[i] = a.Name
	}
	return fmt.Sprintf("%-10s %-10s -> %-10s %s", r.State, r.Event, r.Next, strings.Join(names, " "))
}

func load(specPath, tracePath, name string) (*viewer.Session, error) {
	res, err := compiler.Compile("view", specPath)
	if err != nil {
		return nil, err
	}
	if len(res.Program.Machines) == 0 {
		return nil, fmt.Errorf("%s declares no machine", specPath)
	}
	m := res.Program.Machines[0]
	if name != "" {
		var ok bool
		if m, ok = res.Program.Machine(name); !ok {
			return nil, fmt.Errorf("%s declares no machine %q", specPath, name)
		}
	}
	f, err := os.Open(tracePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	steps, err := viewer.ParseTrace(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", tracePath, err)
	}
	return viewer.NewSession(m, steps)
}

func main() {
	machine := flag.String("machine", "", "machine to show (default: the first one declared)")
	flag.Parse()
	if flag.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "usage: sliccview [-machine name] spec.sm trace.txt")
		os.Exit(2)
	}

	specPath, _, err := utils.GetPathInfo(flag.Arg(0))
	if err != nil {
		log.Fatalf("Failed to resolve %s: %v", flag.Arg(0), err)
	}
	session, err := load(specPath, flag.Arg(1), *machine)
	if err != nil {
		log.Fatalf("Failed to load: %v", err)
	}

	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(screenWidth, screenHeight)
	ebiten.SetWindowTitle("slicc: " + session.Machine().Name)

	game := &Game{session: session, face: text.NewGoXFace(basicfont.Face7x13)}
	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
}
