// Package viewer renders a running swarm with ebiten.
package viewer

import (
	"context"
	"fmt"
	"image/color"
	"math"
	"sort"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/adam-goose/fyp/pkg/behavior"
	"github.com/adam-goose/fyp/pkg/camera"
	"github.com/adam-goose/fyp/pkg/geometry"
	"github.com/adam-goose/fyp/pkg/simulation"
)

var (
	backgroundColor = color.RGBA{R: 10, G: 10, B: 30, A: 255}
	worldColor      = color.RGBA{R: 90, G: 90, B: 140, A: 255}
	obstacleColor   = color.RGBA{R: 255, G: 120, B: 50, A: 255}
	whiteImage      = ebiten.NewImage(3, 3)
)

// headingLength is the world-space length used to find the on-screen heading of an agent.
const headingLength = 0.5

// Game pulls snapshots from a swarm and draws them from a fixed camera.
type Game struct {
	ctx    context.Context
	swarm  *simulation.Swarm
	cfg    *simulation.Config
	camera *camera.Camera

	StepsPerFrame uint32
	lastState     behavior.Snapshot
	lastErr       error
	order         []int

	// Timing instrumentation
	lastUpdateDuration time.Duration
	lastDrawDuration   time.Duration
	updateAvg          float64 // Rolling average in ms
	drawAvg            float64 // Rolling average in ms
}

// NewGame wraps a started swarm. cfg provides the world and obstacle geometry to draw.
func NewGame(ctx context.Context, swarm *simulation.Swarm, cfg *simulation.Config, width, height int) *Game {
	return &Game{
		ctx:           ctx,
		swarm:         swarm,
		cfg:           cfg,
		camera:        camera.Framing(cfg.World(), width, height),
		StepsPerFrame: 1,
	}
}

func (g *Game) Update() error {
	start := time.Now()
	defer func() {
		g.lastUpdateDuration = time.Since(start)
		// Rolling average (exponential moving average)
		g.updateAvg = g.updateAvg*0.95 + float64(g.lastUpdateDuration.Microseconds())/1000.0*0.05
	}()

	// Trigger Simulation Step
	if err := g.swarm.Tick(g.ctx, g.StepsPerFrame); err != nil {
		g.lastErr = err
		return nil
	}

	// Retrieve Latest State (Non-blocking), keeping only the newest frame
	for {
		select {
		case snap := <-g.swarm.Snapshots():
			g.lastState = snap
		default:
			return nil
		}
	}
}

func (g *Game) Draw(screen *ebiten.Image) {
	start := time.Now()
	defer func() {
		g.lastDrawDuration = time.Since(start)
		g.drawAvg = g.drawAvg*0.95 + float64(g.lastDrawDuration.Microseconds())/1000.0*0.05
	}()

	screen.Fill(backgroundColor)
	g.drawBox(screen, g.cfg.World(), worldColor)
	if g.cfg.ObstacleEnabled {
		g.drawBox(screen, g.cfg.ObstacleBox(), obstacleColor)
	}

	// far agents first so near ones are drawn on top
	n := g.lastState.Len()
	g.order = g.order[:0]
	for i := 0; i < n; i++ {
		g.order = append(g.order, i)
	}
	sort.Slice(g.order, func(a, b int) bool {
		return g.camera.Depth(g.lastState.Position(g.order[a])) > g.camera.Depth(g.lastState.Position(g.order[b]))
	})
	for _, i := range g.order {
		g.drawAgent(screen, g.lastState.Position(i), g.lastState.Direction(i), g.lastState.Speeds[i])
	}

	msg := fmt.Sprintf("Agents: %d  Epoch: %d  Tick: %d\nFPS: %.2f\nTPS: %.2f\n\nUpdate: %.2fms\nDraw:   %.2fms",
		n, g.lastState.Epoch, g.lastState.Tick,
		ebiten.ActualFPS(),
		ebiten.ActualTPS(),
		g.updateAvg,
		g.drawAvg)
	if g.lastErr != nil {
		msg += "\n\nError: " + g.lastErr.Error()
	}
	ebitenutil.DebugPrintAt(screen, msg, 10, 10)
}

func (g *Game) drawBox(screen *ebiten.Image, b geometry.Box, clr color.Color) {
	for _, e := range camera.BoxEdges(b) {
		x0, y0, ok0 := g.camera.Project(e[0])
		x1, y1, ok1 := g.camera.Project(e[1])
		if !ok0 || !ok1 {
			continue
		}
		vector.StrokeLine(screen, float32(x0), float32(y0), float32(x1), float32(y1), 1, clr, true)
	}
}

// drawAgent draws a triangle pointing along the projected heading, shaded by speed.
func (g *Game) drawAgent(screen *ebiten.Image, pos, dir geometry.Vector3D, speed float64) {
	x, y, ok := g.camera.Project(pos)
	if !ok {
		return
	}
	tx, ty, ok := g.camera.Project(pos.Add(dir.Mul(headingLength)))
	if !ok {
		return
	}
	angle := math.Atan2(ty-y, tx-x)

	// nearer agents are drawn bigger
	size := geometry.Clamp(300/g.camera.Depth(pos), 2, 12)
	tipX := x + math.Cos(angle)*size*1.2
	tipY := y + math.Sin(angle)*size*1.2
	rightX := x + math.Cos(angle+2.5)*size
	rightY := y + math.Sin(angle+2.5)*size
	leftX := x + math.Cos(angle-2.5)*size
	leftY := y + math.Sin(angle-2.5)*size

	shade := float32(0.4)
	if g.cfg.MaxSpeed > 0 {
		shade += 0.6 * float32(geometry.Clamp(speed/g.cfg.MaxSpeed, 0, 1))
	}
	r, gr, b := 0.4*shade, 0.8*shade, shade

	vertices := []ebiten.Vertex{
		{DstX: float32(tipX), DstY: float32(tipY), SrcX: 1, SrcY: 1, ColorR: r, ColorG: gr, ColorB: b, ColorA: 1},
		{DstX: float32(rightX), DstY: float32(rightY), SrcX: 1, SrcY: 1, ColorR: r, ColorG: gr, ColorB: b, ColorA: 1},
		{DstX: float32(leftX), DstY: float32(leftY), SrcX: 1, SrcY: 1, ColorR: r, ColorG: gr, ColorB: b, ColorA: 1},
	}
	screen.DrawTriangles(vertices, []uint16{0, 1, 2}, whiteImage, &ebiten.DrawTrianglesOptions{})
}

func (g *Game) Layout(w, h int) (int, int) {
	g.camera.Resize(w, h)
	return w, h
}

func init() {
	whiteImage.Fill(color.White)
}
