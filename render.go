package tinsel

import (
	"cmp"
	"image"
	"image/color"
	"math"
	"slices"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// CommandType identifies what a render command draws.
type CommandType uint8

const (
	CommandParticle CommandType = iota // one particle from the store
	CommandSnow                        // one snowflake
	CommandTopper                      // the star topper
)

// RenderCommand is a single billboard emitted from the store each frame.
type RenderCommand struct {
	Type CommandType
	// Kind is the particle type for CommandParticle.
	Kind ParticleType
	// Index is the store index for CommandParticle.
	Index int

	// X and Y are the screen-space center in pixels.
	X, Y float64
	// Size is the on-screen diameter in pixels.
	Size float64
	// Depth is the distance along the view axis; larger is farther.
	Depth    float64
	Rotation float64
	Color    Color
	Blend    BlendMode

	order int
}

// spriteKind selects one of the procedural billboard images.
type spriteKind uint8

const (
	spriteDot spriteKind = iota
	spriteBox
	spriteStripe
	spriteFrame
	spriteStar
	spriteKindCount
)

const spriteSize = 32

// drawState holds reusable render buffers. Images are created on first Draw.
type drawState struct {
	commands []RenderCommand
	sprites  [spriteKindCount]*ebiten.Image
	op       ebiten.DrawImageOptions
}

// Draw renders the scene to screen: clear, project every visible particle,
// sort back to front and submit.
func (s *Scene) Draw(screen *ebiten.Image) {
	var t0 time.Time
	if s.debug {
		t0 = time.Now()
	}

	screen.Fill(s.ClearColor.toRGBA())
	b := screen.Bounds()
	s.buildCommands(float64(b.Dx()), float64(b.Dy()))
	s.sortCommands()
	s.submit(screen)

	if s.debug {
		s.debugDrawLog(time.Since(t0), len(s.draw.commands))
	}
	s.flushScreenshots(screen)
}

// buildCommands projects the store, the snowfall and the topper into
// s.draw.commands for a w x h viewport.
func (s *Scene) buildCommands(w, h float64) {
	d := &s.draw
	d.commands = d.commands[:0]
	if w <= 0 || h <= 0 {
		return
	}
	vp := s.camera.ViewProjection(w / h)
	focal := h / 2 / math.Tan(mgl64.DegToRad(s.camera.FOV)/2)
	order := 0

	emit := func(cmd RenderCommand, world Vec3, worldSize float64) {
		sx, sy, depth, ok := projectWith(vp, world, w, h)
		if !ok {
			return
		}
		cmd.X, cmd.Y, cmd.Depth = sx, sy, depth
		cmd.Size = worldSize * focal / depth
		if cmd.Size < 0.5 {
			return
		}
		order++
		cmd.order = order
		d.commands = append(d.commands, cmd)
	}

	for i := range s.snow.flakes {
		emit(RenderCommand{Type: CommandSnow, Color: ColorWhite, Blend: BlendAdd}, s.snow.flakes[i].Pos, 0.15)
	}

	for t := range particleTypeCount {
		kind := ParticleType(t)
		for _, idx := range s.store.Indices(kind) {
			p := &s.store.particles[idx]
			if p.Scale <= 0 || (kind == ParticlePhoto && !p.Active) {
				continue
			}
			emit(RenderCommand{
				Type:     CommandParticle,
				Kind:     kind,
				Index:    idx,
				Rotation: p.Rotation.Z,
				Color:    s.particleColor(p),
				Blend:    kind.BlendMode(),
			}, s.sim.LocalToWorld(p.CurrentPos), s.PhotoScale(idx))
		}
	}

	top := s.topper
	emit(RenderCommand{
		Type:     CommandTopper,
		Rotation: top.Rotation,
		Color:    ColorGoldMetallic,
		Blend:    BlendAdd,
	}, s.TopperWorldPos(), 1.2*top.Scale)
}

// particleColor applies per-type animation to the base color: lights
// twinkle, foliage breathes.
func (s *Scene) particleColor(p *Particle) Color {
	c := p.Color
	switch p.Type {
	case ParticleLight:
		c.A = 0.6 + 0.4*math.Sin(s.elapsed*4+p.PhaseOffset)
	case ParticleLeaf:
		c.A = 0.75 + 0.25*math.Sin(s.elapsed*1.5+p.PhaseOffset)
	case ParticleOrnamentBall, ParticleOrnamentGift, ParticleCane, ParticlePhoto:
	}
	return c
}

// spriteFor maps each particle type to its billboard image.
func spriteFor(t ParticleType) spriteKind {
	switch t {
	case ParticleLeaf, ParticleLight, ParticleOrnamentBall:
		return spriteDot
	case ParticleOrnamentGift:
		return spriteBox
	case ParticleCane:
		return spriteStripe
	case ParticlePhoto:
		return spriteFrame
	default:
		return spriteDot
	}
}

// compareCommands orders farther commands first; equal depths keep
// emission order.
func compareCommands(a, b RenderCommand) int {
	if c := cmp.Compare(b.Depth, a.Depth); c != 0 {
		return c
	}
	return cmp.Compare(a.order, b.order)
}

// sortCommands sorts the command list back to front in place.
func (s *Scene) sortCommands() {
	slices.SortStableFunc(s.draw.commands, compareCommands)
}

// submit draws the sorted commands.
func (s *Scene) submit(target *ebiten.Image) {
	d := &s.draw
	s.ensureSprites()
	op := &d.op
	for i := range d.commands {
		cmd := &d.commands[i]
		img := d.sprites[spriteDot]
		switch cmd.Type {
		case CommandParticle:
			img = d.sprites[spriteFor(cmd.Kind)]
			if cmd.Kind == ParticlePhoto {
				if tex, ok := s.store.particles[cmd.Index].Texture.(*ebiten.Image); ok && tex != nil {
					s.submitPhoto(target, cmd, tex)
					continue
				}
			}
		case CommandTopper:
			img = d.sprites[spriteStar]
		case CommandSnow:
		}
		op.GeoM.Reset()
		op.GeoM.Translate(-spriteSize/2, -spriteSize/2)
		op.GeoM.Rotate(cmd.Rotation)
		op.GeoM.Scale(cmd.Size/spriteSize, cmd.Size/spriteSize)
		op.GeoM.Translate(cmd.X, cmd.Y)
		applyColor(op, cmd)
		target.DrawImage(img, op)
	}
}

// submitPhoto draws a photo texture inside its gold frame, preserving the
// texture's aspect ratio.
func (s *Scene) submitPhoto(target *ebiten.Image, cmd *RenderCommand, tex *ebiten.Image) {
	op := &s.draw.op
	frame := s.draw.sprites[spriteFrame]
	op.GeoM.Reset()
	op.GeoM.Translate(-spriteSize/2, -spriteSize/2)
	op.GeoM.Scale(cmd.Size/spriteSize, cmd.Size/spriteSize)
	op.GeoM.Translate(cmd.X, cmd.Y)
	applyColor(op, cmd)
	target.DrawImage(frame, op)

	b := tex.Bounds()
	tw, th := float64(b.Dx()), float64(b.Dy())
	if tw <= 0 || th <= 0 {
		return
	}
	inner := cmd.Size * 0.85
	scale := inner / math.Max(tw, th)
	op.GeoM.Reset()
	op.GeoM.Translate(-tw/2, -th/2)
	op.GeoM.Scale(scale, scale)
	op.GeoM.Translate(cmd.X, cmd.Y)
	op.ColorScale.Reset()
	op.Blend = BlendNormal.EbitenBlend()
	target.DrawImage(tex, op)
}

func applyColor(op *ebiten.DrawImageOptions, cmd *RenderCommand) {
	c := cmd.Color
	a := float32(clamp01(c.A))
	op.ColorScale.Reset()
	op.ColorScale.Scale(float32(c.R)*a, float32(c.G)*a, float32(c.B)*a, a)
	op.Blend = cmd.Blend.EbitenBlend()
}

// ensureSprites creates the procedural billboard images on first use.
func (s *Scene) ensureSprites() {
	d := &s.draw
	if d.sprites[spriteDot] != nil {
		return
	}
	white := color.White
	const half = spriteSize / 2

	dot := ebiten.NewImage(spriteSize, spriteSize)
	vector.DrawFilledCircle(dot, half, half, half-1, white, true)
	d.sprites[spriteDot] = dot

	box := ebiten.NewImage(spriteSize, spriteSize)
	vector.DrawFilledRect(box, 2, 2, spriteSize-4, spriteSize-4, white, true)
	vector.DrawFilledRect(box, half-2, 0, 4, spriteSize, color.RGBA{255, 215, 0, 255}, true)
	d.sprites[spriteBox] = box

	stripe := ebiten.NewImage(spriteSize, spriteSize)
	vector.DrawFilledRect(stripe, half-3, 0, 6, spriteSize, white, true)
	for y := float32(2); y < spriteSize; y += 8 {
		vector.DrawFilledRect(stripe, half-3, y, 6, 3, color.RGBA{200, 16, 46, 255}, true)
	}
	d.sprites[spriteStripe] = stripe

	frame := ebiten.NewImage(spriteSize, spriteSize)
	vector.DrawFilledRect(frame, 0, 0, spriteSize, spriteSize, white, true)
	d.sprites[spriteFrame] = frame

	star := ebiten.NewImage(spriteSize, spriteSize)
	var path vector.Path
	for i := range 10 {
		r := float64(half - 1)
		if i%2 == 1 {
			r *= 0.45
		}
		a := float64(i)*math.Pi/5 - math.Pi/2
		x, y := float32(half+r*math.Cos(a)), float32(half+r*math.Sin(a))
		if i == 0 {
			path.MoveTo(x, y)
		} else {
			path.LineTo(x, y)
		}
	}
	path.Close()
	vs, is := path.AppendVerticesAndIndicesForFilling(nil, nil)
	for i := range vs {
		vs[i].SrcX, vs[i].SrcY = 1, 1
		vs[i].ColorR, vs[i].ColorG, vs[i].ColorB, vs[i].ColorA = 1, 1, 1, 1
	}
	src := ebiten.NewImage(3, 3)
	src.Fill(white)
	star.DrawTriangles(vs, is, src.SubImage(image.Rect(1, 1, 2, 2)).(*ebiten.Image), &ebiten.DrawTrianglesOptions{})
	d.sprites[spriteStar] = star
}
