package tinsel

import "testing"

func TestBuildCommandsSortsBackToFront(t *testing.T) {
	s := newTestScene(t)
	s.SetPhotos(testTextures(2))
	s.buildCommands(1280, 720)
	s.sortCommands()

	cmds := s.draw.commands
	if len(cmds) == 0 {
		t.Fatal("no commands emitted")
	}
	for i := 1; i < len(cmds); i++ {
		if cmds[i].Depth > cmds[i-1].Depth {
			t.Fatalf("command %d depth %v drawn after nearer %v", i, cmds[i].Depth, cmds[i-1].Depth)
		}
	}

	topper, photos := 0, 0
	for _, c := range cmds {
		switch c.Type {
		case CommandTopper:
			topper++
		case CommandParticle:
			if c.Kind == ParticlePhoto {
				photos++
				if !s.store.particles[c.Index].Active {
					t.Errorf("inactive photo %d emitted", c.Index)
				}
			}
			if c.Size <= 0 {
				t.Errorf("command for %d has size %v", c.Index, c.Size)
			}
		case CommandSnow:
		}
	}
	if topper != 1 {
		t.Errorf("topper commands = %d, want 1", topper)
	}
	if photos != 2 {
		t.Errorf("photo commands = %d, want 2", photos)
	}
}

func TestBuildCommandsEmptyViewport(t *testing.T) {
	s := newTestScene(t)
	s.buildCommands(0, 0)
	if len(s.draw.commands) != 0 {
		t.Errorf("commands = %d for an empty viewport", len(s.draw.commands))
	}
}

func TestSortCommandsKeepsEmissionOrderForTies(t *testing.T) {
	s := newTestScene(t)
	s.draw.commands = []RenderCommand{
		{Depth: 5, order: 1},
		{Depth: 9, order: 2},
		{Depth: 5, order: 3},
		{Depth: 1, order: 4},
		{Depth: 9, order: 5},
	}
	s.sortCommands()
	want := []int{2, 5, 1, 3, 4}
	for i, c := range s.draw.commands {
		if c.order != want[i] {
			t.Fatalf("order = %v, want %v", s.draw.commands, want)
		}
	}
}

func TestParticleColorAnimates(t *testing.T) {
	s := newTestScene(t)
	light := s.store.particles[s.store.Indices(ParticleLight)[0]]
	ball := s.store.particles[s.store.Indices(ParticleOrnamentBall)[0]]
	for range 50 {
		s.elapsed += 0.1
		if a := s.particleColor(&light).A; a < 0.2-epsilon || a > 1+epsilon {
			t.Fatalf("light alpha %v out of range", a)
		}
		if c := s.particleColor(&ball); c != ball.Color {
			t.Fatalf("ball color changed to %v", c)
		}
	}
}

func TestSpriteForEveryType(t *testing.T) {
	want := map[ParticleType]spriteKind{
		ParticleLeaf:         spriteDot,
		ParticleOrnamentBall: spriteDot,
		ParticleOrnamentGift: spriteBox,
		ParticleLight:        spriteDot,
		ParticleCane:         spriteStripe,
		ParticlePhoto:        spriteFrame,
	}
	for typ, k := range want {
		if got := spriteFor(typ); got != k {
			t.Errorf("spriteFor(%s) = %d, want %d", typ, got, k)
		}
	}
}
