package scene

import (
	"math"
	"sort"
	"sync"

	"github.com/dseditor/AIStudioFloorPlan/internal/service/gemini"
	"github.com/dseditor/AIStudioFloorPlan/pkg/errors"
)

type Status string

const (
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusErrored Status = "errored"
)

type Lighting string

const (
	LightingDay   Lighting = "day"
	LightingNight Lighting = "night"
)

const (
	TiltMin = -45.0
	TiltMax = 45.0
	ZoomMin = 0.5
	ZoomMax = 2.0
	TempMin = 2700
	TempMax = 7500
)

type Camera struct {
	RotationDeg float64
	TiltDeg     float64
	ZoomFactor  float64
}

func DefaultCamera() Camera {
	return Camera{RotationDeg: 0, TiltDeg: 0, ZoomFactor: 1.0}
}

// Clamped returns the camera with every parameter forced into its legal range.
func (c Camera) Clamped() Camera {
	c.RotationDeg = math.Mod(c.RotationDeg, 360)
	if c.RotationDeg < 0 {
		c.RotationDeg += 360
	}
	c.TiltDeg = clampFloat(c.TiltDeg, TiltMin, TiltMax)
	if c.ZoomFactor == 0 {
		c.ZoomFactor = 1.0
	}
	c.ZoomFactor = clampFloat(c.ZoomFactor, ZoomMin, ZoomMax)
	return c
}

// Scene is one interior viewpoint. Lifecycle: created in bulk when scene
// generation is triggered, replaced whole-record as async results settle,
// deleted only by clearing all viewpoints.
type Scene struct {
	ViewpointIndex    int
	Current           *gemini.Image
	Original          *gemini.Image // first successful generation, kept for restore
	Camera            Camera
	Lighting          Lighting
	ColorTemperatureK int
	Status            Status
	Error             string
}

// Store holds the in-memory scene collection. All mutation goes through
// whole-record replacement keyed by viewpoint index; a per-viewpoint
// generation counter makes late-arriving stale results no-ops instead of
// letting them clobber newer state.
type Store struct {
	mu     sync.Mutex
	scenes map[int]*Scene
	gens   map[int]uint64
}

func NewStore() *Store {
	return &Store{
		scenes: make(map[int]*Scene),
		gens:   make(map[int]uint64),
	}
}

// Begin transitions the viewpoint to Loading and returns the token that a
// later Complete or Fail must present. Creates the scene record on first use.
func (s *Store) Begin(index int) (uint64, error) {
	if index < 1 {
		return 0, errors.Newf(errors.ErrCodeInvalidInput, "viewpoint index must be >= 1, got %d", index)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.gens[index]++
	token := s.gens[index]

	prev := s.scenes[index]
	next := &Scene{
		ViewpointIndex:    index,
		Camera:            DefaultCamera(),
		Lighting:          LightingDay,
		ColorTemperatureK: 5000,
		Status:            StatusLoading,
	}
	if prev != nil {
		// Keep what survives a regeneration: the restore image and the
		// user's camera/lighting choices.
		next.Original = prev.Original
		next.Camera = prev.Camera
		next.Lighting = prev.Lighting
		next.ColorTemperatureK = prev.ColorTemperatureK
	}
	s.scenes[index] = next
	return token, nil
}

// BeginBatch starts Loading for every given viewpoint and returns the tokens.
func (s *Store) BeginBatch(indices []int) (map[int]uint64, error) {
	tokens := make(map[int]uint64, len(indices))
	for _, idx := range indices {
		tok, err := s.Begin(idx)
		if err != nil {
			return nil, err
		}
		tokens[idx] = tok
	}
	return tokens, nil
}

// Complete settles a generation with its image. Returns false when the token
// is stale, i.e. a newer operation has superseded this one; the result is
// dropped and the record untouched.
func (s *Store) Complete(index int, token uint64, img *gemini.Image) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.gens[index] != token {
		return false
	}
	sc, ok := s.scenes[index]
	if !ok {
		return false
	}

	next := *sc
	next.Current = img
	if next.Original == nil {
		next.Original = img
	}
	next.Status = StatusReady
	next.Error = ""
	s.scenes[index] = &next
	return true
}

// Fail settles a generation with an error message. Stale tokens are dropped.
func (s *Store) Fail(index int, token uint64, msg string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.gens[index] != token {
		return false
	}
	sc, ok := s.scenes[index]
	if !ok {
		return false
	}

	next := *sc
	next.Status = StatusErrored
	next.Error = msg
	s.scenes[index] = &next
	return true
}

// UpdateCamera stores clamped camera parameters and returns the clamped copy
// that the regeneration prompt should use.
func (s *Store) UpdateCamera(index int, cam Camera, lighting Lighting, tempK int) (Camera, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sc, ok := s.scenes[index]
	if !ok {
		return Camera{}, errors.Newf(errors.ErrCodeInvalidInput, "no scene for viewpoint %d", index)
	}

	clamped := cam.Clamped()
	if lighting != LightingNight {
		lighting = LightingDay
	}
	tempK = clampInt(tempK, TempMin, TempMax)

	next := *sc
	next.Camera = clamped
	next.Lighting = lighting
	next.ColorTemperatureK = tempK
	s.scenes[index] = &next
	return clamped, nil
}

// Restore puts the first successful generation back as the current image.
func (s *Store) Restore(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sc, ok := s.scenes[index]
	if !ok {
		return errors.Newf(errors.ErrCodeInvalidInput, "no scene for viewpoint %d", index)
	}
	if sc.Original == nil {
		return errors.Newf(errors.ErrCodeInvalidInput, "viewpoint %d has no original image to restore", index)
	}

	next := *sc
	next.Current = sc.Original
	next.Status = StatusReady
	next.Error = ""
	s.scenes[index] = &next
	return nil
}

// Get returns a copy of the scene record.
func (s *Store) Get(index int) (Scene, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sc, ok := s.scenes[index]
	if !ok {
		return Scene{}, false
	}
	return *sc, true
}

// List returns copies of all scenes ordered by viewpoint index.
func (s *Store) List() []Scene {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Scene, 0, len(s.scenes))
	for _, sc := range s.scenes {
		out = append(out, *sc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ViewpointIndex < out[j].ViewpointIndex })
	return out
}

// Clear drops every scene. The only way scenes are deleted.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scenes = make(map[int]*Scene)
	s.gens = make(map[int]uint64)
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
