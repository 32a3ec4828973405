package prompt

import (
	"fmt"
	"math/rand"
	"regexp"
	"strings"
	"sync"
	"time"
)

// Kind selects the fixed instruction template for a generation task.
type Kind string

const (
	KindCleanRender    Kind = "clean-render"
	KindMaskedEdit     Kind = "masked-edit"
	KindMaterialPass   Kind = "material-pass"
	KindDollhouse      Kind = "dollhouse"
	KindSceneFromPoint Kind = "scene-from-point"
	KindSceneEdit      Kind = "scene-edit"
)

// Camera carries the viewpoint parameters rendered into scene prompts.
type Camera struct {
	RotationDeg       float64
	TiltDeg           float64
	ZoomFactor        float64
	Lighting          string // "day" | "night"
	ColorTemperatureK int
}

// Params is the input to a single prompt construction.
type Params struct {
	Kind        Kind
	Instruction string // free-text user instruction, always kept verbatim
	Style       string // e.g. "1970s retro", "Scandinavian minimal"
	Viewpoint   int    // 1-based viewpoint index for scene tasks
	InsertItem  string // optional object to place during a scene edit
	Camera      *Camera
}

const symbolRules = `Interpret standard floor-plan symbols: double lines are walls, ` +
	`arcs are door swings, parallel thin lines are windows, hatched areas are fixed installations. ` +
	`Keep every wall, door and window exactly where the plan places it.`

const maskRules = `A black-and-white mask image follows the base image. ` +
	`Only pixels that are white in the mask may change; black regions must remain identical to the base image.`

const perspectiveRules = `Render from eye level at the marked point, natural perspective, ` +
	`straight verticals, no fisheye distortion.`

var templates = map[Kind]string{
	KindCleanRender: `Turn this 2D floor plan into a photorealistic top-down interior rendering. ` +
		symbolRules + ` Furnish each room according to its function. Use realistic materials and soft daylight.`,

	KindMaskedEdit: `Edit the furnished floor-plan rendering. ` + maskRules + ` ` +
		`Apply the requested change only inside the editable region and blend it seamlessly with the surroundings.`,

	KindMaterialPass: `Reapply surface materials to this furnished floor-plan rendering. ` +
		`Do not alter the room layout, furniture placement, walls, doors or windows in any way; ` +
		`change only floor, wall and surface finishes.`,

	KindDollhouse: `Convert this furnished floor plan into a 3D dollhouse cutaway view: ` +
		`walls raised and cut at chest height, camera looking down at roughly 45 degrees, ` +
		`rooms furnished exactly as in the plan.`,

	KindSceneFromPoint: `Generate a photorealistic interior photograph seen from the marked viewpoint ` +
		`on this furnished floor plan. ` + perspectiveRules + ` ` +
		`The visible room content must match the plan: same furniture, same openings, same finishes.`,

	KindSceneEdit: `Edit this interior photograph. Keep the camera position, lens and framing identical. ` +
		`Apply only the requested change; everything else in the scene must stay as it is.`,
}

// variationSuffixes decorrelate repeated calls that share identical base text.
// The upstream model tends to return near-identical images for byte-identical
// prompts, so every built prompt ends with one of these plus a timestamp.
var variationSuffixes = []string{
	" Render a fresh interpretation.",
	" Produce an alternative take.",
	" (new variation)",
	" -- alternate rendition --",
	" Explore a different arrangement of the unconstrained details.",
}

// Builder constructs prompts. Safe for concurrent use: one Builder is shared
// by every candidate goroutine. The zero value is not usable; use New.
type Builder struct {
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

func New() *Builder {
	return &Builder{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
		now: time.Now,
	}
}

// Build renders the full prompt for the given task. Pure except for the
// randomized uniqueness suffix; call it once per candidate so each candidate
// gets an independent suffix.
func (b *Builder) Build(p Params) string {
	var sb strings.Builder
	sb.WriteString(templates[p.Kind])

	if p.Style != "" {
		fmt.Fprintf(&sb, " Overall interior style: %s.", p.Style)
	}

	if p.Kind == KindSceneFromPoint || p.Kind == KindSceneEdit {
		if p.Viewpoint > 0 {
			fmt.Fprintf(&sb, " This is viewpoint %d.", p.Viewpoint)
		}
		if p.Camera != nil {
			b.writeCamera(&sb, p.Camera)
		}
	}

	if p.InsertItem != "" {
		fmt.Fprintf(&sb, " Place the following object naturally into the scene: %s.", p.InsertItem)
	}

	if p.Instruction != "" {
		fmt.Fprintf(&sb, " User instruction: %s", p.Instruction)
	}

	sb.WriteString(b.suffix())
	return sb.String()
}

func (b *Builder) writeCamera(sb *strings.Builder, c *Camera) {
	fmt.Fprintf(sb, " Camera: rotate the view %.0f degrees clockwise, tilt %.0f degrees, zoom factor %.2f.",
		c.RotationDeg, c.TiltDeg, c.ZoomFactor)
	switch c.Lighting {
	case "night":
		sb.WriteString(" Night scene: artificial interior lighting, dark sky outside the windows.")
	default:
		sb.WriteString(" Daytime scene with natural light through the windows.")
	}
	if c.ColorTemperatureK > 0 {
		fmt.Fprintf(sb, " Light color temperature approximately %dK.", c.ColorTemperatureK)
	}
}

func (b *Builder) suffix() string {
	// rand.Rand is not safe for concurrent use.
	b.mu.Lock()
	v := variationSuffixes[b.rng.Intn(len(variationSuffixes))]
	nonce := b.rng.Intn(0x10000)
	b.mu.Unlock()

	// The nonce keeps two calls within the same millisecond distinct.
	return fmt.Sprintf("%s [req %d-%04x]", v, b.now().UnixMilli(), nonce)
}

var decadeRe = regexp.MustCompile(`\b(19|20)\d0s\b`)

// FallbackFor derives a more conservative substitute prompt when the original
// looks like it was refused for its era styling. It extracts a decade token
// ("1970s", "2020s") and swaps the stylistic framing for a neutral one. The
// second return is false when no substitutable parameter exists.
func (b *Builder) FallbackFor(original string) (string, bool) {
	decade := decadeRe.FindString(original)
	if decade == "" {
		return "", false
	}

	replaced := decadeRe.ReplaceAllString(original,
		fmt.Sprintf("a tasteful interior style inspired by the %s era", decade))
	replaced = strings.Replace(replaced,
		"photorealistic", "clean, professional architectural visualization", 1)
	return replaced + b.suffix(), true
}
