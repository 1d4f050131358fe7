// OBJ (Wavefront) text format parser.
package formats

import (
	"errors"
	"fmt"
	gomath "math"
	"sort"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// OBJ format errors.
var (
	ErrMalformedNumber   = errors.New("malformed numeric token")
	ErrMalformedIndex    = errors.New("malformed face index")
	ErrDegeneratePolygon = errors.New("polygon has fewer than 3 corners")
	ErrUnknownPolicy     = errors.New("unknown OBJ parse policy")
)

// DefaultOBJGroupName names a group declared by a bare "g" line.
const DefaultOBJGroupName = "default"

// OBJPolicy selects how the parser reacts to malformed input.
type OBJPolicy int

const (
	// PolicyLenient substitutes NaN for bad numbers and drops bad faces.
	PolicyLenient OBJPolicy = iota
	// PolicyStrict stops at the first malformed token.
	PolicyStrict
)

// String returns the policy name as used in configuration.
func (p OBJPolicy) String() string {
	switch p {
	case PolicyLenient:
		return "lenient"
	case PolicyStrict:
		return "strict"
	default:
		return fmt.Sprintf("Unknown(%d)", int(p))
	}
}

// ParseOBJPolicy converts a configuration string to an OBJPolicy.
func ParseOBJPolicy(s string) (OBJPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "lenient":
		return PolicyLenient, nil
	case "strict":
		return PolicyStrict, nil
	default:
		return PolicyLenient, fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
	}
}

// OBJParseError reports a malformed token together with its 1-based line number.
type OBJParseError struct {
	Line  int
	Token string
	Err   error
}

func (e *OBJParseError) Error() string {
	return fmt.Sprintf("line %d: %v: %q", e.Line, e.Err, e.Token)
}

func (e *OBJParseError) Unwrap() error {
	return e.Err
}

// OBJCorner is one face corner. Indices are 0-based and already resolved
// against the pool lengths at the time the face line was read.
type OBJCorner struct {
	Vertex      int
	TexCoord    int
	Normal      int
	HasTexCoord bool
	HasNormal   bool
}

// OBJPolygon is an ordered list of corners in source winding order.
type OBJPolygon []OBJCorner

// OBJGroup is a named run of polygons sharing one material.
type OBJGroup struct {
	Name     string
	Material string // Empty when no usemtl was active
	Polygons []OBJPolygon
}

// TriangleCount returns the number of triangles a fan triangulation yields.
func (g *OBJGroup) TriangleCount() int {
	total := 0
	for _, poly := range g.Polygons {
		if len(poly) >= 3 {
			total += len(poly) - 2
		}
	}
	return total
}

// OBJDocument is a parsed OBJ file. The pools are shared by every group.
type OBJDocument struct {
	Vertices     []mgl32.Vec3
	TexCoords    []mgl32.Vec3 // u, v, w
	Normals      []mgl32.Vec3
	Groups       map[string]*OBJGroup
	MaterialLibs []string // mtllib names, not loaded
	DroppedFaces int      // Faces outside any group or skipped as malformed
}

// GroupNames returns the group names in sorted order.
func (d *OBJDocument) GroupNames() []string {
	names := make([]string, 0, len(d.Groups))
	for name := range d.Groups {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Group returns a group by name.
func (d *OBJDocument) Group(name string) (*OBJGroup, bool) {
	g, ok := d.Groups[name]
	return g, ok
}

// OBJOption configures an OBJParser.
type OBJOption func(*OBJParser)

// WithPolicy sets the malformed-input policy.
func WithPolicy(policy OBJPolicy) OBJOption {
	return func(p *OBJParser) {
		p.policy = policy
	}
}

// WithLogger sets the logger used for warnings about skipped input.
func WithLogger(log *zap.Logger) OBJOption {
	return func(p *OBJParser) {
		if log != nil {
			p.log = log
		}
	}
}

// OBJParser holds the state of a single parse. It is not safe for
// concurrent use; create one parser per document.
type OBJParser struct {
	policy OBJPolicy
	log    *zap.Logger

	doc            *OBJDocument
	lines          []string
	cursor         int
	activeMaterial string
}

// NewOBJParser creates a parser with the given options.
func NewOBJParser(opts ...OBJOption) *OBJParser {
	p := &OBJParser{
		policy: PolicyLenient,
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ParseOBJ parses OBJ text. Under PolicyLenient it never returns an error.
func ParseOBJ(text string, opts ...OBJOption) (*OBJDocument, error) {
	return NewOBJParser(opts...).Parse(text)
}

// Parse parses text into a new document. The parser is reset first, so a
// parser value may be reused sequentially.
func (p *OBJParser) Parse(text string) (*OBJDocument, error) {
	p.doc = &OBJDocument{
		Groups: make(map[string]*OBJGroup),
	}
	p.lines = strings.Split(text, "\n")
	p.cursor = 0
	p.activeMaterial = ""

	for p.cursor < len(p.lines) {
		if err := p.parseSegment(); err != nil {
			return nil, err
		}
	}

	doc := p.doc
	p.doc, p.lines = nil, nil
	return doc, nil
}

// parseSegment consumes lines up to, but not including, the second "g" line
// it encounters and stores the result as one group.
func (p *OBJParser) parseSegment() error {
	var (
		name     string
		named    bool
		polygons []OBJPolygon
	)

segment:
	for ; p.cursor < len(p.lines); p.cursor++ {
		fields := strings.Fields(p.lines[p.cursor])
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "g":
			if named {
				break segment
			}
			if len(polygons) > 0 {
				p.log.Debug("dropping faces outside any group", zap.Int("faces", len(polygons)))
				p.doc.DroppedFaces += len(polygons)
				polygons = nil
			}
			named = true
			name = DefaultOBJGroupName
			if len(fields) > 1 {
				name = fields[1]
			}
		case "usemtl":
			p.activeMaterial = ""
			if len(fields) > 1 {
				p.activeMaterial = fields[1]
			}
		case "mtllib":
			p.doc.MaterialLibs = append(p.doc.MaterialLibs, fields[1:]...)
		case "v":
			v, err := p.parseVec(fields, 3)
			if err != nil {
				return err
			}
			p.doc.Vertices = append(p.doc.Vertices, v)
		case "vt":
			v, err := p.parseVec(fields, 2)
			if err != nil {
				return err
			}
			p.doc.TexCoords = append(p.doc.TexCoords, v)
		case "vn":
			v, err := p.parseVec(fields, 3)
			if err != nil {
				return err
			}
			p.doc.Normals = append(p.doc.Normals, v)
		case "f":
			poly, err := p.parseFace(fields[1:])
			if err != nil {
				if p.policy == PolicyStrict {
					return err
				}
				p.log.Warn("skipping face", zap.Error(err))
				p.doc.DroppedFaces++
				continue
			}
			polygons = append(polygons, poly)
		}
	}

	if !named {
		if len(polygons) > 0 {
			p.log.Debug("dropping faces outside any group", zap.Int("faces", len(polygons)))
			p.doc.DroppedFaces += len(polygons)
		}
		return nil
	}

	if _, exists := p.doc.Groups[name]; exists {
		p.log.Debug("group redeclared, replacing", zap.String("group", name))
	}
	p.doc.Groups[name] = &OBJGroup{
		Name:     name,
		Material: p.activeMaterial,
		Polygons: polygons,
	}
	return nil
}

// parseVec reads up to three floats following the keyword. The first
// required components must be present; the rest default to zero.
func (p *OBJParser) parseVec(fields []string, required int) (mgl32.Vec3, error) {
	var v mgl32.Vec3
	for i := 0; i < 3; i++ {
		if i+1 >= len(fields) {
			if i < required {
				if err := p.malformed(fields[0], ErrMalformedNumber); err != nil {
					return v, err
				}
				v[i] = float32(gomath.NaN())
			}
			continue
		}
		// Parsed at 64 bits so out-of-range values become ±Inf instead of errors.
		f, err := strconv.ParseFloat(fields[i+1], 64)
		if err != nil {
			if err := p.malformed(fields[i+1], ErrMalformedNumber); err != nil {
				return v, err
			}
			f = gomath.NaN()
		}
		v[i] = float32(f)
	}
	return v, nil
}

// malformed returns an error under the strict policy and nil otherwise.
func (p *OBJParser) malformed(token string, sentinel error) error {
	if p.policy == PolicyStrict {
		return p.errorAt(token, sentinel)
	}
	return nil
}

func (p *OBJParser) errorAt(token string, sentinel error) error {
	return &OBJParseError{Line: p.cursor + 1, Token: token, Err: sentinel}
}

// parseFace converts "v", "v/t", "v//n" and "v/t/n" corner tokens.
func (p *OBJParser) parseFace(tokens []string) (OBJPolygon, error) {
	if len(tokens) < 3 {
		return nil, p.errorAt(strings.Join(tokens, " "), ErrDegeneratePolygon)
	}

	poly := make(OBJPolygon, 0, len(tokens))
	for _, tok := range tokens {
		parts := strings.Split(tok, "/")
		if len(parts) > 3 || parts[0] == "" {
			return nil, p.errorAt(tok, ErrMalformedIndex)
		}

		var c OBJCorner
		var err error
		if c.Vertex, err = resolveOBJIndex(parts[0], len(p.doc.Vertices)); err != nil {
			return nil, p.errorAt(tok, err)
		}
		if len(parts) > 1 && parts[1] != "" {
			if c.TexCoord, err = resolveOBJIndex(parts[1], len(p.doc.TexCoords)); err != nil {
				return nil, p.errorAt(tok, err)
			}
			c.HasTexCoord = true
		}
		if len(parts) > 2 && parts[2] != "" {
			if c.Normal, err = resolveOBJIndex(parts[2], len(p.doc.Normals)); err != nil {
				return nil, p.errorAt(tok, err)
			}
			c.HasNormal = true
		}
		poly = append(poly, c)
	}
	return poly, nil
}

// resolveOBJIndex maps a 1-based index to a pool slot. Non-positive values
// count back from poolLen, the pool length when the face is read.
func resolveOBJIndex(s string, poolLen int) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, ErrMalformedIndex
	}
	if n > 0 {
		return n - 1, nil
	}
	return poolLen + n, nil
}
