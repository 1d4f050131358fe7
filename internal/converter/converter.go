// Package converter drives OBJ files through parsing, mesh building and
// export according to the loaded configuration.
package converter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/objconv/internal/config"
	"github.com/Faultbox/objconv/internal/logger"
	"github.com/Faultbox/objconv/pkg/encoding"
	"github.com/Faultbox/objconv/pkg/export"
	"github.com/Faultbox/objconv/pkg/formats"
	"github.com/Faultbox/objconv/pkg/mesh"
)

// ErrNotOBJ is returned for inputs without an .obj extension.
var ErrNotOBJ = errors.New("not an .obj file")

// Result describes the conversion of one input file.
type Result struct {
	Input     string
	Output    string
	Groups    []string
	Triangles int
	Dropped   int // Faces the parser skipped
	Skipped   bool
	Duration  time.Duration
}

// Converter converts OBJ files using one configuration.
type Converter struct {
	cfg *config.Config
}

// New creates a converter.
func New(cfg *config.Config) *Converter {
	return &Converter{cfg: cfg}
}

// IsOBJ reports whether path has an .obj extension (any case).
func IsOBJ(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".obj")
}

// Discover returns the .obj files directly inside dir, sorted by name.
func Discover(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !IsOBJ(e.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	logger.Debug("discovered OBJ files", zap.String("dir", dir), zap.Int("count", len(paths)))
	return paths, nil
}

// OutputPath returns where the artifact for input is written.
func (c *Converter) OutputPath(input string) string {
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input)) + c.cfg.OutputExt()
	if c.cfg.Convert.OutputDir != "" {
		return filepath.Join(c.cfg.Convert.OutputDir, base)
	}
	return filepath.Join(filepath.Dir(input), base)
}

func (c *Converter) workers() int {
	if c.cfg.Convert.Workers > 0 {
		return c.cfg.Convert.Workers
	}
	return runtime.NumCPU()
}

// ConvertAll converts every input, continuing past failures. The returned
// error combines the failure of every file that could not be converted.
func (c *Converter) ConvertAll(ctx context.Context, inputs []string) ([]*Result, error) {
	var (
		results []*Result
		errs    error
	)
	for i, input := range inputs {
		if err := ctx.Err(); err != nil {
			logger.Warn("conversion cancelled", zap.Int("remaining", len(inputs)-i))
			return results, multierr.Append(errs, err)
		}
		res, err := c.ConvertFile(ctx, input)
		if err != nil {
			logger.Error("conversion failed", zap.String("file", input), zap.Error(err))
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", input, err))
			continue
		}
		results = append(results, res)
	}
	return results, errs
}

// ConvertFile parses one OBJ file, builds every group and writes the
// configured artifact.
func (c *Converter) ConvertFile(ctx context.Context, input string) (*Result, error) {
	if !IsOBJ(input) {
		return nil, fmt.Errorf("%w: %s", ErrNotOBJ, input)
	}
	if c.cfg.Convert.FileTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Convert.FileTimeout)
		defer cancel()
	}

	start := time.Now()
	log := logger.ForFile(input)
	res := &Result{Input: input, Output: c.OutputPath(input)}

	if !c.cfg.Convert.Overwrite {
		if _, err := os.Stat(res.Output); err == nil {
			log.Info("output exists, skipping", zap.String("output", res.Output))
			res.Skipped = true
			return res, nil
		}
	}

	doc, err := c.Load(input, log)
	if err != nil {
		return nil, err
	}
	res.Groups = doc.GroupNames()
	res.Dropped = doc.DroppedFaces
	if res.Dropped > 0 {
		log.Warn("faces dropped", zap.Int("faces", res.Dropped))
	}
	log.Debug("parsed",
		zap.Int("vertices", len(doc.Vertices)),
		zap.Int("normals", len(doc.Normals)),
		zap.Int("texcoords", len(doc.TexCoords)),
		zap.Strings("groups", res.Groups),
	)

	buffers, err := mesh.BuildAll(ctx, doc, c.workers())
	if err != nil {
		return nil, fmt.Errorf("building meshes: %w", err)
	}
	for _, b := range buffers {
		res.Triangles += b.TriangleCount()
	}

	if err := c.write(res.Output, input, doc, buffers); err != nil {
		return nil, err
	}

	res.Duration = time.Since(start)
	log.Info("converted",
		zap.String("output", res.Output),
		zap.Int("groups", len(res.Groups)),
		zap.Int("triangles", res.Triangles),
		zap.Duration("took", res.Duration),
	)
	return res, nil
}

// Load reads input in the configured encoding and parses it with the
// configured policy.
func (c *Converter) Load(input string, log *zap.Logger) (*formats.OBJDocument, error) {
	data, err := os.ReadFile(input)
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	text, err := encoding.Decode(data, c.cfg.Convert.Encoding)
	if err != nil {
		return nil, err
	}
	return formats.ParseOBJ(text,
		formats.WithPolicy(c.cfg.ParsePolicy()),
		formats.WithLogger(log),
	)
}

func (c *Converter) write(output, input string, doc *formats.OBJDocument, buffers map[string]*mesh.Buffers) (err error) {
	if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	if c.cfg.Convert.Format == config.FormatGLB {
		return export.SaveGLB(output, doc.GroupNames(), buffers)
	}

	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing output: %w", cerr)
		}
	}()

	return export.WriteObjJS(f, filepath.Base(input), doc, buffers)
}
