// objconv converts Wavefront OBJ files into GPU-ready vertex buffers.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/objconv/internal/config"
	"github.com/Faultbox/objconv/internal/converter"
	"github.com/Faultbox/objconv/internal/logger"
	"github.com/Faultbox/objconv/pkg/formats"
	"github.com/Faultbox/objconv/pkg/math"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "convert", "c":
		os.Exit(cmdConvert(args))
	case "info", "i":
		os.Exit(cmdInfo(args))
	case "config":
		os.Exit(cmdConfig(args))
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`objconv - Wavefront OBJ to GPU buffer converter

Usage:
  objconv <command> [options]

Commands:
  convert [options] [files or dirs...]  Convert OBJ files (default: scan current directory)
  info [-strict] <file.obj>             Show pools, groups and materials
  config [-o path]                      Write the effective config file

Convert options:
  -format objjs|glb   Output format (default objjs)
  -out dir            Output directory (default: next to input)
  -strict             Fail on malformed numbers and faces
  -workers N          Parallel group builds (default: one per CPU)
  -no-clobber         Skip files whose output already exists
  -config path        Config file
  -debug              Debug logging

Examples:
  objconv convert
  objconv convert -format glb -out dist models/ship.obj
  objconv info models/ship.obj`)
}

func loadConfig(name string, args []string) (*config.Config, *flag.FlagSet, error) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	flags := config.NewFlags(fs)
	fs.Parse(args)

	cfg, err := config.Load(flags)
	if err != nil {
		return nil, nil, err
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		return nil, nil, fmt.Errorf("initializing logger: %w", err)
	}
	return cfg, fs, nil
}

func cmdConvert(args []string) int {
	cfg, fs, err := loadConfig("convert", args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer logger.Sync()

	inputs, err := collectInputs(fs.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if len(inputs) == 0 {
		fmt.Fprintln(os.Stderr, "No .obj files found")
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger.Info("converting", zap.Int("files", len(inputs)), zap.String("format", cfg.Convert.Format))

	results, err := converter.New(cfg).ConvertAll(ctx, inputs)
	logger.Sugar.Infof("converted %d of %d files", len(results), len(inputs))
	for _, res := range results {
		if res.Skipped {
			fmt.Printf("Skipped:   %s (output exists)\n", res.Input)
			continue
		}
		fmt.Printf("Converted: %s -> %s (%d groups, %d triangles)\n",
			res.Input, res.Output, len(res.Groups), res.Triangles)
		for _, g := range res.Groups {
			fmt.Printf("    %s\n", g)
		}
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "\n%v\n", err)
		return 1
	}
	return 0
}

// collectInputs expands directories to the OBJ files inside them and
// rejects explicit paths without an .obj extension.
func collectInputs(args []string) ([]string, error) {
	if len(args) == 0 {
		return converter.Discover(".")
	}

	var inputs []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if info.IsDir() {
			found, err := converter.Discover(arg)
			if err != nil {
				return nil, err
			}
			inputs = append(inputs, found...)
			continue
		}
		if !converter.IsOBJ(arg) {
			return nil, fmt.Errorf("%w: %s", converter.ErrNotOBJ, arg)
		}
		inputs = append(inputs, arg)
	}
	return inputs, nil
}

func cmdInfo(args []string) int {
	cfg, fs, err := loadConfig("info", args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer logger.Sync()

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: objconv info [-strict] <file.obj>")
		return 1
	}

	path := fs.Arg(0)
	doc, err := converter.New(cfg).Load(path, logger.ForFile(path))
	if err != nil {
		var perr *formats.OBJParseError
		if errors.As(err, &perr) {
			fmt.Fprintf(os.Stderr, "%s:%d: %v\n", path, perr.Line, perr.Err)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}

	nonFinite := 0
	for _, v := range doc.Vertices {
		if !math.IsFinite(v) {
			nonFinite++
		}
	}

	fmt.Printf("File:       %s\n", path)
	fmt.Printf("Vertices:   %d", len(doc.Vertices))
	if nonFinite > 0 {
		fmt.Printf(" (%d non-finite)", nonFinite)
	}
	fmt.Println()
	fmt.Printf("Normals:    %d\n", len(doc.Normals))
	fmt.Printf("TexCoords:  %d\n", len(doc.TexCoords))
	if min, max, ok := math.Bounds(doc.Vertices); ok {
		fmt.Printf("Bounds:     %s .. %s\n", formatVec(min), formatVec(max))
	}
	if len(doc.MaterialLibs) > 0 {
		fmt.Printf("Mtllibs:    %v\n", doc.MaterialLibs)
	}
	if doc.DroppedFaces > 0 {
		fmt.Printf("Dropped:    %d faces\n", doc.DroppedFaces)
	}
	fmt.Println()
	fmt.Println("Groups:")

	for _, name := range doc.GroupNames() {
		g := doc.Groups[name]
		material := g.Material
		if material == "" {
			material = "-"
		}
		fmt.Printf("  %-24s %-16s %6d polygons %7d triangles\n",
			name, material, len(g.Polygons), g.TriangleCount())
	}
	return 0
}

func formatVec(v mgl32.Vec3) string {
	return fmt.Sprintf("(%g, %g, %g)", v[0], v[1], v[2])
}

func cmdConfig(args []string) int {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	out := fs.String("o", "", "Write to this path instead of the user config directory")
	flags := config.NewFlags(fs)
	fs.Parse(args)

	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	if *out != "" {
		err = cfg.SaveTo(*out)
	} else {
		err = cfg.Save()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error writing config: %v\n", err)
		return 1
	}

	if *out != "" {
		fmt.Printf("Wrote %s\n", *out)
	} else {
		fmt.Printf("Wrote config to %s\n", config.ConfigDir())
	}
	return 0
}
