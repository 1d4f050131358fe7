// Package formats provides parsers for 3D asset file formats.
package formats

// Note: OBJ (Wavefront) is implemented in obj.go
