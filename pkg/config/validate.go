package config

import (
	"fmt"
	"math"
	"strings"
)

// ValidationSeverity indicates whether a validation finding blocks
// processing or is merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // blocks processing
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	Field    string             // dotted option name, e.g. "clustering.radius"
	Message  string             // human-readable description
	Severity ValidationSeverity // error or warning
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Severity, e.Field, e.Message)
}

// ValidationErrors is the blocking subset of findings returned by Validate.
type ValidationErrors []ValidationError

func (es ValidationErrors) Error() string {
	msgs := make([]string, len(es))
	for i, e := range es {
		msgs[i] = e.Error()
	}
	return "config: " + strings.Join(msgs, "; ")
}

// Validate returns a ValidationErrors holding every error-severity finding
// of Check, or nil when the configuration can be used.
func (c Config) Validate() error { return blocking(c.Check()) }

// Validate checks the segmentation section alone.
func (s Segmentation) Validate() error { return blocking(s.Check()) }

// Validate checks the clustering section alone.
func (c Clustering) Validate() error { return blocking(c.Check()) }

// Validate checks the normal estimation section alone.
func (n Normals) Validate() error { return blocking(n.Check()) }

// Validate checks the boundary and normal estimation sections together,
// since boundary extraction uses both.
func (b Boundary) Validate(n Normals) error {
	return blocking(append(b.Check(), n.Check()...))
}

func blocking(fs []ValidationError) error {
	var errs ValidationErrors
	for _, f := range fs {
		if f.Severity == SeverityError {
			errs = append(errs, f)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Check runs every rule and returns all findings, warnings included.
// It never mutates the configuration.
func (c Config) Check() []ValidationError {
	var fs []ValidationError
	fs = append(fs, c.Segmentation.Check()...)
	fs = append(fs, c.Clustering.Check()...)
	fs = append(fs, c.Boundary.Check()...)
	fs = append(fs, c.Normals.Check()...)
	return fs
}

func finding(field string, sev ValidationSeverity, format string, args ...any) ValidationError {
	return ValidationError{Field: field, Message: fmt.Sprintf(format, args...), Severity: sev}
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// Check returns the findings for the segmentation section.
func (s Segmentation) Check() []ValidationError {
	var fs []ValidationError
	if !finite(s.MaxCurvatureDeg) || s.MaxCurvatureDeg < 0 || s.MaxCurvatureDeg > 180 {
		fs = append(fs, finding("segmentation.maxCurvatureDeg", SeverityError,
			"must be within [0, 180], got %v", s.MaxCurvatureDeg))
	}
	if !finite(s.AreaLimitFraction) || s.AreaLimitFraction < 0 || s.AreaLimitFraction > 1 {
		fs = append(fs, finding("segmentation.areaLimitFraction", SeverityError,
			"must be within [0, 1], got %v", s.AreaLimitFraction))
	} else if s.AreaLimitFraction == 0 {
		fs = append(fs, finding("segmentation.areaLimitFraction", SeverityWarning,
			"zero disables small region merging"))
	}
	if !s.Orphans.Valid() {
		fs = append(fs, finding("segmentation.orphans", SeverityError,
			"unknown policy %q, expected keep, merge or fail", s.Orphans))
	}
	return fs
}

// Check returns the findings for the clustering section.
func (c Clustering) Check() []ValidationError {
	var fs []ValidationError
	if !finite(c.Radius) || c.Radius < 0 {
		fs = append(fs, finding("clustering.radius", SeverityError,
			"must be a non-negative number, got %v", c.Radius))
	} else if c.Radius == 0 {
		fs = append(fs, finding("clustering.radius", SeverityWarning,
			"zero radius yields singleton clusters"))
	}
	if !finite(c.NormalThreshold) || c.NormalThreshold < -1 || c.NormalThreshold > 1 {
		fs = append(fs, finding("clustering.normalThreshold", SeverityError,
			"must be within [-1, 1], got %v", c.NormalThreshold))
	}
	if c.MinClusterSize < 1 {
		fs = append(fs, finding("clustering.minClusterSize", SeverityError,
			"must be at least 1, got %d", c.MinClusterSize))
	}
	if !finite(c.VoxelSize) || c.VoxelSize < 0 {
		fs = append(fs, finding("clustering.voxelSize", SeverityError,
			"must be a non-negative number, got %v", c.VoxelSize))
	}
	return fs
}

// Check returns the findings for the boundary section.
func (b Boundary) Check() []ValidationError {
	var fs []ValidationError
	if !finite(b.CurvatureThreshold) || b.CurvatureThreshold < 0 || b.CurvatureThreshold > 1 {
		fs = append(fs, finding("boundary.curvatureThreshold", SeverityError,
			"must be within [0, 1], got %v", b.CurvatureThreshold))
	} else if b.CurvatureThreshold >= 1.0/3 {
		fs = append(fs, finding("boundary.curvatureThreshold", SeverityWarning,
			"surface variation never exceeds 1/3; no point will be classified as boundary"))
	}
	if !finite(b.NeighborRadius) || b.NeighborRadius <= 0 {
		fs = append(fs, finding("boundary.neighborRadius", SeverityError,
			"must be positive, got %v", b.NeighborRadius))
	}
	if b.MinClusterPoints < 2 {
		fs = append(fs, finding("boundary.minClusterPoints", SeverityError,
			"must be at least 2, got %d", b.MinClusterPoints))
	}
	if b.ChainNeighbors < 2 {
		fs = append(fs, finding("boundary.chainNeighbors", SeverityError,
			"must be at least 2, got %d", b.ChainNeighbors))
	}
	return fs
}

// Check returns the findings for the normal estimation section.
func (n Normals) Check() []ValidationError {
	var fs []ValidationError
	if !finite(n.Radius) || n.Radius <= 0 {
		fs = append(fs, finding("normals.radius", SeverityError,
			"must be positive, got %v", n.Radius))
	}
	if n.MaxNeighbors < 3 {
		fs = append(fs, finding("normals.maxNeighbors", SeverityError,
			"must be at least 3, got %d", n.MaxNeighbors))
	}
	return fs
}
