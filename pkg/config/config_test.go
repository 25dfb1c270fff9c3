package config

import (
	"errors"
	"math"
	"strings"
	"testing"
)

// hasFinding returns true if fs contains a finding for field with the
// given severity.
func hasFinding(fs []ValidationError, field string, sev ValidationSeverity) bool {
	for _, f := range fs {
		if f.Field == field && f.Severity == sev {
			return true
		}
	}
	return false
}

func TestDefaultIsValid(t *testing.T) {
	c := Default()
	if err := c.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
	for _, f := range c.Check() {
		t.Errorf("unexpected finding on defaults: %v", f)
	}
}

func TestNormalFloor(t *testing.T) {
	tests := []struct {
		deg  float64
		want float64
	}{
		{0, 1},
		{30, math.Sqrt(3) / 2},
		{90, 0},
		{180, -1},
	}
	for _, tt := range tests {
		s := Segmentation{MaxCurvatureDeg: tt.deg}
		if got := s.NormalFloor(); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("NormalFloor(%v) = %v, want %v", tt.deg, got, tt.want)
		}
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		field  string
	}{
		{"negative angle", func(c *Config) { c.Segmentation.MaxCurvatureDeg = -1 }, "segmentation.maxCurvatureDeg"},
		{"angle over 180", func(c *Config) { c.Segmentation.MaxCurvatureDeg = 181 }, "segmentation.maxCurvatureDeg"},
		{"nan angle", func(c *Config) { c.Segmentation.MaxCurvatureDeg = math.NaN() }, "segmentation.maxCurvatureDeg"},
		{"area fraction over 1", func(c *Config) { c.Segmentation.AreaLimitFraction = 1.5 }, "segmentation.areaLimitFraction"},
		{"unknown orphan policy", func(c *Config) { c.Segmentation.Orphans = "drop" }, "segmentation.orphans"},
		{"negative radius", func(c *Config) { c.Clustering.Radius = -2 }, "clustering.radius"},
		{"threshold over 1", func(c *Config) { c.Clustering.NormalThreshold = 1.1 }, "clustering.normalThreshold"},
		{"zero min cluster", func(c *Config) { c.Clustering.MinClusterSize = 0 }, "clustering.minClusterSize"},
		{"negative voxel", func(c *Config) { c.Clustering.VoxelSize = -1 }, "clustering.voxelSize"},
		{"negative curvature threshold", func(c *Config) { c.Boundary.CurvatureThreshold = -0.1 }, "boundary.curvatureThreshold"},
		{"zero neighbor radius", func(c *Config) { c.Boundary.NeighborRadius = 0 }, "boundary.neighborRadius"},
		{"one chain neighbor", func(c *Config) { c.Boundary.ChainNeighbors = 1 }, "boundary.chainNeighbors"},
		{"tiny boundary cluster", func(c *Config) { c.Boundary.MinClusterPoints = 1 }, "boundary.minClusterPoints"},
		{"zero normal radius", func(c *Config) { c.Normals.Radius = 0 }, "normals.radius"},
		{"two normal neighbors", func(c *Config) { c.Normals.MaxNeighbors = 2 }, "normals.maxNeighbors"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(&c)
			err := c.Validate()
			var verrs ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("Validate() = %v, want ValidationErrors", err)
			}
			if !hasFinding(verrs, tt.field, SeverityError) {
				t.Errorf("Validate() = %v, want error on %s", err, tt.field)
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("error text %q does not name %s", err.Error(), tt.field)
			}
		})
	}
}

func TestCheckWarnings(t *testing.T) {
	c := Default()
	c.Clustering.Radius = 0
	c.Segmentation.AreaLimitFraction = 0
	c.Boundary.CurvatureThreshold = 0.5

	if err := c.Validate(); err != nil {
		t.Fatalf("warnings must not block: Validate() = %v", err)
	}
	fs := c.Check()
	for _, field := range []string{"clustering.radius", "segmentation.areaLimitFraction", "boundary.curvatureThreshold"} {
		if !hasFinding(fs, field, SeverityWarning) {
			t.Errorf("Check() missing warning on %s: %v", field, fs)
		}
	}
}

func TestOrphanPolicyValid(t *testing.T) {
	for _, p := range []OrphanPolicy{OrphanKeep, OrphanMerge, OrphanFail} {
		if !p.Valid() {
			t.Errorf("%q.Valid() = false", p)
		}
	}
	if OrphanPolicy("").Valid() {
		t.Error(`"".Valid() = true`)
	}
}
