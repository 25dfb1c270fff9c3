package pipeline

import (
	"go.uber.org/zap"

	"github.com/chazu/fracture/pkg/engine"
	"github.com/chazu/fracture/pkg/kernel"
	"github.com/chazu/fracture/pkg/tessellate"
)

// ErrorData is a JSON-serializable script or processing error.
type ErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// Report is the full result of running a script.
type Report struct {
	Shape  string       `json:"shape,omitempty"`
	Mesh   *MeshResult  `json:"mesh,omitempty"`
	Cloud  *CloudResult `json:"cloud,omitempty"`
	Errors []ErrorData  `json:"errors"`
}

// App evaluates scripts and processes the solid they declare.
type App struct {
	engine *engine.Engine
	kernel kernel.Kernel
	logger *zap.Logger
}

// NewApp creates an App over kernel k. A nil logger discards output.
func NewApp(k kernel.Kernel, logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &App{
		engine: engine.NewEngine(),
		kernel: k,
		logger: logger.Named("pipeline"),
	}
}

// Evaluate runs source and, if it declares a solid, segments the solid's
// mesh and clusters its sampled surface. Every failure is reported in
// Report.Errors; Evaluate itself never fails.
func (a *App) Evaluate(source string) Report {
	report := Report{Errors: []ErrorData{}}
	fail := func(msg string, err error) Report {
		a.logger.Error(msg, zap.Error(err))
		report.Errors = append(report.Errors, ErrorData{Message: msg + ": " + err.Error()})
		return report
	}

	// Step 1: Evaluate the script into parameters and an optional solid.
	sc, evalErrs, err := a.engine.Evaluate(source)
	if err != nil {
		return fail("evaluation failed", err)
	}
	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			report.Errors = append(report.Errors, ErrorData{Line: e.Line, Col: e.Col, Message: e.Message})
		}
		return report
	}
	if sc.Shape == nil {
		a.logger.Debug("script declares no solid")
		return report
	}
	report.Shape = sc.Shape.String()

	proc, err := NewProcessor(sc.Config, a.logger)
	if err != nil {
		return fail("invalid configuration", err)
	}

	// Step 2: Tessellate the solid and segment its faces.
	mesh, err := tessellate.Tessellate(sc.Shape, a.kernel)
	if err != nil {
		return fail("tessellation failed", err)
	}
	if report.Mesh, err = proc.SegmentMesh(mesh); err != nil {
		return fail("mesh segmentation failed", err)
	}

	// Step 3: Sample the surface, cluster it and extract boundaries.
	pc, err := tessellate.Sample(sc.Shape, a.kernel)
	if err != nil {
		return fail("sampling failed", err)
	}
	if report.Cloud, err = proc.ClusterCloud(pc); err != nil {
		return fail("clustering failed", err)
	}

	a.logger.Info("processed solid",
		zap.String("shape", report.Shape),
		zap.Int("regions", len(report.Mesh.Regions)),
		zap.Int("clusters", len(report.Cloud.Clusters)),
		zap.Int("boundaries", len(report.Cloud.Boundaries)),
	)
	return report
}
