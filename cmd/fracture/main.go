// Command fracture evaluates a script, segments the solid it declares and
// prints the regions, clusters and boundary curves as JSON.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/chazu/fracture/pkg/kernel/sdfx"
	"github.com/chazu/fracture/pkg/pipeline"
)

// defaultScript is used when no script file is given.
const defaultScript = `
;; a plate with a through bore
(segmentation :max-curvature-deg 30 :area-limit-fraction 0.001 :orphans :keep)
(clustering :radius 3 :normal-threshold 0.95 :min-cluster-size 10)
(boundary :curvature-threshold 0.01 :neighbor-radius 3 :min-cluster-points 50)
(normals :radius 3 :max-neighbors 30)
(solid (difference (box 40 40 10) (translate (cylinder 30 8) 20 20 5)))
`

func main() {
	os.Exit(run())
}

func run() int {
	script := flag.String("script", "", "Path to a script file (default: built-in plate example)")
	cells := flag.Int("cells", 0, "Marching cubes cells along the longest axis (0 = kernel default)")
	out := flag.String("o", "", "Write the JSON report to this file instead of stdout")
	indent := flag.Bool("indent", true, "Indent the JSON report")
	verbose := flag.Bool("v", false, "Development logging at debug level")
	flag.Parse()

	logger, err := newLogger(*verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		return 1
	}
	defer logger.Sync()

	source := defaultScript
	if *script != "" {
		data, err := os.ReadFile(*script)
		if err != nil {
			logger.Error("read script", zap.String("path", *script), zap.Error(err))
			return 1
		}
		source = string(data)
	}

	app := pipeline.NewApp(sdfx.NewWithCells(*cells), logger)
	report := app.Evaluate(source)

	w := os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			logger.Error("create output", zap.String("path", *out), zap.Error(err))
			return 1
		}
		defer f.Close()
		w = f
	}

	enc := json.NewEncoder(w)
	if *indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(report); err != nil {
		logger.Error("write report", zap.Error(err))
		return 1
	}

	for _, e := range report.Errors {
		logger.Error("script error", zap.Int("line", e.Line), zap.String("message", e.Message))
	}
	if len(report.Errors) > 0 {
		return 1
	}
	return 0
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
