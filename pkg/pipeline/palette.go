package pipeline

// palette holds distinct display colors for regions, clusters and their
// boundaries. Indices past the end wrap around.
var palette = []string{
	"#FF0000", // red
	"#0000FF", // blue
	"#00FF00", // green
	"#FFFF00", // yellow
	"#FF00FF", // magenta
	"#00FFFF", // cyan
	"#FF8000", // orange
	"#8000FF", // purple
	"#008000", // dark green
	"#808080", // gray
	"#CC3333", // dark red
	"#3333CC", // dark blue
	"#CCCC33", // dark yellow
	"#CC33CC", // dark magenta
	"#33CCCC", // dark cyan
	"#663300", // brown
	"#999999", // light gray
	"#E6994D", // light orange
	"#4D99E6", // light blue
	"#99E64D", // light green
}

// Color returns the display color for item i.
func Color(i int) string {
	if i < 0 {
		i = -i
	}
	return palette[i%len(palette)]
}
