// Package taxonomy defines the fixed ten-category defect taxonomy used
// throughout the pipeline. The order of categories is significant: it is
// the tie-break order during classification and the column order in every
// cross-repo table.
package taxonomy

import (
	"fmt"
	"strings"
)

// Category is one of the ten defect categories.
type Category int

const (
	RenderingConversion Category = iota
	DependencyPackage
	EnvironmentConfiguration
	ImplementationLogic
	DataInputHandling
	VisualizationPlotting
	ReproducibilityVersioning
	FileIOExport
	DocumentationFormatting
	MiscellaneousUnknown
)

// Count is the number of categories. Score vectors and per-category tables
// are fixed-size arrays indexed by Category.
const Count = 10

var names = [Count]string{
	"Rendering / Conversion",
	"Dependency / Package",
	"Environment / Configuration",
	"Implementation / Logic",
	"Data / Input Handling",
	"Visualization / Plotting",
	"Reproducibility / Versioning",
	"File I/O and Export",
	"Documentation / Formatting",
	"Miscellaneous / Unknown",
}

var slugs = [Count]string{
	"rendering_conversion",
	"dependency_package",
	"environment_configuration",
	"implementation_logic",
	"data_input_handling",
	"visualization_plotting",
	"reproducibility_versioning",
	"file_io_export",
	"documentation_formatting",
	"miscellaneous_unknown",
}

// All returns every category in taxonomy order.
func All() []Category {
	out := make([]Category, Count)
	for i := range out {
		out[i] = Category(i)
	}
	return out
}

// Valid reports whether c is one of the ten defined categories.
func (c Category) Valid() bool {
	return c >= 0 && c < Count
}

func (c Category) String() string {
	if !c.Valid() {
		return fmt.Sprintf("Category(%d)", int(c))
	}
	return names[c]
}

// Slug returns the identifier used for per-category CSV columns,
// e.g. "visualization_plotting".
func (c Category) Slug() string {
	if !c.Valid() {
		return fmt.Sprintf("category_%d", int(c))
	}
	return slugs[c]
}

// Parse resolves a category from its display name or slug. Matching is
// case-insensitive and tolerant of surrounding whitespace, but anything
// outside the fixed taxonomy is an error: stored data carrying unknown
// category identifiers must be rejected, not coerced.
func Parse(s string) (Category, error) {
	trimmed := strings.TrimSpace(s)
	for i := 0; i < Count; i++ {
		if strings.EqualFold(trimmed, names[i]) || strings.EqualFold(trimmed, slugs[i]) {
			return Category(i), nil
		}
	}
	return MiscellaneousUnknown, fmt.Errorf("unknown category %q", s)
}
