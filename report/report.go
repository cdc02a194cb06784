// Package report computes the compression accounting attached to successful
// job results.
package report

import (
	"os"

	"github.com/samber/lo"

	"mixer/models"
)

// Reporter fills size totals and the compression ratio on job results.
//
// Input bytes sum the original source files of the selected clips, counted
// once per draw: a clip selected twice contributed two segments to the
// output, so its size counts twice. Sizes are read at report time, not scan
// time, so a source deleted mid-run degrades the report instead of lying.
type Reporter struct{}

// NewReporter creates a reporter.
func NewReporter() *Reporter {
	return &Reporter{}
}

// Fill annotates a successful result with input/output byte totals and the
// output-to-input ratio. When any size cannot be read the result keeps
// SizesKnown=false; the job still counts as succeeded.
func (r *Reporter) Fill(result *models.JobResult) {
	if !result.Succeeded() {
		return
	}

	sizes := make([]int64, 0, len(result.Segments))
	for _, seg := range result.Segments {
		info, err := os.Stat(seg.Asset.Path)
		if err != nil {
			return
		}
		sizes = append(sizes, info.Size())
	}

	outInfo, err := os.Stat(result.OutputPath)
	if err != nil {
		return
	}

	result.InputBytes = lo.Sum(sizes)
	result.OutputBytes = outInfo.Size()
	if result.InputBytes > 0 {
		result.Ratio = float64(result.OutputBytes) / float64(result.InputBytes)
	}
	result.SizesKnown = true
}
