package prompt

import (
	"fmt"
	"strings"
)

// DefaultStyle replaces an empty style description.
const DefaultStyle = "a bright, professional studio setting"

const (
	StandardPreamble    = "Create a high-quality, photorealistic product endorsement collage."
	HighQualityPreamble = "Create an ultra-realistic, 4K resolution, high-detail, professional product endorsement photograph."

	subjectTemplate = "The person in the first image is the model. The item in the second image is the product."
	guidance        = "The model should look happy and engaging. The lighting should be professional. The product should be clearly visible and appealing."
)

// Build assembles the instruction for one image of a batch. variation is the
// zero-based task index; the prompt carries it one-based.
func Build(style string, highQuality bool, variation int) string {
	style = strings.TrimSpace(style)
	if style == "" {
		style = DefaultStyle
	}
	preamble := StandardPreamble
	if highQuality {
		preamble = HighQualityPreamble
	}
	parts := []string{
		preamble,
		subjectTemplate,
		`Integrate the model and the product naturally into a scene with a style of: "`+style+`".`,
		guidance,
		fmt.Sprintf("Style variation %d.", variation+1),
	}
	return strings.Join(parts, " ")
}
