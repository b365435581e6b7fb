package analyzer

import "fmt"

// NewDetector creates a detector based on the specified variant
func NewDetector(variant string) (Detector, error) {
	switch variant {
	case "regions", "":
		return NewRegionDetector(), nil
	case "bounds":
		return BoundsDetector{}, nil
	default:
		return nil, fmt.Errorf("unknown detector variant: %s", variant)
	}
}
