package dataset

import "path"

// RawRecord is one line of a source trajectory dataset.
type RawRecord struct {
	Image       string `json:"image"`
	Instruction string `json:"instruction"`
	Action      string `json:"action"`
}

// ProcessedRecord is one line of a training-ready dataset. Action holds the
// canonical calls separated by a single space.
type ProcessedRecord struct {
	ImagePath   string `json:"image_path"`
	Instruction string `json:"instruction"`
	Action      string `json:"action"`
}

// imagePath joins the stage directory and the image name with forward
// slashes so the output stays portable across hosts.
func imagePath(stageDir, image string) string {
	if stageDir == "" {
		return image
	}
	return path.Join(stageDir, image)
}

// Record outcomes.
const (
	StatusWritten = "written"
	StatusEmpty   = "empty"
	StatusError   = "error"
)

// Stats counts records by outcome.
type Stats struct {
	Read    int `json:"read"`
	Written int `json:"written"`
	Empty   int `json:"empty"`
	Errors  int `json:"errors"`
}

func (s *Stats) add(status string) {
	switch status {
	case StatusWritten:
		s.Written++
	case StatusEmpty:
		s.Empty++
	case StatusError:
		s.Errors++
	}
}
