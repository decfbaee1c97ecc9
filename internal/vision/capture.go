package vision

import (
	"fmt"
	"strconv"

	"gocv.io/x/gocv"
)

// Source wraps a camera device or a video file behind one read interface.
type Source struct {
	capture *gocv.VideoCapture
	desc    string
}

// OpenSource accepts either a device index ("0") or a file/stream path.
func OpenSource(source string, width, height int) (*Source, error) {
	var capture *gocv.VideoCapture
	var err error

	if idx, convErr := strconv.Atoi(source); convErr == nil {
		capture, err = gocv.OpenVideoCapture(idx)
	} else {
		capture, err = gocv.VideoCaptureFile(source)
	}
	if err != nil {
		return nil, fmt.Errorf("open capture %q: %w", source, err)
	}

	if width > 0 && height > 0 {
		capture.Set(gocv.VideoCaptureFrameWidth, float64(width))
		capture.Set(gocv.VideoCaptureFrameHeight, float64(height))
	}
	return &Source{capture: capture, desc: source}, nil
}

// Read fills the mat with the next frame; false means end of stream or a
// dropped camera.
func (s *Source) Read(mat *gocv.Mat) bool {
	if ok := s.capture.Read(mat); !ok || mat.Empty() {
		return false
	}
	return true
}

func (s *Source) Close() error {
	return s.capture.Close()
}

func (s *Source) String() string {
	return s.desc
}
