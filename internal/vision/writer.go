package vision

import (
	"fmt"

	"gocv.io/x/gocv"
)

// Recorder writes the composite view to an XVID AVI file.
type Recorder struct {
	writer *gocv.VideoWriter
	path   string
}

func NewRecorder(path string, fps float64, width, height int) (*Recorder, error) {
	writer, err := gocv.VideoWriterFile(path, "XVID", fps, width, height, true)
	if err != nil {
		return nil, fmt.Errorf("open video writer %q: %w", path, err)
	}
	if !writer.IsOpened() {
		writer.Close()
		return nil, fmt.Errorf("video writer %q did not open", path)
	}
	return &Recorder{writer: writer, path: path}, nil
}

func (r *Recorder) Write(frame gocv.Mat) error {
	return r.writer.Write(frame)
}

func (r *Recorder) Close() error {
	return r.writer.Close()
}

func (r *Recorder) Path() string {
	return r.path
}
