// Package testdata embeds sample webcam frames for tests.
package testdata

import (
	"embed"
	"fmt"
	"sort"

	"gocv.io/x/gocv"
)

//go:embed frames
var framesFS embed.FS

// Frame names available to LoadFrame and Bytes.
const (
	DeskVGA  = "desk_640x480.png"
	DeskQVGA = "desk_320x240.png"
)

// Bytes returns the encoded bytes of a test frame.
func Bytes(name string) ([]byte, error) {
	data, err := framesFS.ReadFile("frames/" + name)
	if err != nil {
		return nil, fmt.Errorf("load frame %s: %w", name, err)
	}
	return data, nil
}

// LoadFrame loads a test frame by name.
func LoadFrame(name string) (*gocv.Mat, error) {
	data, err := Bytes(name)
	if err != nil {
		return nil, err
	}

	mat, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("decode frame %s: %w", name, err)
	}
	if mat.Empty() {
		mat.Close()
		return nil, fmt.Errorf("decode frame %s: empty image", name)
	}

	return &mat, nil
}

// LoadSequence loads the frames of a directory in name order.
func LoadSequence(dir string) ([]*gocv.Mat, error) {
	entries, err := framesFS.ReadDir("frames/" + dir)
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var frames []*gocv.Mat
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		frame, err := LoadFrame(dir + "/" + entry.Name())
		if err != nil {
			// Clean up already loaded frames
			for _, f := range frames {
				f.Close()
			}
			return nil, err
		}
		frames = append(frames, frame)
	}

	return frames, nil
}
