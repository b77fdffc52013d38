package capture

import (
	"errors"
	"fmt"
	"os"

	"gocv.io/x/gocv"
)

// ErrInvalidImage is returned when bytes cannot be decoded into a color image.
var ErrInvalidImage = errors.New("invalid image format")

// Decode decodes an encoded image (JPEG, PNG, ...) into a BGR frame.
// The caller is responsible for closing the returned Mat.
func Decode(data []byte) (*gocv.Mat, error) {
	if len(data) == 0 {
		return nil, ErrInvalidImage
	}

	mat, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if mat.Empty() {
		mat.Close()
		return nil, ErrInvalidImage
	}
	return &mat, nil
}

// Load reads and decodes the image file at path.
func Load(path string) (*gocv.Mat, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	mat, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return mat, nil
}

// EncodeJPEG encodes a frame as JPEG bytes.
func EncodeJPEG(frame *gocv.Mat) ([]byte, error) {
	if frame == nil || frame.Empty() {
		return nil, ErrInvalidImage
	}
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}
