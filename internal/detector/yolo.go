package detector

import (
	"fmt"
	"image"
	"os"
	"sync"

	"gocv.io/x/gocv"
)

// cocoLabels are the class names of the COCO-80 dataset in model output order.
var cocoLabels = []string{
	"person", "bicycle", "car", "motorcycle", "airplane", "bus", "train", "truck", "boat",
	"traffic light", "fire hydrant", "stop sign", "parking meter", "bench", "bird", "cat",
	"dog", "horse", "sheep", "cow", "elephant", "bear", "zebra", "giraffe", "backpack",
	"umbrella", "handbag", "tie", "suitcase", "frisbee", "skis", "snowboard", "sports ball",
	"kite", "baseball bat", "baseball glove", "skateboard", "surfboard", "tennis racket",
	"bottle", "wine glass", "cup", "fork", "knife", "spoon", "bowl", "banana", "apple",
	"sandwich", "orange", "broccoli", "carrot", "hot dog", "pizza", "donut", "cake", "chair",
	"couch", "potted plant", "bed", "dining table", "toilet", "tv", "laptop", "mouse",
	"remote", "keyboard", "cell phone", "microwave", "oven", "toaster", "sink", "refrigerator",
	"book", "clock", "vase", "scissors", "teddy bear", "hair drier", "toothbrush",
}

// COCOLabels returns a copy of the class names used by YOLODetector.
func COCOLabels() []string {
	out := make([]string, len(cocoLabels))
	copy(out, cocoLabels)
	return out
}

// YOLODetector implements ObjectDetector with a YOLOv8 ONNX model run through
// the OpenCV DNN module.
type YOLODetector struct {
	config Config
	net    gocv.Net
	labels []string
	mu     sync.Mutex
}

// NewYOLODetector loads the model at config.ModelPath.
func NewYOLODetector(config Config) (*YOLODetector, error) {
	if config.ModelPath == "" {
		return nil, ErrModelNotFound
	}
	if _, err := os.Stat(config.ModelPath); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, config.ModelPath)
	}
	if config.InputSize <= 0 {
		config.InputSize = 640
	}

	net := gocv.ReadNetFromONNX(config.ModelPath)
	if net.Empty() {
		net.Close()
		return nil, fmt.Errorf("load model %s: empty network", config.ModelPath)
	}

	return &YOLODetector{
		config: config,
		net:    net,
		labels: cocoLabels,
	}, nil
}

// Detect runs the model on the frame and returns the surviving detections in
// frame pixel coordinates.
func (d *YOLODetector) Detect(frame *gocv.Mat) ([]Detection, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if frame == nil || frame.Empty() {
		return nil, nil
	}

	size := d.config.InputSize
	blob := gocv.BlobFromImage(*frame, 1.0/255.0, image.Pt(size, size), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")
	out := d.net.Forward("")
	defer out.Close()

	dims := out.Size()
	if len(dims) != 3 {
		return nil, fmt.Errorf("unexpected output shape %v", dims)
	}

	data, err := out.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("read output: %w", err)
	}

	scaleX := float64(frame.Cols()) / float64(size)
	scaleY := float64(frame.Rows()) / float64(size)

	candidates := decodeYOLOv8(data, dims[1], dims[2], scaleX, scaleY, d.config.ScoreThreshold)
	if len(candidates) == 0 {
		return nil, nil
	}

	keep := suppress(candidates, d.config.ScoreThreshold, d.config.NMSThreshold)

	detections := make([]Detection, 0, len(keep))
	for _, c := range keep {
		detections = append(detections, Detection{
			Label:      d.label(c.class),
			Confidence: float64(c.score),
			Box:        c.box,
		})
	}
	return detections, nil
}

// Close releases the network.
func (d *YOLODetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.net.Close()
}

func (d *YOLODetector) label(class int) string {
	if class >= 0 && class < len(d.labels) {
		return d.labels[class]
	}
	return fmt.Sprintf("class_%d", class)
}

type candidate struct {
	class int
	score float32
	box   image.Rectangle
}

// decodeYOLOv8 reads a [1, 4+classes, anchors] output tensor. Each anchor column
// holds cx, cy, w, h followed by one score per class.
func decodeYOLOv8(data []float32, channels, anchors int, scaleX, scaleY float64, threshold float32) []candidate {
	classes := channels - 4
	if classes <= 0 || len(data) < channels*anchors {
		return nil
	}

	var out []candidate
	for a := 0; a < anchors; a++ {
		best, bestScore := -1, float32(0)
		for c := 0; c < classes; c++ {
			s := data[(4+c)*anchors+a]
			if s > bestScore {
				best, bestScore = c, s
			}
		}
		if best < 0 || bestScore < threshold {
			continue
		}

		cx := float64(data[a])
		cy := float64(data[anchors+a])
		w := float64(data[2*anchors+a])
		h := float64(data[3*anchors+a])

		x0 := int((cx - w/2) * scaleX)
		y0 := int((cy - h/2) * scaleY)
		x1 := int((cx + w/2) * scaleX)
		y1 := int((cy + h/2) * scaleY)

		out = append(out, candidate{
			class: best,
			score: bestScore,
			box:   image.Rect(x0, y0, x1, y1),
		})
	}
	return out
}

// suppress runs non-maximum suppression within each class. Boxes are shifted
// by class*span so that boxes of different classes never overlap.
func suppress(candidates []candidate, scoreThreshold, nmsThreshold float32) []candidate {
	if len(candidates) == 0 {
		return nil
	}

	span := 1
	for _, c := range candidates {
		span = max(span, c.box.Max.X+1, c.box.Max.Y+1)
	}

	boxes := make([]image.Rectangle, len(candidates))
	scores := make([]float32, len(candidates))
	for i, c := range candidates {
		shift := c.class * span
		boxes[i] = c.box.Add(image.Pt(shift, shift))
		scores[i] = c.score
	}

	indices := gocv.NMSBoxes(boxes, scores, scoreThreshold, nmsThreshold)
	keep := make([]candidate, 0, len(indices))
	for _, i := range indices {
		keep = append(keep, candidates[i])
	}
	return keep
}
