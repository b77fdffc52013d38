package proctor

import "github.com/ayusman/proctorvision/internal/detector"

// Input is the perception output for one frame.
type Input struct {
	// Width is the frame width in pixels.
	Width      int
	Faces      []detector.FaceLandmarks
	Hands      []detector.HandLandmarks
	Detections []detector.Detection
}

// Result is the verdict for one frame.
type Result struct {
	Warnings         []string    `json:"warnings"`
	HeadStatus       Orientation `json:"head_status"`
	HandCount        int         `json:"hand_count"`
	Gadgets          []string    `json:"gadgets"`
	Compliant        bool        `json:"compliant"`
	EvidenceRequired bool        `json:"evidence_required"`
}

// Options configures a Pipeline.
type Options struct {
	// Catalog defaults to DefaultCatalog when nil.
	Catalog *Catalog

	// MinConfidence drops object detections below this score (default 0).
	MinConfidence float64

	// FaceSelection defaults to SelectLast.
	FaceSelection FaceSelection
}

// Pipeline evaluates frames. It holds no per-frame state and is safe for
// concurrent use.
type Pipeline struct {
	gadgets   *GadgetFilter
	selection FaceSelection
}

// NewPipeline creates a Pipeline from opts.
func NewPipeline(opts Options) *Pipeline {
	catalog := DefaultCatalog()
	if opts.Catalog != nil {
		catalog = *opts.Catalog
	}

	selection := opts.FaceSelection
	if selection != SelectFirst {
		selection = SelectLast
	}

	return &Pipeline{
		gadgets:   NewGadgetFilter(catalog, opts.MinConfidence),
		selection: selection,
	}
}

// Analyze runs the three classifiers and combines their output.
func (p *Pipeline) Analyze(in Input) Result {
	head := ClassifyHead(in.Faces, in.Width, p.selection)
	hands := CountHands(in.Hands)
	gadgets := p.gadgets.Filter(in.Detections)

	warnings, compliant := Aggregate(head, hands, gadgets)

	return Result{
		Warnings:         warnings,
		HeadStatus:       head,
		HandCount:        hands,
		Gadgets:          gadgets,
		Compliant:        compliant,
		EvidenceRequired: EvidenceRequired(warnings, gadgets),
	}
}
