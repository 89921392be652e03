// Package render draws detected hands over camera frames for display.
package render

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"

	"github.com/disintegration/gift"
	"gocv.io/x/gocv"

	"github.com/ayusman/handson/internal/capture"
	"github.com/ayusman/handson/internal/detector"
)

// ErrNoImage is returned when a frame carries no image to draw on.
var ErrNoImage = errors.New("frame has no image")

// DefaultJPEGQuality is the quality used by EncodeJPEG when none is set.
const DefaultJPEGQuality = 75

// Overlay draws the hand wireframe. The zero value is not usable; call
// NewOverlay.
type Overlay struct {
	MinConfidence float64
	LineThickness int
	JointRadius   int
	LineColor     color.RGBA
	JointColor    color.RGBA
	Quality       int

	mirror *gift.GIFT
}

// NewOverlay returns an overlay with the default style.
func NewOverlay(minConfidence float64) *Overlay {
	return &Overlay{
		MinConfidence: minConfidence,
		LineThickness: 2,
		JointRadius:   4,
		LineColor:     color.RGBA{R: 0, G: 255, B: 0, A: 0},
		JointColor:    color.RGBA{R: 0, G: 0, B: 255, A: 0},
		Quality:       DefaultJPEGQuality,
		mirror:        gift.New(gift.FlipHorizontal()),
	}
}

// Render draws poses on a copy of frame and returns it as an image.
// Front-facing frames are mirrored so the preview behaves like a mirror.
// frame is not modified.
func (o *Overlay) Render(frame *gocv.Mat, poses []detector.Pose, facing capture.Facing) (image.Image, error) {
	if frame == nil || frame.Empty() {
		return nil, ErrNoImage
	}

	canvas := frame.Clone()
	defer canvas.Close()

	o.draw(&canvas, poses)

	img, err := canvas.ToImage()
	if err != nil {
		return nil, err
	}
	if facing == capture.FacingFront {
		img = o.Mirror(img)
	}
	return img, nil
}

// RenderJPEG is Render followed by EncodeJPEG.
func (o *Overlay) RenderJPEG(frame *gocv.Mat, poses []detector.Pose, facing capture.Facing) ([]byte, error) {
	img, err := o.Render(frame, poses, facing)
	if err != nil {
		return nil, err
	}
	return o.EncodeJPEG(img)
}

// Mirror flips img horizontally.
func (o *Overlay) Mirror(img image.Image) image.Image {
	dst := image.NewRGBA(o.mirror.Bounds(img.Bounds()))
	o.mirror.Draw(dst, img)
	return dst
}

// EncodeJPEG encodes img at the overlay's quality.
func (o *Overlay) EncodeJPEG(img image.Image) ([]byte, error) {
	quality := o.Quality
	if quality <= 0 {
		quality = DefaultJPEGQuality
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (o *Overlay) draw(mat *gocv.Mat, poses []detector.Pose) {
	w, h := mat.Cols(), mat.Rows()

	for i := range poses {
		pose := &poses[i]

		for _, seg := range pose.BuildConnections(o.MinConfidence) {
			gocv.Line(mat, ToPixel(seg.From, w, h), ToPixel(seg.To, w, h), o.LineColor, o.LineThickness)
		}

		for _, kp := range pose.Keypoints {
			if kp.Confidence < o.MinConfidence {
				continue
			}
			gocv.Circle(mat, ToPixel(kp.Location, w, h), o.JointRadius, o.JointColor, -1)
		}
	}
}

// ToPixel maps a normalized location to pixel coordinates in a w×h image,
// clamped to the image bounds.
func ToPixel(p detector.Point2D, w, h int) image.Point {
	return image.Pt(clamp(int(p.X*float64(w)), 0, w-1), clamp(int(p.Y*float64(h)), 0, h-1))
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
