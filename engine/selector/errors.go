package selector

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-pick/common"
)

var (
	// ErrInvalidRegion matches every *InvalidRegionError through errors.Is.
	ErrInvalidRegion = errors.New("invalid pick region")

	// ErrReadback matches every *ReadbackError through errors.Is.
	ErrReadback = errors.New("pick readback failed")

	// ErrStaleBuffer is wrapped by a ReadbackError when the encoded buffer no longer matches
	// the viewport, either because it was resized or because it has not been rendered since.
	ErrStaleBuffer = errors.New("encoded buffer is stale")

	// ErrQueueFull matches every *QueueFullError through errors.Is.
	ErrQueueFull = errors.New("pick queue full")
)

// InvalidRegionError reports a pick rectangle that is inverted or not fully inside the
// viewport. It is a caller error and is never retried.
type InvalidRegionError struct {
	Viewport int
	Region   common.Rect
	Width    int
	Height   int
}

func (e *InvalidRegionError) Error() string {
	return fmt.Sprintf("pick region %s invalid for viewport %d (%dx%d)", e.Region, e.Viewport, e.Width, e.Height)
}

func (e *InvalidRegionError) Is(target error) bool {
	return target == ErrInvalidRegion
}

// QueueFullError reports that a pick was rejected because the queue already holds as many
// picks as it was sized for. Nothing was queued, so the caller may pick again later.
type QueueFullError struct {
	Viewport int
	Pending  int
}

func (e *QueueFullError) Error() string {
	return fmt.Sprintf("viewport %d: %d picks already pending", e.Viewport, e.Pending)
}

func (e *QueueFullError) Is(target error) bool {
	return target == ErrQueueFull
}

// ReadbackError reports that the encoded buffer could not be read back. The caller can
// re-render the viewport and pick again.
type ReadbackError struct {
	Viewport int
	Err      error
}

func (e *ReadbackError) Error() string {
	return fmt.Sprintf("viewport %d readback: %v", e.Viewport, e.Err)
}

func (e *ReadbackError) Unwrap() error {
	return e.Err
}

func (e *ReadbackError) Is(target error) bool {
	return target == ErrReadback
}

// EncodingCapacityError reports that more objects are pickable than one pass can encode.
// The encoder recovers from it by splitting the objects into batches.
type EncodingCapacityError struct {
	Objects  int
	Capacity int
}

func (e *EncodingCapacityError) Error() string {
	return fmt.Sprintf("%d pickable objects exceed the %d codes of one encoding pass", e.Objects, e.Capacity)
}

// validateRegion checks a pick rectangle against a viewport size.
func validateRegion(viewportID int, region common.Rect, width, height int) error {
	if !region.Within(width, height) {
		return &InvalidRegionError{Viewport: viewportID, Region: region, Width: width, Height: height}
	}
	return nil
}
