package selector

import (
	"context"
	"errors"

	"github.com/Carmen-Shannon/oxy-pick/common"
)

// ErrPending is returned by PickRequest.Result before the pick has completed.
var ErrPending = errors.New("pick still pending")

// PickRequest is the handle of one queued pick. It resolves exactly once.
type PickRequest struct {
	seq        uint64
	viewportID int
	region     common.Rect

	done      chan struct{}
	selection *Selection
	err       error
}

func newPickRequest(seq uint64, viewportID int, region common.Rect) *PickRequest {
	return &PickRequest{
		seq:        seq,
		viewportID: viewportID,
		region:     region,
		done:       make(chan struct{}),
	}
}

// Seq returns the request sequence number. Numbers increase in submission order across all
// viewports, so a caller can drop results older than the last request it issued.
func (r *PickRequest) Seq() uint64 {
	return r.seq
}

// ViewportID returns the viewport the request targets.
func (r *PickRequest) ViewportID() int {
	return r.viewportID
}

// Region returns the requested rectangle.
func (r *PickRequest) Region() common.Rect {
	return r.region
}

// Done is closed once the request has resolved.
func (r *PickRequest) Done() <-chan struct{} {
	return r.done
}

// Result returns the outcome without blocking.
//
// Returns:
//   - *Selection: the selection, or nil when the viewport was not pickable
//   - error: ErrPending before Done is closed, otherwise the pick error
func (r *PickRequest) Result() (*Selection, error) {
	select {
	case <-r.done:
		return r.selection, r.err
	default:
		return nil, ErrPending
	}
}

// Wait blocks until the request resolves or ctx is done. A nil Selection with a nil error
// means the viewport was not in a pickable state; try again after the next render.
//
// Parameters:
//   - ctx: bounds the wait; the pick itself keeps running
//
// Returns:
//   - *Selection: the selection, or nil when the viewport was not pickable
//   - error: the pick error, or ctx.Err()
func (r *PickRequest) Wait(ctx context.Context) (*Selection, error) {
	select {
	case <-r.done:
		return r.selection, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (r *PickRequest) resolve(sel *Selection, err error) {
	r.selection, r.err = sel, err
	close(r.done)
}
