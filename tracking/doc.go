// Package tracking animates live vehicle positions.
//
// Location batches arrive per vehicle, are densified by linear
// interpolation and queued. A coarse tick consumes one queued point per
// vehicle and a finer frame clock glides each marker towards it, so a
// sparse position feed renders as continuous motion on a Surface.
//
// All per-vehicle state is owned by the goroutine running Animator.Run.
package tracking
