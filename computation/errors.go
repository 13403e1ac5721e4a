////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package computation

import "github.com/pkg/errors"

// Failures of a computation request. Match them with errors.Is; context is
// attached with errors.Wrap.
var (
	// ErrSubmissionRejected is returned when the coordination layer refuses
	// a submission. The caller decides whether to retry.
	ErrSubmissionRejected = errors.New("submission rejected")

	// ErrDuplicateComputation is returned when the offset is already in use.
	// The caller must allocate a new offset and resubmit.
	ErrDuplicateComputation = errors.New("duplicate computation offset")

	// ErrComputationAborted is returned when the engine failed the
	// computation.
	ErrComputationAborted = errors.New("computation aborted")

	// ErrTimedOut is returned when no completion signal arrived in time.
	ErrTimedOut = errors.New("timed out waiting for finalization")
)
