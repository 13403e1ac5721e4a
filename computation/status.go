////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package computation

import (
	"fmt"
)

// Status is the lifecycle state of a computation as recorded by the
// coordination layer
type Status uint32

const (
	QUEUED = Status(iota)
	EXECUTING
	FINALIZED
	ABORTED
	NUM_STATUS
)

// Stringer to get the name of the status, primarily for error prints
func (s Status) String() string {
	switch s {
	case QUEUED:
		return "QUEUED"
	case EXECUTING:
		return "EXECUTING"
	case FINALIZED:
		return "FINALIZED"
	case ABORTED:
		return "ABORTED"
	default:
		return fmt.Sprintf("UNKNOWN STATUS: %d", s)
	}
}

// IsTerminal reports whether no further transition can happen
func (s Status) IsTerminal() bool {
	return s == FINALIZED || s == ABORTED
}
