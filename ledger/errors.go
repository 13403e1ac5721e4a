////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package ledger

import "github.com/pkg/errors"

// ErrAccountNotFound is returned when an account has not been created
var ErrAccountNotFound = errors.New("account not found")

// ErrDefinitionExists is returned when a computation definition is
// initialized twice
var ErrDefinitionExists = errors.New("computation definition already initialized")
