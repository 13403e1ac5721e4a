////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package measure

// Constants for Tag strings used by Measure()
const (
	TagEncrypt   = "Encrypt Record"
	TagSubmit    = "Submit"
	TagFinalized = "Finalized"
	TagResult    = "Receive Result"
	TagDecrypt   = "Decrypt Result"
)
