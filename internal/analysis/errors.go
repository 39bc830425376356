// SPDX-License-Identifier: MIT
package analysis

import "errors"

var (
	// ErrInvalidInput indicates a block too short to analyse. The engine is
	// left untouched; the caller may skip the block and continue.
	ErrInvalidInput = errors.New("analysis: block must contain at least 2 samples")

	// ErrTransform indicates the spectral transform failed internally. The
	// failing block is dropped but previously analysed frames remain valid.
	ErrTransform = errors.New("analysis: spectral transform failed")

	// ErrEnginePoisoned indicates a panic occurred while the shared engine
	// lock was held. The internal state can no longer be trusted.
	ErrEnginePoisoned = errors.New("analysis: engine poisoned by earlier panic")
)
