/*
Package errors implements the root error set used across the mctl engine.

Every failure returned by a public operation wraps exactly one of the
registered root errors. Callers classify failures with the root's Is
method and never by string comparison:

	if errors.ErrPermissionDenied.Is(err) {
		// ask for a stronger credential
	}

Use Wrap and Wrapf to attach context while keeping the root (and the
stack trace captured at the lowest frame) intact.
*/
package errors
