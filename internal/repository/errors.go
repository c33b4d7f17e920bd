// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as the
// attendance service and handlers to distinguish between different failure
// scenarios. For example, ErrTokenAlreadyUsed signals that a concurrent
// scan won the conditional consume, while ErrNoOpenEntry means a clock-out
// found nothing to close.
package repository

import "errors"

// ErrEmailExists is returned by UserRepo.Create when the email address is
// already registered. Handlers translate this into an HTTP 409 response.
var ErrEmailExists = errors.New("email already exists")

// ErrTokenAlreadyUsed is returned by the consume operations when the
// conditional update on attendance_tokens.used affects zero rows, i.e. the
// token was consumed by another scan between lookup and consume. The
// attendance service reports this as an "already_used" rejection.
var ErrTokenAlreadyUsed = errors.New("attendance token already used")

// ErrNoOpenEntry is returned by a clock-out consume when the user has no
// time entry with a null clock_out at mutation time (for example the shift
// was closed by a correction while the QR code was on screen). The scan is
// rejected rather than silently no-oping.
var ErrNoOpenEntry = errors.New("no open time entry")
