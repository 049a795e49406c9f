package consensus

import (
	"errors"
	"fmt"
)

// ErrorCode classifies a codec failure.
type ErrorCode string

const (
	ERR_SHORT_BUFFER   ErrorCode = "ERR_SHORT_BUFFER"
	ERR_CAP_EXCEEDED   ErrorCode = "ERR_CAP_EXCEEDED"
	ERR_BAD_LENGTH     ErrorCode = "ERR_BAD_LENGTH"
	ERR_BAD_TYPE_TAG   ErrorCode = "ERR_BAD_TYPE_TAG"
	ERR_BAD_HEX        ErrorCode = "ERR_BAD_HEX"
	ERR_OUT_OF_RANGE   ErrorCode = "ERR_OUT_OF_RANGE"
	ERR_TRAILING_BYTES ErrorCode = "ERR_TRAILING_BYTES"
	ERR_NONCANONICAL   ErrorCode = "ERR_NONCANONICAL"
	ERR_BAD_ADDRESS    ErrorCode = "ERR_BAD_ADDRESS"
	ERR_BAD_COMPACT    ErrorCode = "ERR_BAD_COMPACT"
)

// CodecError reports a malformed encoding. Field names the structure member
// being decoded when the failure happened.
type CodecError struct {
	Code  ErrorCode
	Field string
	Msg   string
}

func (e *CodecError) Error() string {
	if e == nil {
		return "<nil>"
	}
	switch {
	case e.Field == "" && e.Msg == "":
		return string(e.Code)
	case e.Field == "":
		return fmt.Sprintf("%s: %s", e.Code, e.Msg)
	case e.Msg == "":
		return fmt.Sprintf("%s: %s", e.Code, e.Field)
	}
	return fmt.Sprintf("%s: %s: %s", e.Code, e.Field, e.Msg)
}

func codecErr(code ErrorCode, field string, format string, args ...any) error {
	return &CodecError{Code: code, Field: field, Msg: fmt.Sprintf(format, args...)}
}

// CodeOf returns the codec error code carried by err, if any.
func CodeOf(err error) (ErrorCode, bool) {
	var ce *CodecError
	if errors.As(err, &ce) {
		return ce.Code, true
	}
	return "", false
}

// Reason is the outcome attached to a rejected proof.
type Reason string

const (
	REJECT_INVALID_PUBKEY   Reason = "invalid public key"
	REJECT_BAD_SIGNATURE    Reason = "incorrectly signed"
	REJECT_MISSING_POP_DATA Reason = "missing PoP data"
	REJECT_PATH_TX_MISMATCH Reason = "path/transaction mismatch"
	REJECT_NOT_IN_BLOCK     Reason = "not in block"
	REJECT_DISCONTIGUOUS    Reason = "discontiguous"
	REJECT_BAD_POW          Reason = "bad proof of work"
	REJECT_BAD_DIFFICULTY   Reason = "bad difficulty"
	REJECT_TIME_TOO_NEW     Reason = "timestamp too far in future"
	REJECT_INVALID_AMOUNTS  Reason = "invalid amounts"
	REJECT_INVALID_PUBDATA  Reason = "invalid publication data"
	REJECT_NETWORK_MISMATCH Reason = "network mismatch"
)

// ValidationError is a data-dependent rejection of an otherwise well-formed
// structure.
type ValidationError struct {
	Reason Reason
	Msg    string
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Msg == "" {
		return string(e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Msg)
}

func reject(reason Reason, format string, args ...any) error {
	return &ValidationError{Reason: reason, Msg: fmt.Sprintf(format, args...)}
}

// ReasonOf returns the rejection reason carried by err, if any.
func ReasonOf(err error) (Reason, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Reason, true
	}
	return "", false
}
