// Package psframe encodes and decodes the management frames used for
// power-save negotiation with the radio firmware.
package psframe

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/radiopm/radiopm-server/internal/ps"
)

// Frame type words (little endian, first two bytes of every frame)
const (
	TypePSRequest uint16 = 0x0022
	TypePSConfirm uint16 = 0x0023
)

// Confirmation tag values carried in a PS confirm frame
const (
	TagSleepConfirm  uint16 = 0x0001
	TagWakeupConfirm uint16 = 0x0002
)

// ConfirmTagIndex is the fixed byte offset of the u16 confirmation tag
// within a PS confirm frame. The protocol has no per-request sequence
// number; the tag is all a confirmation carries.
const ConfirmTagIndex = 12

const (
	requestFrameLen    = 28
	minConfirmFrameLen = ConfirmTagIndex + 2
)

// Common errors
var (
	ErrTruncatedFrame = errors.New("truncated frame")
	ErrWrongFrameType = errors.New("wrong frame type")
)

// EncodeRequest builds a PS request frame from the adapter's current
// parameters.
//
// Layout (little endian):
//
//	[0:2]   frame type (TypePSRequest)
//	[2]     enable flag
//	[3]     sleep type
//	[4:8]   tx threshold
//	[8:12]  rx threshold
//	[12:16] tx hysteresis
//	[16:20] rx hysteresis
//	[20:22] monitor interval
//	[22:24] listen interval
//	[24]    beacons per listen interval (capped at 255)
//	[25]    DTIMs per sleep (capped at 255)
//	[26:28] deep sleep wakeup period
func EncodeRequest(enable bool, params ps.Parameters) []byte {
	buf := make([]byte, requestFrameLen)
	binary.LittleEndian.PutUint16(buf[0:2], TypePSRequest)
	if enable {
		buf[2] = 1
	}
	buf[3] = params.SleepType
	binary.LittleEndian.PutUint32(buf[4:8], params.TxThreshold)
	binary.LittleEndian.PutUint32(buf[8:12], params.RxThreshold)
	binary.LittleEndian.PutUint32(buf[12:16], params.TxHysteresis)
	binary.LittleEndian.PutUint32(buf[16:20], params.RxHysteresis)
	binary.LittleEndian.PutUint16(buf[20:22], params.MonitorInterval)
	binary.LittleEndian.PutUint16(buf[22:24], params.ListenInterval)
	buf[24] = capUint8(params.BeaconsPerListenInterval)
	buf[25] = capUint8(params.DTIMsPerSleep)
	binary.LittleEndian.PutUint16(buf[26:28], params.DeepSleepWakeupPeriod)
	return buf
}

// DecodeConfirm extracts the confirmation tag from an inbound PS
// confirm frame. Unrecognized tag values decode to
// ps.ConfirmationUnknown; deciding what to do with those is the
// controller's job, not the codec's.
func DecodeConfirm(data []byte) (ps.Confirmation, error) {
	if len(data) < minConfirmFrameLen {
		return ps.ConfirmationUnknown, fmt.Errorf("%w: %d bytes", ErrTruncatedFrame, len(data))
	}

	frameType := binary.LittleEndian.Uint16(data[0:2])
	if frameType != TypePSConfirm {
		return ps.ConfirmationUnknown, fmt.Errorf("%w: 0x%04x", ErrWrongFrameType, frameType)
	}

	tag := binary.LittleEndian.Uint16(data[ConfirmTagIndex : ConfirmTagIndex+2])
	switch tag {
	case TagSleepConfirm:
		return ps.ConfirmationSleep, nil
	case TagWakeupConfirm:
		return ps.ConfirmationWakeup, nil
	default:
		return ps.ConfirmationUnknown, nil
	}
}

// EncodeConfirm builds a PS confirm frame carrying the given tag. The
// server never sends these; hardware simulators and tests do.
func EncodeConfirm(tag uint16) []byte {
	buf := make([]byte, minConfirmFrameLen)
	binary.LittleEndian.PutUint16(buf[0:2], TypePSConfirm)
	binary.LittleEndian.PutUint16(buf[ConfirmTagIndex:ConfirmTagIndex+2], tag)
	return buf
}

func capUint8(v uint16) byte {
	if v > 255 {
		return 255
	}
	return byte(v)
}
