// Package protocol implements the framed binary command link between a host
// and the PWM firmware: VLQ-encoded integers inside length-prefixed frames
// protected by a CRC16 and terminated by a sync byte.
package protocol

// Version of the wire protocol
const Version = "1.0.0"

// Frame layout: [len][seq][payload...][crc hi][crc lo][sync]
const (
	MessageHeaderSize  = 2
	MessageTrailerSize = 3
	MessageLengthMin   = MessageHeaderSize + MessageTrailerSize
	MessageLengthMax   = 64
	MessagePayloadMax  = MessageLengthMax - MessageLengthMin

	MessagePositionLen = 0
	MessagePositionSeq = 1
	MessageTrailerCRC  = 3
	MessageTrailerSync = 1

	MessageValueSync = 0x7E
	MessageDest      = 0x10 // high nibble of every sequence byte
	MessageSeqMask   = 0x0F

	// MessageMax bounds one burst of encoded output
	MessageMax = 512
)

// NextSeq returns the sequence byte that follows seq.
func NextSeq(seq uint8) uint8 {
	return ((seq + 1) & MessageSeqMask) | MessageDest
}
