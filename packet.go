package MinecraftWorldServer

import (
	"bytes"
	"errors"
	"io"
)

// maxPacketLength is the largest frame body the server accepts.
// Uncompressed serverbound packets are far smaller in practice.
const maxPacketLength = 65536

var errPacketLength = errors.New("packet length out of bounds")

// Packet defines a Minecraft network data package
// +--------+-----------+------+
// | Length | Packet ID | Data |
// +--------+-----------+------+
type Packet struct {
	ID   int32
	data bytes.Buffer
}

// Pack prepares a packet and write it to w writer interface.
func (pk *Packet) Pack(w io.Writer) error {
	var packet bytes.Buffer
	id := VarInt(pk.ID)

	// Write total length
	if _, err := VarInt(varIntSize(id) + int32(pk.data.Len())).WriteTo(&packet); err != nil {
		return err
	}

	// Write packet id
	if _, err := id.WriteTo(&packet); err != nil {
		return err
	}

	// Write data
	if _, err := pk.data.WriteTo(&packet); err != nil {
		return err
	}

	// Send result to w
	if _, err := packet.WriteTo(w); err != nil {
		return err
	}

	return nil
}

// Unpack reads a packet from r reader interface.
// The internal buffer is reused across calls, so a session reading
// many frames reaches a steady state with no further allocation.
func (pk *Packet) Unpack(r io.Reader) error {
	// Get packet length, one byte at a time off the stream
	var length VarInt
	if _, err := length.ReadFrom(r); err != nil {
		return err
	}
	if length < 1 || length > maxPacketLength {
		return errPacketLength
	}

	// Save data
	pk.data.Reset()
	if _, err := io.CopyN(&pk.data, r, int64(length)); err != nil {
		return errors.New("unable to read packet content: " + err.Error())
	}

	// Get packet id
	var packetID VarInt
	if _, err := packetID.ReadFrom(&pk.data); err != nil {
		return errors.New("unable to read packet id: " + err.Error())
	}
	pk.ID = int32(packetID)

	return nil
}

// Read implements io.Reader interface for Packet.
func (pk *Packet) Read(p []byte) (n int, err error) {
	return pk.data.Read(p)
}

// Write implements io.Writer interface for Packet.
func (pk *Packet) Write(p []byte) (n int, err error) {
	return pk.data.Write(p)
}

// Len returns the number of unread payload bytes.
func (pk *Packet) Len() int {
	return pk.data.Len()
}

// NewPacket creates a new packet using input data.
func NewPacket(packetID int32, data ...io.WriterTo) *Packet {
	packet := new(Packet)
	packet.ID = packetID

	for _, currType := range data {
		_, _ = currType.WriteTo(packet)
	}

	return packet
}

// varIntSize returns the encoded byte length of a VarInt.
func varIntSize(v VarInt) int32 {
	size := int32(0)
	num := uint32(v)
	for {
		size++
		num >>= 7
		if num == 0 {
			return size
		}
	}
}
