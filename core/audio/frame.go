package audio

// Frame is one immutable chunk of PCM audio plus the metadata needed to
// interpret it. Sequence numbers are assigned by whoever produces the frame
// and are strictly increasing per direction within a session.
type Frame struct {
	Data     []byte
	Encoding EncodingInfo
	Seq      uint64
}

// Duration-independent helpers live on EncodingInfo; a Frame only carries
// the bytes it was constructed with.

func NewFrame(data []byte, encoding EncodingInfo, seq uint64) Frame {
	return Frame{Data: data, Encoding: encoding, Seq: seq}
}
