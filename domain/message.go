package domain

// MessageType tags the three message shapes exchanged over a channel.
type MessageType string

const (
	METADATA MessageType = "METADATA"
	CHUNK    MessageType = "CHUNK"
	END      MessageType = "END"
)

// Message is one protocol message.
// Exactly one of Metadata or Chunk is set for METADATA and CHUNK, none for END.
type Message struct {
	Type     MessageType
	Metadata *FileMetadata
	Chunk    []byte
}

func NewMetadataMessage(meta FileMetadata) Message {
	return Message{Type: METADATA, Metadata: &meta}
}

func NewChunkMessage(chunk []byte) Message {
	return Message{Type: CHUNK, Chunk: chunk}
}

func NewEndMessage() Message {
	return Message{Type: END}
}
