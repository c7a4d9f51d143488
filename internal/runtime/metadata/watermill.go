package metadata

import "github.com/ThreeDotsLabs/watermill/message"

// StreamMetadata builds the watermill metadata of a durable stream message:
// the envelope header plus its message id and type tag. The header is not
// modified.
func StreamMetadata(header Metadata, messageID, typeTag string) message.Metadata {
	wm := make(message.Metadata, len(header)+2)
	for k, v := range header {
		wm[k] = v
	}
	wm[KeyMessageID] = messageID
	wm[KeyType] = typeTag
	return wm
}
