package repositories

import (
	"fmt"

	"chat-system/domain"
)

// Badger key layout. The per-channel message keys embed a 19-digit
// zero-padded log index so a forward prefix scan yields messages in append
// order, and a trailing uuid guards against key collisions.
//
//	channel:{id}              -> channel record
//	channel_seq               -> next channel identifier
//	msgseq:{channel}          -> next log index for the channel
//	msg:{channel}:{index}:{uuid} -> message record
const channelSeqKey = "channel_seq"

func channelKey(id domain.ChannelID) []byte {
	return []byte("channel:" + string(id))
}

func messageSeqKey(id domain.ChannelID) []byte {
	return []byte("msgseq:" + string(id))
}

func messagePrefix(id domain.ChannelID) []byte {
	return []byte("msg:" + string(id) + ":")
}

func messageKey(id domain.ChannelID, index uint64, msgID string) []byte {
	return []byte(fmt.Sprintf("msg:%s:%019d:%s", id, index, msgID))
}
