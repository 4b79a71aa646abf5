package domain

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"stable-channels/pkg/apperror"
)

const (
	channelIDHexLen = 64
	nodeIDHexLen    = 66
)

// ChannelID is the 32-byte channel identifier. The zero value means unset.
type ChannelID [32]byte

// IsZero reports whether the id has not been bound yet.
func (c ChannelID) IsZero() bool { return c == ChannelID{} }

// String returns the 64-char lowercase hex form.
func (c ChannelID) String() string { return hex.EncodeToString(c[:]) }

// MarshalText encodes the id as hex.
func (c ChannelID) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText accepts anything ParseChannelID does.
func (c *ChannelID) UnmarshalText(b []byte) error {
	id, err := ParseChannelID(string(b))
	if err != nil {
		return err
	}
	*c = id
	return nil
}

// ParseChannelID accepts 64 hex characters, or a longer formatted string
// (e.g. "ChannelId(ab12...)") from which the 64 characters starting at the
// first hex digit are taken.
func ParseChannelID(s string) (ChannelID, error) {
	s = strings.TrimSpace(s)
	if len(s) < channelIDHexLen {
		return ChannelID{}, apperror.ErrParse("channel_id", errors.New("channel id string is too short"))
	}

	hexPart := s
	if len(s) > channelIDHexLen {
		start := strings.IndexFunc(s, isHexDigit)
		if start < 0 {
			return ChannelID{}, apperror.ErrParse("channel_id", errors.New("no hex digits found"))
		}
		if start+channelIDHexLen > len(s) {
			return ChannelID{}, apperror.ErrParse("channel_id", errors.New("channel id string is too short"))
		}
		hexPart = s[start : start+channelIDHexLen]
	}

	var id ChannelID
	if _, err := hex.Decode(id[:], []byte(hexPart)); err != nil {
		return ChannelID{}, apperror.ErrParse("channel_id", err)
	}
	return id, nil
}

func isHexDigit(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

// NodeID is a compressed secp256k1 public key identifying a node.
type NodeID [33]byte

// IsZero reports an unknown node.
func (n NodeID) IsZero() bool { return n == NodeID{} }

// String returns the 66-char lowercase hex form.
func (n NodeID) String() string { return hex.EncodeToString(n[:]) }

// MarshalText encodes the key as hex.
func (n NodeID) MarshalText() ([]byte, error) {
	return []byte(n.String()), nil
}

// UnmarshalText parses a hex compressed key.
func (n *NodeID) UnmarshalText(b []byte) error {
	id, err := ParseNodeID(string(b))
	if err != nil {
		return err
	}
	*n = id
	return nil
}

// ParseNodeID parses a 66 character hex compressed public key.
func ParseNodeID(s string) (NodeID, error) {
	s = strings.TrimSpace(s)
	if len(s) != nodeIDHexLen {
		return NodeID{}, apperror.ErrParse("node_id", fmt.Errorf("expected %d hex chars, got %d", nodeIDHexLen, len(s)))
	}
	var id NodeID
	if _, err := hex.Decode(id[:], []byte(s)); err != nil {
		return NodeID{}, apperror.ErrParse("node_id", err)
	}
	if id[0] != 0x02 && id[0] != 0x03 {
		return NodeID{}, apperror.ErrParse("node_id", errors.New("not a compressed public key"))
	}
	return id, nil
}

// NodeIDFromBytes converts a raw 33-byte key.
func NodeIDFromBytes(b []byte) (NodeID, error) {
	if len(b) != len(NodeID{}) {
		return NodeID{}, apperror.ErrParse("node_id", fmt.Errorf("expected 33 bytes, got %d", len(b)))
	}
	var id NodeID
	copy(id[:], b)
	return id, nil
}
