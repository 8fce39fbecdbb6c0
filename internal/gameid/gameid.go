// Package gameid generates sortable, prefix-typed identifiers: a UUIDv7
// encoded as a 26-character Crockford base32 string behind a short type
// prefix, e.g. "game_01h455vb4pex5vsknk084sn02q".
package gameid

import (
	"crypto/rand"
	"fmt"
	"strings"
	"time"
)

const alphabet = "0123456789abcdefghjkmnpqrstvwxyz"

// Known id prefixes.
const (
	PrefixRoom  = "room"
	PrefixGame  = "game"
	PrefixMove  = "mv"
	PrefixEvent = "evt"
)

// New creates an identifier with the given type prefix. Ids sort by
// creation time thanks to the UUIDv7 timestamp bits.
func New(prefix string) string {
	return prefix + "_" + encodeBase32(newUUIDv7())
}

// newUUIDv7 builds a 128-bit UUIDv7: 48-bit millisecond timestamp,
// version and variant bits, the rest random.
func newUUIDv7() [16]byte {
	var uuid [16]byte

	now := time.Now().UnixMilli()
	uuid[0] = byte(now >> 40)
	uuid[1] = byte(now >> 32)
	uuid[2] = byte(now >> 24)
	uuid[3] = byte(now >> 16)
	uuid[4] = byte(now >> 8)
	uuid[5] = byte(now)

	if _, err := rand.Read(uuid[6:]); err != nil {
		panic("failed to generate random bytes: " + err.Error())
	}

	uuid[6] = (uuid[6] & 0x0f) | 0x70
	uuid[8] = (uuid[8] & 0x3f) | 0x80
	return uuid
}

// encodeBase32 packs 128 bits into 26 base32 characters, 5 bits each.
func encodeBase32(data [16]byte) string {
	var out [26]byte
	for i := range out {
		bitOffset := i * 5
		byteIndex := bitOffset / 8
		bitIndex := bitOffset % 8

		var value uint8
		if bitIndex <= 3 {
			value = (data[byteIndex] >> (3 - bitIndex)) & 0x1f
		} else {
			value = (data[byteIndex] << (bitIndex - 3)) & 0x1f
			if byteIndex+1 < len(data) {
				value |= data[byteIndex+1] >> (11 - bitIndex)
			}
		}
		out[i] = alphabet[value]
	}
	return string(out[:])
}

// Validate checks that an id carries the expected prefix and a
// well-formed base32 body.
func Validate(id, prefix string) error {
	body, ok := strings.CutPrefix(id, prefix+"_")
	if !ok {
		return fmt.Errorf("id %q does not carry prefix %q", id, prefix)
	}
	if len(body) != 26 {
		return fmt.Errorf("id body must be 26 characters, got %d", len(body))
	}
	if body[0] > '7' {
		return fmt.Errorf("id first character must be 0-7, got %c", body[0])
	}
	for i, ch := range body {
		if !strings.ContainsRune(alphabet, ch) {
			return fmt.Errorf("invalid character %c at position %d", ch, i)
		}
	}
	return nil
}
