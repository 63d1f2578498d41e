// Package matchid generates sortable match identifiers: UUIDv7 encoded as
// a 26-character Crockford base32 string. The timestamp prefix keeps match
// history files in creation order when listed lexically.
package matchid

import (
	"crypto/rand"
	"fmt"
	"time"
)

const alphabet = "0123456789abcdefghjkmnpqrstvwxyz"

// RandSource supplies the random tail of an ID. Injectable for
// deterministic tests; nil means crypto/rand.
type RandSource interface {
	Intn(n int) int
}

// Generator produces match IDs
type Generator struct {
	source RandSource
}

// NewGenerator creates a generator. A nil source uses crypto/rand.
func NewGenerator(source RandSource) *Generator {
	return &Generator{source: source}
}

// Generate creates a match ID with the default generator
func Generate() string {
	return NewGenerator(nil).Generate()
}

// Generate creates a new match ID
func (g *Generator) Generate() string {
	return encodeBase32(g.uuidv7())
}

// uuidv7 builds a 128-bit UUIDv7: 48-bit millisecond timestamp, version and
// variant bits, random remainder.
func (g *Generator) uuidv7() [16]byte {
	var id [16]byte

	now := time.Now().UnixMilli()
	id[0] = byte(now >> 40)
	id[1] = byte(now >> 32)
	id[2] = byte(now >> 24)
	id[3] = byte(now >> 16)
	id[4] = byte(now >> 8)
	id[5] = byte(now)

	if g.source != nil {
		for i := 6; i < 16; i++ {
			id[i] = byte(g.source.Intn(256))
		}
	} else {
		if _, err := rand.Read(id[6:]); err != nil {
			panic("matchid: " + err.Error())
		}
	}

	id[6] = (id[6] & 0x0f) | 0x70
	id[8] = (id[8] & 0x3f) | 0x80
	return id
}

// encodeBase32 packs 128 bits into 26 base32 characters, 5 bits at a time
func encodeBase32(data [16]byte) string {
	out := make([]byte, 26)
	for i := 0; i < 26; i++ {
		bitOffset := i * 5
		byteIndex := bitOffset / 8
		bitIndex := bitOffset % 8

		var v uint8
		if byteIndex < 16 {
			if bitIndex <= 3 {
				v = (data[byteIndex] >> (3 - bitIndex)) & 0x1f
			} else {
				v = (data[byteIndex] << (bitIndex - 3)) & 0x1f
				if byteIndex+1 < 16 {
					v |= data[byteIndex+1] >> (11 - bitIndex)
				}
			}
		}
		out[i] = alphabet[v]
	}
	return string(out)
}

// Validate reports whether a string is a well-formed match ID
func Validate(id string) error {
	if len(id) != 26 {
		return fmt.Errorf("match ID must be 26 characters, got %d", len(id))
	}
	if id[0] > '7' {
		return fmt.Errorf("match ID first character must be 0-7, got %c", id[0])
	}
	for i, c := range id {
		found := false
		for _, a := range alphabet {
			if c == a {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("invalid character %c at position %d", c, i)
		}
	}
	return nil
}
