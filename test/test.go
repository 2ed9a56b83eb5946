package test

import (
	"encoding/binary"
	"fmt"
	"math/rand"
)

// RandomBytes generates a random byte slice of specified length
func RandomBytes(length int) []byte {
	b := make([]byte, length)
	rand.Read(b)
	return b
}

// RandomString generate a random string of specified length
func RandomString(length int) string {
	b := RandomBytes(length / 2)
	return fmt.Sprintf("%x", b)
}

// RandomUint64 returns a random non-zero 64-bit ID, the shape of Datadog trace and span IDs
func RandomUint64() uint64 {
	for {
		if v := binary.BigEndian.Uint64(RandomBytes(8)); v != 0 {
			return v
		}
	}
}
