package utils

import (
	"math/rand"
)

const letters = "abcdefghijklmnopqrstuvwxyz"

// RandomAlphabetString generates a random lower case string of length N
func RandomAlphabetString(length int) string {
	b := make([]byte, length)
	for i := range b {
		b[i] = letters[rand.Intn(len(letters))]
	}
	return string(b)
}

// ContainsString returns true iff the provided string slice hay contains
// string needle.
func ContainsString(hay []string, needle string) bool {
	for _, str := range hay {
		if str == needle {
			return true
		}
	}
	return false
}
