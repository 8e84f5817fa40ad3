package hash

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

// SHA256Hex returns the hex-encoded SHA256 hash of the input string.
func SHA256Hex(input string) string {
	h := sha256.Sum256([]byte(input))
	return hex.EncodeToString(h[:])
}

// ShortHash returns the first n characters of SHA256(input).
// Used to correlate log lines (client IPs, prompts) without storing raw values.
func ShortHash(input string, n int) string {
	full := SHA256Hex(input)
	if n > len(full) || n <= 0 {
		return full
	}
	return full[:n]
}

// PromptKey derives a stable cache key for a generation request. Every
// parameter that can change the model output is part of the key.
func PromptKey(model, systemPrompt, prompt string, temperature float64, maxTokens int) string {
	var b strings.Builder
	b.WriteString(model)
	b.WriteByte(0)
	b.WriteString(systemPrompt)
	b.WriteByte(0)
	b.WriteString(prompt)
	b.WriteByte(0)
	b.WriteString(strconv.FormatFloat(temperature, 'f', -1, 64))
	b.WriteByte(0)
	b.WriteString(strconv.Itoa(maxTokens))
	return SHA256Hex(b.String())
}
