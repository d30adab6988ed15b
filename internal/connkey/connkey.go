// Package connkey encodes and decodes the connection keys a homeowner shares
// with a management company.
//
// A key is a base64url-encoded compact JSON object. It is not signed or
// encrypted; treat the encoded token as a secret and move it over a trusted
// channel.
package connkey

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"flux_irrigation/internal/models"
)

// ErrInvalidKey is returned for every token that cannot be decoded into a usable key.
var ErrInvalidKey = errors.New("invalid connection key")

// Encode serializes k into a shareable token. A version below 1 is written as
// the current version and an empty mode as direct.
func Encode(k models.ConnectionKey) (string, error) {
	if strings.TrimSpace(k.URL) == "" || strings.TrimSpace(k.Key) == "" {
		return "", fmt.Errorf("%w: url and key are required", ErrInvalidKey)
	}
	if k.Version < 1 {
		k.Version = models.ConnectionKeyVersion
	}
	mode, ok := models.ParseConnectionMode(string(k.Mode))
	if !ok {
		return "", fmt.Errorf("%w: unsupported mode %q", ErrInvalidKey, k.Mode)
	}
	k.Mode = mode

	b, err := json.Marshal(k)
	if err != nil {
		return "", fmt.Errorf("marshal connection key: %w", err)
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// wireKey mirrors models.ConnectionKey with pointers for the fields whose
// presence must be checked separately from their value.
type wireKey struct {
	URL  *string `json:"url"`
	Key  *string `json:"key"`
	Mode *string `json:"mode"`
}

// Decode parses a token produced by Encode. Surrounding whitespace, missing
// padding and the standard base64 alphabet are tolerated.
func Decode(token string) (models.ConnectionKey, error) {
	raw, err := decodeBase64(token)
	if err != nil {
		return models.ConnectionKey{}, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil || probe == nil {
		return models.ConnectionKey{}, fmt.Errorf("%w: payload must be a JSON object", ErrInvalidKey)
	}

	var w wireKey
	if err := json.Unmarshal(raw, &w); err != nil {
		return models.ConnectionKey{}, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	if w.URL == nil || w.Key == nil {
		return models.ConnectionKey{}, fmt.Errorf("%w: missing required 'url' or 'key' field", ErrInvalidKey)
	}
	if *w.URL == "" || *w.Key == "" {
		return models.ConnectionKey{}, fmt.Errorf("%w: 'url' and 'key' must not be empty", ErrInvalidKey)
	}

	var k models.ConnectionKey
	if err := json.Unmarshal(raw, &k); err != nil {
		return models.ConnectionKey{}, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	if k.Version < 1 {
		k.Version = models.ConnectionKeyVersion
	}
	modeStr := ""
	if w.Mode != nil {
		modeStr = *w.Mode
	}
	mode, ok := models.ParseConnectionMode(modeStr)
	if !ok {
		return models.ConnectionKey{}, fmt.Errorf("%w: unsupported mode %q", ErrInvalidKey, modeStr)
	}
	k.Mode = mode
	return k, nil
}

func decodeBase64(token string) ([]byte, error) {
	s := strings.TrimSpace(token)
	if s == "" {
		return nil, errors.New("empty token")
	}
	s = strings.NewReplacer("+", "-", "/", "_").Replace(s)
	s = strings.TrimRight(s, "=")
	return base64.RawURLEncoding.DecodeString(s)
}
