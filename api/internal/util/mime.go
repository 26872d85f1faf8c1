package util

import (
	"encoding/base64"
	"net/http"
	"strings"
)

const fallbackMIME = "image/jpeg"

// SniffImageMIME detects the media type of an image by its magic bytes.
func SniffImageMIME(b []byte) string {
	if len(b) >= 2 && b[0] == 0xFF && b[1] == 0xD8 {
		return "image/jpeg"
	}
	if len(b) >= 8 &&
		b[0] == 0x89 && b[1] == 0x50 && b[2] == 0x4E && b[3] == 0x47 &&
		b[4] == 0x0D && b[5] == 0x0A && b[6] == 0x1A && b[7] == 0x0A {
		return "image/png"
	}
	if len(b) > 0 {
		return http.DetectContentType(b) // webp, gif, bmp...
	}
	return fallbackMIME
}

// PickMIME: the declared type wins, then the data:URI hint, then sniffing.
func PickMIME(declared, hint string, data []byte) string {
	if d := normalizeMIME(declared); d != "" {
		return d
	}
	if h := normalizeMIME(hint); h != "" {
		return h
	}
	return SniffImageMIME(data)
}

// normalizeMIME drops parameters ("image/jpeg; q=1") and generic
// octet-stream declarations some pickers send.
func normalizeMIME(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, ';'); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	s = strings.ToLower(s)
	if s == "application/octet-stream" {
		return ""
	}
	return s
}

// EncodeBase64 is the transport-safe text form of an image payload.
func EncodeBase64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

func MakeDataURL(mime string, data []byte) string {
	return "data:" + mime + ";base64," + EncodeBase64(data)
}

// DecodeBase64MaybeDataURL decodes a bare base64 payload or a data:URI.
// For a data:URI the declared media type is returned as the hint.
func DecodeBase64MaybeDataURL(s string) ([]byte, string, error) {
	hint, payload := splitDataURL(strings.TrimSpace(s))
	var firstErr error
	for _, enc := range payloadEncodings {
		b, err := enc.DecodeString(payload)
		if err == nil {
			return b, hint, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, "", firstErr
}

var payloadEncodings = []*base64.Encoding{
	base64.StdEncoding,
	base64.URLEncoding,
	base64.RawStdEncoding,
}

// splitDataURL cuts "data:<mime>[;params],<payload>" apart. Anything else is
// returned unchanged as the payload.
func splitDataURL(s string) (mime, payload string) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return "", s
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", s
	}
	mime, _, _ = strings.Cut(meta, ";")
	return strings.TrimSpace(mime), payload
}
