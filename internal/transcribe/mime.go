// Package transcribe implements the ordered speech-to-text router (spec
// §4.8): OpenAI Whisper, then Anthropic (audio embedded as base64 in a
// message), then an optional Codex CLI leg, each tried in turn until one
// returns usable text.
package transcribe

import "strings"

// Normalized MIME types the router forwards to providers.
const (
	MimeWebM = "audio/webm"
	MimeOgg  = "audio/ogg"
	MimeWAV  = "audio/wav"
	MimeMPEG = "audio/mpeg"
	MimeMP4  = "audio/mp4"
)

// NormalizeMIME collapses a client-supplied content type into one of the
// five forms the provider chain understands, defaulting to webm (the
// most common browser MediaRecorder output) when nothing matches.
func NormalizeMIME(raw string) string {
	lower := strings.ToLower(strings.TrimSpace(raw))
	lower = strings.SplitN(lower, ";", 2)[0]
	switch {
	case strings.Contains(lower, "webm"):
		return MimeWebM
	case strings.Contains(lower, "ogg"):
		return MimeOgg
	case strings.Contains(lower, "wav") || strings.Contains(lower, "x-wav"):
		return MimeWAV
	case strings.Contains(lower, "mpeg") || strings.Contains(lower, "mp3"):
		return MimeMPEG
	case strings.Contains(lower, "mp4") || strings.Contains(lower, "m4a"):
		return MimeMP4
	default:
		return MimeWebM
	}
}

// Extension returns the multipart form filename extension for a
// normalized MIME type, used when building the Whisper upload.
func Extension(mime string) string {
	switch mime {
	case MimeOgg:
		return "ogg"
	case MimeWAV:
		return "wav"
	case MimeMPEG:
		return "mp3"
	case MimeMP4:
		return "mp4"
	default:
		return "webm"
	}
}
