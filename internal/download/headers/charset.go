// Package headers parses the wire formats a downloader meets at the
// HTTP boundary, chiefly Content-Disposition (RFC 2183/6266/5987) and
// its extended-value charset decoding. Grounded on
// downloaders/helpers/headers/{content_disposition,common/charset}.rs.
package headers

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/traditionalchinese"
)

// decoderFor maps an RFC 5987 charset token (case-insensitive) to the
// encoding that understands it. Unsupported charsets return (nil,
// false): extended-value decoding then yields None per the RFC 8187
// guidance the rest of the pipeline follows.
func decoderFor(charset string) (encoding.Encoding, bool) {
	switch strings.ToLower(charset) {
	case "us-ascii", "ascii":
		return encoding.Nop, true
	case "utf-8", "utf8":
		return encoding.Nop, true
	case "windows-1252", "cp1252":
		return charmap.Windows1252, true
	case "iso-8859-1", "latin1":
		return charmap.ISO8859_1, true
	case "iso-8859-2":
		return charmap.ISO8859_2, true
	case "iso-8859-3":
		return charmap.ISO8859_3, true
	case "iso-8859-4":
		return charmap.ISO8859_4, true
	case "iso-8859-5":
		return charmap.ISO8859_5, true
	case "iso-8859-6":
		return charmap.ISO8859_6, true
	case "iso-8859-7":
		return charmap.ISO8859_7, true
	case "iso-8859-8":
		return charmap.ISO8859_8, true
	case "iso-8859-9":
		return charmap.ISO8859_9, true
	case "iso-8859-10":
		return charmap.ISO8859_10, true
	case "iso-8859-13":
		return charmap.ISO8859_13, true
	case "iso-8859-14":
		return charmap.ISO8859_14, true
	case "iso-8859-15":
		return charmap.ISO8859_15, true
	case "iso-8859-16":
		return charmap.ISO8859_16, true
	case "shift-jis", "shift_jis", "sjis":
		return japanese.ShiftJIS, true
	case "euc-jp":
		return japanese.EUCJP, true
	case "euc-kr":
		return korean.EUCKR, true
	case "koi8-r":
		return charmap.KOI8R, true
	case "big5":
		return traditionalchinese.Big5, true
	default:
		return nil, false
	}
}

// DecodeCharset decodes raw bytes using the named charset. It returns
// ("", false) for an unrecognized charset, matching the spec's
// "unsupported charsets decode as None" behavior rather than erroring.
func DecodeCharset(raw []byte, charset string) (string, bool) {
	dec, ok := decoderFor(charset)
	if !ok {
		return "", false
	}
	out, err := dec.NewDecoder().Bytes(raw)
	if err != nil {
		return "", false
	}
	return string(out), true
}

// percentDecode undoes RFC 3986 percent-encoding on raw bytes, used by
// the extended-value grammar (filename*=charset'lang'pct-encoded).
func percentDecode(s string) ([]byte, error) {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '%' {
			out = append(out, c)
			continue
		}
		if i+2 >= len(s) {
			return nil, fmt.Errorf("headers: truncated percent-encoding in %q", s)
		}
		var b byte
		if _, err := fmt.Sscanf(s[i+1:i+3], "%02x", &b); err != nil {
			return nil, fmt.Errorf("headers: invalid percent-encoding in %q: %w", s, err)
		}
		out = append(out, b)
		i += 2
	}
	return out, nil
}
