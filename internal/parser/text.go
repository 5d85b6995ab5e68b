package parser

import (
	"bytes"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// Windows code page identifiers that show up in PR_INTERNET_CPID and \ansicpg
var codePages = map[int]encoding.Encoding{
	65001: unicode.UTF8,
	1250:  charmap.Windows1250,
	1251:  charmap.Windows1251,
	1252:  charmap.Windows1252,
	1253:  charmap.Windows1253,
	1254:  charmap.Windows1254,
	1257:  charmap.Windows1257,
	20127: charmap.Windows1252,
	28591: charmap.ISO8859_1,
	28592: charmap.ISO8859_2,
	28605: charmap.ISO8859_15,
	874:   charmap.Windows874,
	850:   charmap.CodePage850,
	437:   charmap.CodePage437,
}

// DecodeUTF8 converts b to a string, replacing invalid UTF-8 sequences with
// U+FFFD. A leading byte order mark is dropped. It never fails.
func DecodeUTF8(b []byte) string {
	b = bytes.TrimPrefix(b, []byte("\xef\xbb\xbf"))
	out, err := unicode.UTF8.NewDecoder().Bytes(b)
	if err != nil {
		return strings.ToValidUTF8(string(b), "\uFFFD")
	}
	return string(out)
}

// decodeCodePage decodes b from the given Windows code page. Unknown code
// pages are treated as UTF-8.
func decodeCodePage(b []byte, cp int) string {
	enc, ok := codePages[cp]
	if !ok || enc == unicode.UTF8 {
		return DecodeUTF8(b)
	}
	out, err := enc.NewDecoder().Bytes(b)
	if err != nil {
		return DecodeUTF8(b)
	}
	return string(out)
}

// decodeUTF16 decodes a PT_UNICODE property value
func decodeUTF16(b []byte) string {
	dec := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()
	out, err := dec.Bytes(b)
	if err != nil {
		return ""
	}
	return strings.TrimRight(string(out), "\x00")
}
