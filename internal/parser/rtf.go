package parser

import (
	"bytes"
	"encoding/binary"
	"errors"
	"strconv"
)

const (
	rtfCompressed   = 0x75465A4C // "LZFu"
	rtfUncompressed = 0x414C454D // "MELA"
	rtfHeaderLen    = 16
	rtfDictSize     = 4096
	rtfMaxExpansion = 8
)

// rtfPrebuf seeds the LZFu dictionary
const rtfPrebuf = "{\\rtf1\\ansi\\mac\\deff0\\deftab720{\\fonttbl;}" +
	"{\\f0\\fnil \\froman \\fswiss \\fmodern \\fscript \\fdecor MS Sans SerifSymbolArialTimes New RomanCourier" +
	"{\\colortbl\\red0\\green0\\blue0\r\n\\par \\pard\\plain\\f0\\fs20\\b\\i\\u\\tab\\tx"

var errRTFHeader = errors.New("invalid compressed RTF header")

// DecompressRTF expands a PR_RTF_COMPRESSED value. Truncated input yields
// whatever was decoded before the end of the data.
func DecompressRTF(data []byte) ([]byte, error) {
	if len(data) < rtfHeaderLen {
		return nil, errRTFHeader
	}
	compSize := int(binary.LittleEndian.Uint32(data[0:]))
	rawSize := int(binary.LittleEndian.Uint32(data[4:]))
	magic := binary.LittleEndian.Uint32(data[8:])

	// compSize counts everything after its own field
	end := compSize + 4
	if end > len(data) || end < rtfHeaderLen {
		end = len(data)
	}

	switch magic {
	case rtfUncompressed:
		body := data[rtfHeaderLen:end]
		if rawSize < len(body) {
			body = body[:rawSize]
		}
		return body, nil
	case rtfCompressed:
	default:
		return nil, errRTFHeader
	}

	var dict [rtfDictSize]byte
	copy(dict[:], rtfPrebuf)
	write := len(rtfPrebuf)

	in := data[rtfHeaderLen:end]
	// rawSize comes from the file, so it only sizes the buffer up to what
	// the input can expand to
	out := make([]byte, 0, min(rawSize, len(in)*rtfMaxExpansion))

	for i := 0; i < len(in); {
		control := in[i]
		i++
		for bit := 0; bit < 8 && i < len(in); bit++ {
			if control&(1<<bit) == 0 {
				c := in[i]
				i++
				out = append(out, c)
				dict[write] = c
				write = (write + 1) % rtfDictSize
				continue
			}

			if i+1 >= len(in) {
				return out, nil
			}
			ref := int(in[i])<<8 | int(in[i+1])
			i += 2
			offset := ref >> 4
			length := ref&0xF + 2
			if offset == write {
				return out, nil
			}
			for k := 0; k < length; k++ {
				c := dict[(offset+k)%rtfDictSize]
				out = append(out, c)
				dict[write] = c
				write = (write + 1) % rtfDictSize
			}
		}
	}

	return out, nil
}

// Destinations whose content never belongs to the encapsulated HTML
var rtfSkipDestinations = map[string]bool{
	"fonttbl":    true,
	"colortbl":   true,
	"stylesheet": true,
	"info":       true,
	"pict":       true,
	"object":     true,
	"header":     true,
	"footer":     true,
}

type rtfGroup struct {
	skip    bool
	htmlrtf bool
}

// rtfDecoder de-encapsulates HTML from RTF produced with \fromhtml
type rtfDecoder struct {
	src     []byte
	pos     int
	cp      int
	out     bytes.Buffer
	pending []byte // code page bytes not yet decoded

	stack      []rtfGroup
	cur        rtfGroup
	groupStart bool
	star       bool
	uc         int
	skipChars  int
}

// HTMLFromRTF extracts the HTML encapsulated in an RTF body. It returns false
// when the RTF was not generated from HTML.
func HTMLFromRTF(rtf []byte) (string, bool) {
	head := rtf
	if len(head) > 1024 {
		head = head[:1024]
	}
	if !bytes.Contains(head, []byte(`\fromhtml`)) {
		return "", false
	}

	d := &rtfDecoder{src: rtf, cp: 1252, uc: 1}
	d.run()
	return d.out.String(), true
}

func (d *rtfDecoder) run() {
	for d.pos < len(d.src) {
		c := d.src[d.pos]
		d.pos++

		switch c {
		case '{':
			d.stack = append(d.stack, d.cur)
			d.groupStart = true
			continue
		case '}':
			if n := len(d.stack); n > 0 {
				d.cur = d.stack[n-1]
				d.stack = d.stack[:n-1]
			}
			d.star = false
		case '\\':
			d.control()
		case '\r', '\n':
		default:
			d.emitByte(c)
		}
		d.groupStart = false
	}
	d.flush()
}

// control handles the sequence following a backslash
func (d *rtfDecoder) control() {
	if d.pos >= len(d.src) {
		return
	}
	c := d.src[d.pos]

	switch {
	case c == '\'':
		if d.pos+2 < len(d.src) {
			if v, err := strconv.ParseUint(string(d.src[d.pos+1:d.pos+3]), 16, 8); err == nil {
				d.emitByte(byte(v))
			}
		}
		d.pos += 3
		return
	case c == '*':
		d.pos++
		d.star = true
		return
	case c == '{' || c == '}' || c == '\\':
		d.pos++
		d.emitByte(c)
		return
	case c == '~':
		d.pos++
		d.emitByte(' ')
		return
	case !isRTFLetter(c):
		d.pos++
		return
	}

	start := d.pos
	for d.pos < len(d.src) && isRTFLetter(d.src[d.pos]) {
		d.pos++
	}
	word := string(d.src[start:d.pos])

	numStart := d.pos
	if d.pos < len(d.src) && d.src[d.pos] == '-' {
		d.pos++
	}
	for d.pos < len(d.src) && d.src[d.pos] >= '0' && d.src[d.pos] <= '9' {
		d.pos++
	}
	num, hasNum := 0, d.pos > numStart
	if hasNum {
		num, _ = strconv.Atoi(string(d.src[numStart:d.pos]))
	}
	if d.pos < len(d.src) && d.src[d.pos] == ' ' {
		d.pos++
	}

	d.word(word, num, hasNum)
}

func (d *rtfDecoder) word(word string, num int, hasNum bool) {
	if d.star {
		d.star = false
		// \*\htmltag groups carry the HTML markup itself
		if word != "htmltag" {
			d.cur.skip = true
			return
		}
		d.cur.htmlrtf = false
		return
	}
	if d.groupStart && rtfSkipDestinations[word] {
		d.cur.skip = true
		return
	}

	switch word {
	case "htmlrtf":
		d.cur.htmlrtf = !hasNum || num != 0
	case "ansicpg":
		if hasNum {
			d.flush()
			d.cp = num
		}
	case "par", "line":
		d.emitText("\r\n")
	case "tab":
		d.emitText("\t")
	case "uc":
		if hasNum {
			d.uc = num
		}
	case "u":
		if !hasNum {
			return
		}
		if num < 0 {
			num += 65536
		}
		d.emitText(string(rune(num)))
		d.skipChars = d.uc
	}
}

func (d *rtfDecoder) visible() bool {
	return !d.cur.skip && !d.cur.htmlrtf
}

func (d *rtfDecoder) emitByte(c byte) {
	if d.skipChars > 0 {
		d.skipChars--
		return
	}
	if d.visible() {
		d.pending = append(d.pending, c)
	}
}

func (d *rtfDecoder) emitText(s string) {
	if !d.visible() {
		return
	}
	d.flush()
	d.out.WriteString(s)
}

// flush decodes pending bytes from the current code page
func (d *rtfDecoder) flush() {
	if len(d.pending) == 0 {
		return
	}
	d.out.WriteString(decodeCodePage(d.pending, d.cp))
	d.pending = d.pending[:0]
}

func isRTFLetter(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}
