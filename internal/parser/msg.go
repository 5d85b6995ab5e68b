package parser

import (
	"encoding/binary"
	"log"
	"sort"
	"strconv"
	"strings"
)

// MAPI property identifiers read from .msg containers
const (
	propSubject          = 0x0037
	propSenderEmail      = 0x0C1F
	propBody             = 0x1000
	propRTFCompressed    = 0x1009
	propHTML             = 0x1013
	propAttachData       = 0x3701
	propAttachFilename   = 0x3704
	propAttachLongName   = 0x3707
	propAttachMimeTag    = 0x370E
	propMessageCodepage  = 0x3FFD
	propInternetCodepage = 0x3FDE
)

// MAPI property types
const (
	typeInt32   = 0x0003
	typeString8 = 0x001E
	typeUnicode = 0x001F
	typeBinary  = 0x0102
)

const (
	substgPrefix   = "__substg1.0_"
	propertiesName = "__properties_version1.0"
	attachPrefix   = "__attach_version1.0_#"

	// Fixed-size property stream header length for the top-level message
	topPropertiesHeader = 32
)

// msgStream is one stream read out of the compound file
type msgStream struct {
	// path holds the storage names leading to the stream, root excluded
	path []string
	name string
	data []byte
}

// propertySet holds the property values of a single storage, keyed by tag
type propertySet struct {
	variable map[uint32][]byte
	fixed    map[uint32]uint32
}

func newPropertySet() *propertySet {
	return &propertySet{
		variable: make(map[uint32][]byte),
		fixed:    make(map[uint32]uint32),
	}
}

func propTag(id, typ uint16) uint32 {
	return uint32(id)<<16 | uint32(typ)
}

// add records a stream belonging to this storage
func (p *propertySet) add(s msgStream, headerLen int) {
	if s.name == propertiesName {
		p.readFixed(s.data, headerLen)
		return
	}
	tag, err := strconv.ParseUint(strings.TrimPrefix(s.name, substgPrefix), 16, 32)
	if err != nil {
		return
	}
	p.variable[uint32(tag)] = s.data
}

// readFixed parses the 16-byte entries of a __properties_version1.0 stream
func (p *propertySet) readFixed(data []byte, headerLen int) {
	if len(data) < headerLen {
		return
	}
	for off := headerLen; off+16 <= len(data); off += 16 {
		tag := binary.LittleEndian.Uint32(data[off:])
		if uint16(tag) == typeInt32 {
			p.fixed[tag] = binary.LittleEndian.Uint32(data[off+8:])
		}
	}
}

// str returns a string property in either unicode or 8-bit form
func (p *propertySet) str(id uint16, cp int) (string, bool) {
	if b, ok := p.variable[propTag(id, typeUnicode)]; ok {
		return decodeUTF16(b), true
	}
	if b, ok := p.variable[propTag(id, typeString8)]; ok {
		return strings.TrimRight(decodeCodePage(b, cp), "\x00"), true
	}
	return "", false
}

func (p *propertySet) bin(id uint16) ([]byte, bool) {
	b, ok := p.variable[propTag(id, typeBinary)]
	return b, ok
}

func (p *propertySet) long(id uint16) (int, bool) {
	v, ok := p.fixed[propTag(id, typeInt32)]
	return int(v), ok
}

// buildMSG assembles a message from the streams of a compound file and
// converts its bodies. Streams of embedded messages and recipients are
// ignored.
func buildMSG(streams []msgStream) *MSGMessage {
	top := newPropertySet()
	attachments := make(map[string]*propertySet)

	for _, s := range streams {
		switch {
		case len(s.path) == 0:
			top.add(s, topPropertiesHeader)
		case len(s.path) == 1 && strings.HasPrefix(s.path[0], attachPrefix):
			set, ok := attachments[s.path[0]]
			if !ok {
				set = newPropertySet()
				attachments[s.path[0]] = set
			}
			set.add(s, 8)
		}
	}

	cp := 1252
	if v, ok := top.long(propMessageCodepage); ok && v != 0 {
		cp = v
	}

	msg := &MSGMessage{}
	msg.Subject, _ = top.str(propSubject, cp)
	msg.Sender, _ = top.str(propSenderEmail, cp)
	msg.BodyText, _ = top.str(propBody, cp)
	msg.BodyHTML = htmlBody(top, cp)

	// Attachment storages are numbered with fixed-width hex, so the
	// lexical order is the declaration order
	names := make([]string, 0, len(attachments))
	for name := range attachments {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		set := attachments[name]
		data, ok := set.bin(propAttachData)
		if !ok {
			// Embedded messages and OLE objects carry no data stream
			continue
		}
		filename, _ := set.str(propAttachLongName, cp)
		if filename == "" {
			filename, _ = set.str(propAttachFilename, cp)
		}
		contentType, _ := set.str(propAttachMimeTag, cp)

		msg.Attachments = append(msg.Attachments, Part{
			Filename:    filename,
			ContentType: contentType,
			Attachment:  true,
			Data:        data,
		})
	}

	return msg
}

// htmlBody converts the HTML body of a message, falling back to HTML
// encapsulated in the compressed RTF body
func htmlBody(top *propertySet, cp int) string {
	if b, ok := top.bin(propHTML); ok {
		htmlCP := cp
		if v, ok := top.long(propInternetCodepage); ok && v != 0 {
			htmlCP = v
		}
		return strings.TrimRight(decodeCodePage(b, htmlCP), "\x00")
	}
	if s, ok := top.str(propHTML, cp); ok {
		return s
	}

	compressed, ok := top.bin(propRTFCompressed)
	if !ok {
		return ""
	}
	rtf, err := DecompressRTF(compressed)
	if err != nil {
		log.Printf("Error decompressing RTF body: %v", err)
		return ""
	}
	html, ok := HTMLFromRTF(rtf)
	if !ok {
		return ""
	}
	return html
}
