package report

import (
	"bytes"
	"encoding/hex"
	"regexp"
	"strings"

	"golang.org/x/text/encoding/unicode"
)

// PDFMetadata is the document information dictionary of a PDF.
type PDFMetadata struct {
	Title        string `json:"title,omitempty"`
	Subject      string `json:"subject,omitempty"`
	Author       string `json:"author,omitempty"`
	Keywords     string `json:"keywords,omitempty"`
	Creator      string `json:"creator,omitempty"`
	Producer     string `json:"producer,omitempty"`
	CreationDate string `json:"creationDate,omitempty"`
	ModDate      string `json:"modDate,omitempty"`

	// XMPCreator and DocumentID come from an XMP packet, if present.
	XMPCreator string `json:"xmpCreator,omitempty"`
	DocumentID string `json:"documentId,omitempty"`
}

var (
	xmpCreatorPattern = regexp.MustCompile(`(?s)<dc:creator[^>]*>.*?<rdf:li[^>]*>([^<]+)</rdf:li>`)
	xmpDocIDPattern   = regexp.MustCompile(`xmpMM:DocumentID>([^<]+)<`)
	pdfTZPattern      = regexp.MustCompile(`[+-]\d{2}'?\d{2}'?$`)
)

// ReadPDFMetadata extracts the information dictionary from an
// uncompressed or stream-compressed PDF. Missing fields are empty.
// Only the first occurrence of each key is read.
func ReadPDFMetadata(data []byte) PDFMetadata {
	m := PDFMetadata{
		Title:        infoString(data, "/Title"),
		Subject:      infoString(data, "/Subject"),
		Author:       infoString(data, "/Author"),
		Keywords:     infoString(data, "/Keywords"),
		Creator:      infoString(data, "/Creator"),
		Producer:     infoString(data, "/Producer"),
		CreationDate: infoString(data, "/CreationDate"),
		ModDate:      infoString(data, "/ModDate"),
	}
	if match := xmpCreatorPattern.FindSubmatch(data); match != nil {
		m.XMPCreator = strings.TrimSpace(string(match[1]))
	}
	if match := xmpDocIDPattern.FindSubmatch(data); match != nil {
		m.DocumentID = strings.TrimSpace(string(match[1]))
	}
	return m
}

// IdentityLeaks lists metadata that can tie a handout to the person or
// machine that produced it. Credential handouts are expected to return
// an empty list.
func (m PDFMetadata) IdentityLeaks() []string {
	var leaks []string
	if m.Author != "" {
		leaks = append(leaks, "author: "+m.Author)
	}
	if m.XMPCreator != "" {
		leaks = append(leaks, "xmp creator: "+m.XMPCreator)
	}
	if m.DocumentID != "" {
		leaks = append(leaks, "document id: "+m.DocumentID)
	}
	for _, date := range []string{m.CreationDate, m.ModDate} {
		if pdfTZPattern.MatchString(date) {
			leaks = append(leaks, "timezone in date: "+date)
			break
		}
	}
	return leaks
}

// infoString returns the string value following key, decoding literal
// "(...)" and hex "<...>" strings.
func infoString(data []byte, key string) string {
	idx := bytes.Index(data, []byte(key))
	for idx >= 0 {
		rest := data[idx+len(key):]
		// "/Title" must not match "/TitleFoo".
		if len(rest) > 0 && isNameChar(rest[0]) {
			next := bytes.Index(rest, []byte(key))
			if next < 0 {
				return ""
			}
			idx += len(key) + next
			continue
		}
		rest = bytes.TrimLeft(rest, " \t\r\n")
		if len(rest) == 0 {
			return ""
		}
		switch rest[0] {
		case '(':
			return decodeText(literalString(rest[1:]))
		case '<':
			end := bytes.IndexByte(rest, '>')
			if end < 0 {
				return ""
			}
			raw, err := hex.DecodeString(string(bytes.Join(bytes.Fields(rest[1:end]), nil)))
			if err != nil {
				return ""
			}
			return decodeText(raw)
		default:
			return ""
		}
	}
	return ""
}

func isNameChar(c byte) bool {
	return c != '(' && c != '<' && c != '/' && c != ' ' && c != '\t' && c != '\r' && c != '\n'
}

// literalString reads a PDF literal string body up to its closing paren,
// resolving escapes and balanced inner parens.
func literalString(b []byte) []byte {
	var out []byte
	depth := 0
	for i := 0; i < len(b); i++ {
		c := b[i]
		switch c {
		case '\\':
			if i+1 >= len(b) {
				return out
			}
			i++
			switch b[i] {
			case 'n':
				out = append(out, '\n')
			case 'r':
				out = append(out, '\r')
			case 't':
				out = append(out, '\t')
			case 'b':
				out = append(out, '\b')
			case 'f':
				out = append(out, '\f')
			case '\r', '\n':
				// line continuation
			default:
				if b[i] >= '0' && b[i] <= '7' {
					v := 0
					n := 0
					for n < 3 && i < len(b) && b[i] >= '0' && b[i] <= '7' {
						v = v*8 + int(b[i]-'0')
						i++
						n++
					}
					i--
					out = append(out, byte(v))
				} else {
					out = append(out, b[i])
				}
			}
		case '(':
			depth++
			out = append(out, c)
		case ')':
			if depth == 0 {
				return out
			}
			depth--
			out = append(out, c)
		default:
			out = append(out, c)
		}
	}
	return out
}

// decodeText converts a PDF text string to UTF-8. Strings starting with
// the UTF-16BE byte order mark are decoded as UTF-16; anything else is
// taken as is.
func decodeText(b []byte) string {
	if len(b) >= 2 && b[0] == 0xFE && b[1] == 0xFF {
		decoded, err := unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder().Bytes(b)
		if err == nil {
			return strings.TrimSpace(string(decoded))
		}
	}
	return strings.TrimSpace(string(b))
}
