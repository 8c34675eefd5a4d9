package document

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

const (
	fenceOpen  = "---\n"
	fenceClose = "\n---\n"
)

// envelope is the YAML shape of a frontmatter header: the metadata fields
// inline plus the document's attachment and history lists.
type envelope struct {
	Metadata    `yaml:",inline"`
	Attachments []Attachment   `yaml:"attachments,omitempty"`
	History     []HistoryEntry `yaml:"history,omitempty"`
}

// Decode splits raw text into frontmatter metadata and body.
//
// Decoding is fail-soft: text without an opening fence, with an unterminated
// fence, or with unparsable YAML comes back as zero metadata plus the
// original text verbatim. A malformed header never blocks a read.
func Decode(raw []byte) (Metadata, []byte) {
	doc := DecodeDocument(raw)
	return doc.Metadata, []byte(doc.Content)
}

// DecodeDocument decodes raw text into a full Document, including
// attachments and history carried in the header. Same fail-soft rules as
// Decode.
func DecodeDocument(raw []byte) *Document {
	header, body, ok := splitFences(raw)
	if !ok {
		return &Document{Content: string(raw)}
	}
	var env envelope
	if err := yaml.Unmarshal(header, &env); err != nil {
		return &Document{Content: string(raw)}
	}
	return &Document{
		Metadata:    env.Metadata,
		Content:     string(body),
		Attachments: env.Attachments,
		History:     env.History,
	}
}

// Encode serializes metadata as a fenced YAML header. Zero-valued optional
// fields are omitted and times render as RFC 3339 strings.
func Encode(meta Metadata) ([]byte, error) {
	return encodeEnvelope(envelope{Metadata: meta})
}

// Render produces the full on-disk representation: fenced header followed by
// a blank line and the body.
func Render(doc *Document) ([]byte, error) {
	header, err := encodeEnvelope(envelope{
		Metadata:    doc.Metadata,
		Attachments: doc.Attachments,
		History:     doc.History,
	})
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(header)+1+len(doc.Content))
	out = append(out, header...)
	out = append(out, '\n')
	out = append(out, doc.Content...)
	return out, nil
}

func encodeEnvelope(env envelope) ([]byte, error) {
	data, err := yaml.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encode frontmatter: %w", err)
	}
	var buf bytes.Buffer
	buf.Grow(len(data) + 16)
	buf.WriteString(fenceOpen)
	buf.Write(bytes.TrimRight(data, "\n"))
	buf.WriteString(fenceClose)
	return buf.Bytes(), nil
}

// splitFences returns the header bytes and the body when raw starts with a
// properly closed frontmatter fence. The reported body has the single blank
// separator line stripped.
func splitFences(raw []byte) (header, body []byte, ok bool) {
	normalized := bytes.ReplaceAll(raw, []byte("\r\n"), []byte("\n"))
	if !bytes.HasPrefix(normalized, []byte(fenceOpen)) {
		return nil, nil, false
	}
	rest := normalized[len(fenceOpen):]
	if idx := bytes.Index(rest, []byte(fenceClose)); idx >= 0 {
		header = rest[:idx]
		body = rest[idx+len(fenceClose):]
		body = bytes.TrimPrefix(body, []byte("\n"))
		return header, body, true
	}
	// A closing fence at end-of-file without a trailing newline still counts.
	if bytes.HasSuffix(rest, []byte("\n---")) {
		return rest[:len(rest)-len("\n---")], nil, true
	}
	return nil, nil, false
}
