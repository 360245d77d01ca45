package domain

// MIME type for inline text parts.
const MIMETextPlain = "text/plain"

// Attachment references previously uploaded content.
type Attachment struct {
	ID         string `json:"id,omitempty"`
	Name       string `json:"name,omitempty"`
	CustomData any    `json:"custom_data,omitempty"`
}

// MessagePart is one part of a multipart message. Exactly one of Content,
// URL or Attachment is set; the constructors below enforce that.
type MessagePart struct {
	Type       string      `json:"type"`
	Content    string      `json:"content,omitempty"`
	URL        string      `json:"url,omitempty"`
	Attachment *Attachment `json:"attachment,omitempty"`
}

// TextPart creates an inline text/plain part.
func TextPart(text string) MessagePart {
	return MessagePart{Type: MIMETextPlain, Content: text}
}

// URLPart creates a part that links to external content.
func URLPart(mimeType, url string) MessagePart {
	return MessagePart{Type: mimeType, URL: url}
}

// AttachmentPart creates a part that references an uploaded attachment.
func AttachmentPart(mimeType string, attachment Attachment) MessagePart {
	return MessagePart{Type: mimeType, Attachment: &attachment}
}
