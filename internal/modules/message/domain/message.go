package domain

import "strconv"

// Event is one inbound message as delivered by the transport.
type Event struct {
	ChatID        int64  `json:"chat_id"`
	ChatHandle    string `json:"chat_handle,omitempty"` // without the leading @
	Text          string `json:"text,omitempty"`
	Caption       string `json:"caption,omitempty"`
	PhotoID       string `json:"photo_id,omitempty"`
	IsChannelPost bool   `json:"is_channel_post"`
}

// EffectiveText is the text, falling back to the caption.
func (e Event) EffectiveText() string {
	if e.Text != "" {
		return e.Text
	}
	return e.Caption
}

// HasPhoto reports whether the event carries a photo.
func (e Event) HasPhoto() bool {
	return e.PhotoID != ""
}

// ChatRefs lists the identifiers a rule source may use for this chat.
func (e Event) ChatRefs() []string {
	refs := []string{strconv.FormatInt(e.ChatID, 10)}
	if e.ChatHandle != "" {
		refs = append(refs, "@"+e.ChatHandle)
	}
	return refs
}

// Outbound is a single send request.
type Outbound struct {
	Destination string
	Text        string
	PhotoID     string
	// Rich asks the transport to render Text with Markdown.
	Rich bool
}

// IsPhoto reports whether the outbound send is a photo.
func (o Outbound) IsPhoto() bool {
	return o.PhotoID != ""
}
