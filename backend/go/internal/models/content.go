package models

import (
	"strings"
	"time"
)

// SpeakerRole identifies who produced a piece of content.
type SpeakerRole string

const (
	SpeakerSystem SpeakerRole = "system"
	SpeakerUser   SpeakerRole = "user"
	SpeakerModel  SpeakerRole = "assistant"
)

// Part is a single text fragment of a message.
type Part struct {
	Text string `json:"text,omitempty"`
}

// Content is one message made of parts.
type Content struct {
	Parts []*Part     `json:"parts,omitempty"`
	Role  SpeakerRole `json:"role,omitempty"`
}

// NewTextContent builds a single-part message.
func NewTextContent(role SpeakerRole, text string) Content {
	return Content{Role: role, Parts: []*Part{{Text: text}}}
}

// GenerateContentRequest is the provider-neutral completion request.
type GenerateContentRequest struct {
	SystemInstruction *Content  `json:"systemInstruction,omitempty"`
	Content           []Content `json:"content,omitempty"`
}

// GenerateContentResponse is the provider-neutral completion response.
type GenerateContentResponse struct {
	Content      []Content `json:"content,omitempty"`
	CreateTime   time.Time `json:"createTime,omitempty"`
	ResponseID   string    `json:"responseId,omitempty"`
	ModelVersion string    `json:"modelVersion,omitempty"`
}

// Text returns the trimmed text of the first candidate, empty when there is none.
func (r *GenerateContentResponse) Text() string {
	if r == nil || len(r.Content) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, p := range r.Content[0].Parts {
		if p != nil {
			sb.WriteString(p.Text)
		}
	}
	return strings.TrimSpace(sb.String())
}
