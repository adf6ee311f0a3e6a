package copywriter

import (
	"context"
	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"testing"
)

func TestTextOf(t *testing.T) {
	tests := []struct {
		name string
		resp *genai.GenerateContentResponse
		want string
	}{
		{name: "nil response", resp: nil, want: ""},
		{name: "no candidates", resp: &genai.GenerateContentResponse{}, want: ""},
		{
			name: "candidate without content",
			resp: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}},
			want: "",
		},
		{
			name: "joins text parts",
			resp: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []genai.Part{
					genai.Text("## Review\n"),
					genai.Blob{MIMEType: "image/png", Data: []byte{1}},
					genai.Text("Great harness. "),
				}},
			}}},
			want: "## Review\nGreat harness.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, textOf(tt.resp))
		})
	}
}

func TestUnavailable(t *testing.T) {
	resp, err := Unavailable{}.Generate(context.Background(), Request{UserPrompt: "anything"})

	assert.Nil(t, resp)
	assert.ErrorIs(t, err, ErrUnavailable)
}
