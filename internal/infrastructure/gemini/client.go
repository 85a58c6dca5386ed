package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/gdugdh24/roomshare-backend/internal/domain"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Client writes short match explanations for posters reviewing a request.
type Client struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

func NewClient(ctx context.Context, apiKey string) (*Client, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	model := client.GenerativeModel("gemini-1.5-flash")
	model.SetTemperature(0.4)
	model.SetMaxOutputTokens(120)

	return &Client{
		client: client,
		model:  model,
	}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

// ExplainMatch summarises why the seeker fits the poster's requirements.
func (c *Client) ExplainMatch(ctx context.Context, req *domain.RequirementsRecord, seekerMessage string, score int) (string, error) {
	resp, err := c.model.GenerateContent(ctx, genai.Text(buildPrompt(req, seekerMessage, score)))
	if err != nil {
		return "", fmt.Errorf("generate explanation: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("generate explanation: empty response")
	}

	text := joinText(resp.Candidates[0].Content.Parts)
	if text == "" {
		return "", fmt.Errorf("generate explanation: no text parts")
	}
	return text, nil
}

func buildPrompt(req *domain.RequirementsRecord, seekerMessage string, score int) string {
	desired := "none stated"
	if len(req.DesiredTraits) > 0 {
		desired = strings.Join(req.DesiredTraits, ", ")
	}
	return fmt.Sprintf(`
		A room occupant is looking for a co-tenant.
		Occupant traits: %s
		Wanted in a co-tenant: %s; age %d-%d; gender %s; budget up to %.0f
		The matching engine scored the applicant %d/100.
		Applicant's note: %q

		Task: in one or two plain sentences, tell the occupant what makes this
		applicant a good or weak fit. Do not invent facts beyond the note.
		Output: just the explanation text.
	`, strings.Join(req.PosterTraits, ", "), desired, req.AgeMin, req.AgeMax,
		req.GenderPreference, req.MaxPrice, score, seekerMessage)
}

func joinText(parts []genai.Part) string {
	var sb strings.Builder
	for _, part := range parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	return strings.TrimSpace(sb.String())
}
