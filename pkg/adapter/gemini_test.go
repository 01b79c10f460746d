package adapter_test

import (
	"context"
	"os"
	"testing"

	"github.com/Vamsi1807/AI-Call-Center/pkg/adapter"
	"github.com/m-mizutani/gt"
	"google.golang.org/genai"
)

func TestGenerateContent(t *testing.T) {
	apiKey := os.Getenv("TEST_GEMINI_API_KEY")
	projectID := os.Getenv("TEST_GEMINI_PROJECT")
	if apiKey == "" && projectID == "" {
		t.Skip("TEST_GEMINI_API_KEY or TEST_GEMINI_PROJECT is not set")
	}

	ctx := context.Background()
	client, err := adapter.NewGemini(ctx, adapter.GeminiBackend{
		APIKey:   apiKey,
		Project:  projectID,
		Location: "us-central1",
	})
	gt.NoError(t, err)

	contents := []*genai.Content{
		genai.NewContentFromText("Office hours are 9-5. When does the office open?", genai.RoleUser),
	}

	resp, err := client.GenerateContent(ctx, contents, nil)
	gt.NoError(t, err)

	if resp == nil ||
		len(resp.Candidates) == 0 ||
		resp.Candidates[0].Content == nil ||
		len(resp.Candidates[0].Content.Parts) == 0 ||
		resp.Candidates[0].Content.Parts[0].Text == "" {
		t.Fatal("unexpected response")
	}

	t.Log("response:", resp.Candidates[0].Content.Parts[0].Text)
}

func TestGeminiDefaultModel(t *testing.T) {
	ctx := context.Background()
	client, err := adapter.NewGemini(ctx, adapter.GeminiBackend{APIKey: "dummy-key"},
		adapter.WithGenerativeModel("gemini-2.5-pro"))
	gt.NoError(t, err)
	gt.Equal(t, client.Model(), "gemini-2.5-pro")

	client, err = adapter.NewGemini(ctx, adapter.GeminiBackend{APIKey: "dummy-key"},
		adapter.WithGenerativeModel(""))
	gt.NoError(t, err)
	gt.Equal(t, client.Model(), "gemini-2.5-flash")
}
