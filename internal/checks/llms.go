package checks

import (
	"context"
	"fmt"
	"strings"

	"agentaudit/pkg/types"
)

var llmsTxtPaths = []string{"/llms.txt", "/llms-full.txt", "/.well-known/llms.txt"}

// LLMsTxt probes the llms.txt filename variants. Responses that are
// HTML-shaped (404 pages served as 200) or trivially short are rejected;
// the first valid hit wins.
func (d *Discovery) LLMsTxt(ctx context.Context, baseURL string) types.Check {
	check := types.Check{
		ID:       IDLLMsTxt,
		Name:     "llms.txt",
		Category: types.CategoryDiscovery,
		MaxScore: MaxLLMsTxt,
	}

	base := strings.TrimSuffix(baseURL, "/")
	for _, path := range llmsTxtPaths {
		resp, err := d.prober.Get(ctx, base+path, d.llmsTimeout)
		if err != nil || !resp.OK() {
			continue
		}
		body := strings.TrimSpace(resp.Body)
		if len(body) < 10 || looksLikeHTML(body) {
			continue
		}
		check.Status = types.StatusPass
		check.Score = MaxLLMsTxt
		check.Details = fmt.Sprintf("llms.txt found at %s (%d bytes)", path, len(body))
		check.Data = map[string]any{"path": path, "bytes": len(body)}
		return check
	}

	check.Status = types.StatusFail
	check.Details = "No llms.txt published"
	return check
}

func looksLikeHTML(body string) bool {
	lowered := strings.ToLower(body)
	return strings.HasPrefix(lowered, "<!doctype") || strings.HasPrefix(lowered, "<html") || strings.Contains(lowered[:min(len(lowered), 256)], "<head")
}
