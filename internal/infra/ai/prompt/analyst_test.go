package prompt

import (
	"strings"
	"testing"
)

func TestSystemPromptNamesEveryField(t *testing.T) {
	p := GetSystemPrompt()
	for _, field := range []string{"detectedConditions", "confidenceScore", "riskLevel", "analysis", "recommendations"} {
		if !strings.Contains(p, `"`+field+`"`) {
			t.Errorf("system prompt missing %s", field)
		}
	}
}

func TestDataURI(t *testing.T) {
	if got := DataURI("image/png", "AAAA"); got != "data:image/png;base64,AAAA" {
		t.Errorf("unexpected %q", got)
	}
	if got := DataURI("", "AAAA"); got != "data:image/jpeg;base64,AAAA" {
		t.Errorf("unexpected default %q", got)
	}
}
