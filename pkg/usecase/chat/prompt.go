package chat

import (
	"bytes"
	_ "embed"
	"text/template"
	"time"

	"github.com/m-mizutani/goerr/v2"
)

//go:embed prompt/system.md
var systemPromptRaw string

//go:embed prompt/summarize.md
var summarizePromptRaw string

var systemPromptTmpl = template.Must(template.New("system").Parse(systemPromptRaw))

const DefaultBusinessName = "US Prosthetix"

func buildSystemPrompt(businessName string, now time.Time) (string, error) {
	var buf bytes.Buffer
	if err := systemPromptTmpl.Execute(&buf, map[string]any{
		"BusinessName": businessName,
		"Today":        now.Format(time.DateOnly),
	}); err != nil {
		return "", goerr.Wrap(err, "failed to execute system prompt template")
	}
	return buf.String(), nil
}
