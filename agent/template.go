package agent

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/hupe1980/matcharena/core"
)

var templateFuncs = template.FuncMap{
	"default": func(defaultVal any, val any) any {
		if val == nil || val == "" {
			return defaultVal
		}
		return val
	},
	"upper": strings.ToUpper,
	"lower": strings.ToLower,
}

// NewInstructionFromTemplate creates an Instruction rendered with
// text/template against the agent configuration, for example
//
//	You are {{.AgentID}} playing {{.ScenarioName}} (range {{index .Hints "min"}}..{{index .Hints "max"}}).
//	{{.Briefing}}
//
// The template is parsed once; parse errors surface on Resolve.
func NewInstructionFromTemplate(text string) Instruction {
	if !strings.Contains(text, "{{") {
		return NewInstructionFromText(text)
	}
	tmpl, parseErr := template.New("instruction").Funcs(templateFuncs).Option("missingkey=zero").Parse(text)
	return NewInstructionFromFunc(func(cfg core.AgentConfig) (string, error) {
		if parseErr != nil {
			return "", fmt.Errorf("parse instruction template: %w", parseErr)
		}
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, cfg); err != nil {
			return "", fmt.Errorf("render instruction template: %w", err)
		}
		return buf.String(), nil
	})
}
