package prompt

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// templateFuncs provides utility functions for prompt templates.
var templateFuncs = sprig.TxtFuncMap()

const worldBuilderTemplate = `You are a creative world builder. Generate a detailed, imaginative description for the following request: "{{ .Request }}". Focus on atmosphere, key features, and unique elements. Do not include any game choices or stats.`

const creativeWriterTemplate = `You are a collaborative storyteller and creative writer. Continue the narrative or generate new story content based on the following prompt or previous text: "{{ .Request }}". Focus purely on engaging narrative, character development, and world-building. Do not include game choices, stats updates, or any game mechanics. Your response should be a compelling story continuation.`

const gameContextTemplate = `You are an AI Dungeon Master. The current players and their stats are:
{{- range .Players }}
{{ . }}
{{- end }}

The player whose last action this is from is {{ .PlayerName }} ({{ .CharacterType }}).
Provide narrative and occasionally suggest options for the player to choose from, or update stats for ANY relevant player (using their userId).
The response should be in JSON format like:
{"narrative": "...", "stats_update": {"userId123": {"health": 90, "gold": 10, "inventory_add": ["Potion"]}, "userId456": {"health": 100, "inventory_remove": ["Old Map"], "inventory_equip": {"item": "Sword", "slot": "main_hand"}}}, "options": ["Option 1", "Option 2"]}
If no stats update for a player, omit their userId. If no stats update at all, omit 'stats_update'. If no options, omit 'options'.
Ensure the JSON is properly formatted within your response for programmatic parsing.
Now, based on the previous conversation and the player's last action, continue the story, describe the outcome, and suggest next actions if applicable.`

// expand renders a prompt template against data.
func expand(tmplStr string, data any) (string, error) {
	tmpl, err := template.New("").Funcs(templateFuncs).Parse(tmplStr)
	if err != nil {
		return "", fmt.Errorf("parsing template: %w", err)
	}

	var buf bytes.Buffer
	err = tmpl.Execute(&buf, data)
	if err != nil {
		return "", fmt.Errorf("executing template: %w", err)
	}

	return buf.String(), nil
}
