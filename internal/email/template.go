package email

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/kayvonkhosrowpour/jma-send/internal/models"
)

// RenderBody parses a campaign's HTML body file and executes it once
// with the campaign's fields. Planning resolves every body up front so
// send time does no file or template work.
func RenderBody(c models.Campaign) (string, error) {
	tmpl, err := template.ParseFiles(c.BodyPath)
	if err != nil {
		return "", fmt.Errorf("template parse error: %w", err)
	}

	var body bytes.Buffer
	if err := tmpl.Execute(&body, map[string]string{
		"Campaign": c.Name,
		"Subject":  c.SubjectTitle,
	}); err != nil {
		return "", fmt.Errorf("template execution error: %w", err)
	}

	return body.String(), nil
}

// RenderBodies resolves every campaign body, failing the whole
// planning run on the first broken template.
func RenderBodies(campaigns []models.Campaign) (map[string]string, error) {
	bodies := make(map[string]string, len(campaigns))
	for _, c := range campaigns {
		body, err := RenderBody(c)
		if err != nil {
			return nil, fmt.Errorf("campaign %s: %w", c.Name, err)
		}
		bodies[c.Name] = body
	}
	return bodies, nil
}
