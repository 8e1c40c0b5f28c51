package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"strings"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"feynman-backend/internal/models"
)

const (
	ExportJSON     = "json"
	ExportMarkdown = "markdown"
	ExportHTML     = "html"
)

// SessionExport is the full record of one teaching session.
type SessionExport struct {
	Session  *models.Session         `json:"session"`
	Persona  *models.AiPersona       `json:"persona"`
	Progress *models.FeynmanProgress `json:"progress"`
	Messages []*models.Message       `json:"messages"`
	Gaps     []*models.Gap           `json:"gaps"`
	Quizzes  []*models.Quiz          `json:"quizzes"`
}

// Export renders a session in the given format and returns the body with
// its content type.
func (s *SessionService) Export(ctx context.Context, id int64, format string) ([]byte, string, error) {
	if format == "" {
		format = ExportJSON
	}
	if format != ExportJSON && format != ExportMarkdown && format != ExportHTML {
		return nil, "", &ValidationError{Fields: map[string]string{"format": "Must be one of: json, markdown, html"}}
	}

	exp, err := s.collectExport(ctx, id)
	if err != nil {
		return nil, "", err
	}

	switch format {
	case ExportMarkdown:
		return renderMarkdown(exp), "text/markdown; charset=utf-8", nil
	case ExportHTML:
		return renderHTML(exp), "text/html; charset=utf-8", nil
	}

	body, err := json.MarshalIndent(exp, "", "  ")
	if err != nil {
		return nil, "", err
	}
	return body, "application/json", nil
}

func (s *SessionService) collectExport(ctx context.Context, id int64) (*SessionExport, error) {
	sess, err := s.store.GetSession(ctx, id)
	if err != nil {
		return nil, storeError(err, "Session")
	}
	persona, err := s.store.GetPersona(ctx, sess.AiPersonaID)
	if err != nil {
		return nil, storeError(err, "Persona")
	}
	messages, err := s.store.ListMessagesBySession(ctx, id)
	if err != nil {
		return nil, err
	}
	gaps, err := s.store.ListGapsBySession(ctx, id)
	if err != nil {
		return nil, err
	}
	quizzes, err := s.store.ListQuizzesBySession(ctx, id)
	if err != nil {
		return nil, err
	}

	return &SessionExport{
		Session:  sess,
		Persona:  persona,
		Progress: Snapshot(sess),
		Messages: messages,
		Gaps:     gaps,
		Quizzes:  quizzes,
	}, nil
}

func renderMarkdown(exp *SessionExport) []byte {
	var b bytes.Buffer
	sess := exp.Session

	fmt.Fprintf(&b, "# %s\n\n", mdInline(sess.Title))
	if sess.Topic != nil && *sess.Topic != "" {
		fmt.Fprintf(&b, "- **Topic:** %s\n", mdInline(*sess.Topic))
	}
	fmt.Fprintf(&b, "- **Persona:** %s (%d)\n", mdInline(exp.Persona.Name), exp.Persona.Age)
	fmt.Fprintf(&b, "- **Current step:** %s\n", sess.CurrentStep.Label())
	fmt.Fprintf(&b, "- **Progress:** %d%%\n\n", exp.Progress.Percent)

	b.WriteString("## Transcript\n\n")
	if len(exp.Messages) == 0 {
		b.WriteString("_No messages yet._\n\n")
	}
	for _, m := range exp.Messages {
		speaker := "You"
		if m.Role == models.RoleAI {
			speaker = mdInline(exp.Persona.Name)
		}
		if m.FeynmanStep != nil {
			fmt.Fprintf(&b, "**%s** _(%s)_: %s\n\n", speaker, *m.FeynmanStep, escapeMarkdown(m.Content))
		} else {
			fmt.Fprintf(&b, "**%s**: %s\n\n", speaker, escapeMarkdown(m.Content))
		}
	}

	if len(exp.Gaps) > 0 {
		b.WriteString("## Gaps\n\n")
		for _, g := range exp.Gaps {
			fmt.Fprintf(&b, "- **%s** (%s): %s\n", mdInline(g.Concept), strings.ReplaceAll(string(g.Status), "_", " "), mdInline(g.Description))
		}
		b.WriteString("\n")
	}

	for _, q := range exp.Quizzes {
		fmt.Fprintf(&b, "## %s\n\n", mdInline(q.Title))
		for i, question := range q.Questions {
			fmt.Fprintf(&b, "%d. %s\n", i+1, mdInline(question.Question))
			for j, opt := range question.Options {
				mark := " "
				if j == question.CorrectOption {
					mark = "x"
				}
				fmt.Fprintf(&b, "    - [%s] %s\n", mark, mdInline(opt))
			}
		}
		b.WriteString("\n")
	}

	return b.Bytes()
}

func renderHTML(exp *SessionExport) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{
		Flags: mdhtml.CommonFlags | mdhtml.HrefTargetBlank | mdhtml.SkipHTML | mdhtml.Safelink,
	})
	renderer.IsSafeURLOverride = isSafeExportURL
	body := markdown.ToHTML(renderMarkdown(exp), p, renderer)

	var b bytes.Buffer
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&b, "<title>%s</title>\n", html.EscapeString(exp.Session.Title))
	b.WriteString("</head>\n<body>\n")
	b.Write(body)
	b.WriteString("</body>\n</html>\n")
	return b.Bytes()
}

// isSafeExportURL allows web and mail links only; other links render as text.
func isSafeExportURL(u []byte) bool {
	lower := strings.ToLower(string(u))
	for _, scheme := range []string{"https://", "http://", "mailto:"} {
		if strings.HasPrefix(lower, scheme) {
			return true
		}
	}
	return false
}

var htmlChars = strings.NewReplacer("<", `\<`, ">", `\>`)

// escapeMarkdown keeps user text inside its paragraph. Raw HTML and
// line-leading block markers are escaped; inline emphasis and links still
// render.
func escapeMarkdown(s string) string {
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	for i, line := range lines {
		lines[i] = escapeLineStart(htmlChars.Replace(strings.TrimLeft(line, " \t")))
	}
	return strings.Join(lines, "\n")
}

// mdInline escapes single-line fields such as titles and options.
func mdInline(s string) string {
	return escapeMarkdown(strings.Join(strings.Fields(s), " "))
}

func escapeLineStart(line string) string {
	if line == "" {
		return line
	}
	switch line[0] {
	case '#', '-', '+', '*', '=', '|', '`', '~':
		return `\` + line
	}
	// "3." and "3)" open ordered lists.
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i > 0 && i < len(line) && (line[i] == '.' || line[i] == ')') {
		return line[:i] + `\` + line[i:]
	}
	return line
}
