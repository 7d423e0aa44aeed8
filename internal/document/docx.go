package document

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	sectionOpenRe  = regexp.MustCompile(`\{([#^])([A-Za-z_][A-Za-z0-9_]*)\}`)
	sectionCloseRe = regexp.MustCompile(`\{/([A-Za-z_][A-Za-z0-9_]*)\}`)
	fieldRe        = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)
	paragraphRe    = regexp.MustCompile(`(?s)<w:p(?:\s[^>]*)?>.*?</w:p>`)
	textRe         = regexp.MustCompile(`(?s)<w:t(?:\s[^>]*[^/])?>(.*?)</w:t>`)
	templatePartRe = regexp.MustCompile(`^word/(document|header\d*|footer\d*)\.xml$`)
	templateNameRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

// lineBreak closes the current text element, breaks the line and opens a
// new one. Values are always substituted inside a <w:t>.
const lineBreak = `</w:t><w:br/><w:t xml:space="preserve">`

// DocxRenderer renders <Dir>/<name>.docx templates.
//
// Templates use {field} tags and {#list}...{/list} sections. A section whose
// tags sit in different cells of a table repeats the rows it spans;
// otherwise it repeats the paragraphs it spans, or only the enclosed text
// when both tags share a paragraph. {^list}...{/list} renders only when list
// is empty or false. Missing fields render as empty text.
type DocxRenderer struct {
	Dir string
}

// Render implements Renderer.
func (r *DocxRenderer) Render(name string, data map[string]any) ([]byte, error) {
	if !templateNameRe.MatchString(name) {
		return nil, fmt.Errorf("%w: %q", ErrTemplateNotFound, name)
	}

	raw, err := os.ReadFile(filepath.Join(r.Dir, name+".docx"))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
	}
	if err != nil {
		return nil, &RenderError{Template: name, Err: err}
	}

	out, err := renderDocx(raw, data)
	if err != nil {
		return nil, &RenderError{Template: name, Err: err}
	}
	return out, nil
}

func renderDocx(raw []byte, data map[string]any) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, fmt.Errorf("opening docx: %w", err)
	}

	hasDocument := false
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			hasDocument = true
			break
		}
	}
	if !hasDocument {
		return nil, errors.New("word/document.xml missing")
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range zr.File {
		if !templatePartRe.MatchString(f.Name) {
			if err := zw.Copy(f); err != nil {
				return nil, fmt.Errorf("copying %s: %w", f.Name, err)
			}
			continue
		}

		part, err := readZipFile(f)
		if err != nil {
			return nil, err
		}
		rendered, err := renderPart(part, data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.Name, err)
		}

		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     f.Name,
			Method:   zip.Deflate,
			Modified: f.Modified,
		})
		if err != nil {
			return nil, fmt.Errorf("writing %s: %w", f.Name, err)
		}
		if _, err := io.WriteString(w, rendered); err != nil {
			return nil, fmt.Errorf("writing %s: %w", f.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("closing docx: %w", err)
	}
	return buf.Bytes(), nil
}

func readZipFile(f *zip.File) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", f.Name, err)
	}
	defer rc.Close()

	b, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", f.Name, err)
	}
	return string(b), nil
}

// renderPart renders one XML part of the document.
func renderPart(part string, data map[string]any) (string, error) {
	if err := checkWellFormed(part); err != nil {
		return "", fmt.Errorf("malformed template: %w", err)
	}

	out, err := expand(mergeRuns(part), scope{data})
	if err != nil {
		return "", err
	}

	if err := checkWellFormed(out); err != nil {
		return "", fmt.Errorf("section produced malformed output: %w", err)
	}
	return out, nil
}

func checkWellFormed(s string) error {
	d := xml.NewDecoder(strings.NewReader(s))
	for {
		_, err := d.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// mergeRuns moves the text of every paragraph that contains a tag into its
// first text element. Word splits typed text across runs freely, so a tag
// like {name} may otherwise span several <w:t> elements.
func mergeRuns(part string) string {
	return paragraphRe.ReplaceAllStringFunc(part, func(p string) string {
		texts := textRe.FindAllStringSubmatch(p, -1)
		if len(texts) < 2 {
			return p
		}
		var joined strings.Builder
		for _, t := range texts {
			joined.WriteString(t[1])
		}
		if !strings.Contains(joined.String(), "{") {
			return p
		}

		i := 0
		return textRe.ReplaceAllStringFunc(p, func(string) string {
			i++
			if i == 1 {
				return `<w:t xml:space="preserve">` + joined.String() + `</w:t>`
			}
			return `<w:t></w:t>`
		})
	})
}

func paragraphText(p string) string {
	var b strings.Builder
	for _, t := range textRe.FindAllStringSubmatch(p, -1) {
		b.WriteString(t[1])
	}
	return b.String()
}

type sectionMode int

const (
	inlineSection sectionMode = iota
	paragraphSection
	rowSection
)

// expand renders sections and fields of s within sc.
func expand(s string, sc scope) (string, error) {
	var out strings.Builder
	for {
		loc := sectionOpenRe.FindStringSubmatchIndex(s)
		if loc == nil {
			text, err := substitute(s, sc)
			if err != nil {
				return "", err
			}
			out.WriteString(text)
			return out.String(), nil
		}

		openTag := s[loc[0]:loc[1]]
		inverted := s[loc[2]:loc[3]] == "^"
		name := s[loc[4]:loc[5]]
		closeTag := "{/" + name + "}"

		rel := strings.Index(s[loc[1]:], closeTag)
		if rel < 0 {
			return "", fmt.Errorf("unclosed section %q", name)
		}
		closeStart := loc[1] + rel
		closeEnd := closeStart + len(closeTag)

		start, end, mode := sectionBounds(s, loc[0], closeStart, closeEnd)

		prefix, err := substitute(s[:start], sc)
		if err != nil {
			return "", err
		}
		out.WriteString(prefix)

		block := trimSectionTags(s[start:end], openTag, closeTag, mode)
		rendered, err := renderSection(block, name, inverted, sc)
		if err != nil {
			return "", err
		}
		out.WriteString(rendered)

		s = s[end:]
	}
}

// sectionBounds widens a section to the table rows or paragraphs that hold
// its tags. Rows are repeated only when the tags sit in different cells.
func sectionBounds(s string, openStart, closeStart, closeEnd int) (int, int, sectionMode) {
	if !strings.Contains(s[openStart:closeStart], "</w:p>") {
		return openStart, closeEnd, inlineSection
	}

	before := s[:openStart]
	spansCells := strings.Contains(s[openStart:closeStart], "</w:tc>")
	if tr := lastOpenTag(before, "w:tr"); spansCells && tr >= 0 && tr > strings.LastIndex(before, "</w:tr>") {
		if e := strings.Index(s[closeEnd:], "</w:tr>"); e >= 0 {
			return tr, closeEnd + e + len("</w:tr>"), rowSection
		}
	}
	if p := lastOpenTag(before, "w:p"); p >= 0 && p > strings.LastIndex(before, "</w:p>") {
		if e := strings.Index(s[closeEnd:], "</w:p>"); e >= 0 {
			return p, closeEnd + e + len("</w:p>"), paragraphSection
		}
	}
	return openStart, closeEnd, inlineSection
}

// lastOpenTag returns the index of the last <tag> or <tag ...> in s.
func lastOpenTag(s, tag string) int {
	return max(strings.LastIndex(s, "<"+tag+">"), strings.LastIndex(s, "<"+tag+" "))
}

func trimSectionTags(block, openTag, closeTag string, mode sectionMode) string {
	switch mode {
	case inlineSection:
		block = strings.TrimPrefix(block, openTag)
		return strings.TrimSuffix(block, closeTag)

	case paragraphSection:
		// Paragraphs holding nothing but a tag disappear entirely.
		if i := strings.Index(block, "</w:p>"); i >= 0 {
			first := block[:i+len("</w:p>")]
			if strings.TrimSpace(paragraphText(first)) == openTag {
				block = block[len(first):]
			} else {
				block = strings.Replace(block, openTag, "", 1)
			}
		}
		if i := lastOpenTag(block, "w:p"); i >= 0 {
			last := block[i:]
			if strings.TrimSpace(paragraphText(last)) == closeTag {
				return block[:i]
			}
		}
		return removeLast(block, closeTag)
	}

	block = strings.Replace(block, openTag, "", 1)
	return removeLast(block, closeTag)
}

func removeLast(s, sub string) string {
	i := strings.LastIndex(s, sub)
	if i < 0 {
		return s
	}
	return s[:i] + s[i+len(sub):]
}

func renderSection(block, name string, inverted bool, sc scope) (string, error) {
	items := sectionItems(sc.lookup(name))

	if inverted {
		if len(items) > 0 {
			return "", nil
		}
		return expand(block, sc)
	}

	var out strings.Builder
	for _, item := range items {
		rendered, err := expand(block, sc.with(item))
		if err != nil {
			return "", err
		}
		out.WriteString(rendered)
	}
	return out.String(), nil
}

// sectionItems turns a section value into the scopes it repeats over.
func sectionItems(v any) []map[string]any {
	switch v := v.(type) {
	case nil:
		return nil
	case bool:
		if v {
			return []map[string]any{{}}
		}
		return nil
	case string:
		if v != "" {
			return []map[string]any{{}}
		}
		return nil
	case map[string]any:
		return []map[string]any{v}
	case []map[string]any:
		return v
	case []any:
		items := make([]map[string]any, 0, len(v))
		for _, e := range v {
			if m, ok := e.(map[string]any); ok {
				items = append(items, m)
			} else {
				items = append(items, map[string]any{"value": e})
			}
		}
		return items
	}
	return []map[string]any{{}}
}

// substitute replaces {field} tags in s. Stray closing tags mean the
// template's sections are out of order.
func substitute(s string, sc scope) (string, error) {
	if m := sectionCloseRe.FindStringSubmatch(s); m != nil {
		return "", fmt.Errorf("section %q closed but never opened", m[1])
	}
	return fieldRe.ReplaceAllStringFunc(s, func(tag string) string {
		return formatValue(sc.lookup(tag[1 : len(tag)-1]))
	}), nil
}

func formatValue(v any) string {
	var s string
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		s = v
	case fmt.Stringer:
		s = v.String()
	default:
		s = fmt.Sprint(v)
	}

	var b strings.Builder
	for i, line := range strings.Split(s, "\n") {
		if i > 0 {
			b.WriteString(lineBreak)
		}
		xml.EscapeText(&b, []byte(line))
	}
	return b.String()
}

// scope is a stack of data maps; inner sections see outer fields.
type scope []map[string]any

func (sc scope) lookup(name string) any {
	for i := len(sc) - 1; i >= 0; i-- {
		if v, ok := sc[i][name]; ok {
			return v
		}
	}
	return nil
}

func (sc scope) with(m map[string]any) scope {
	next := make(scope, len(sc), len(sc)+1)
	copy(next, sc)
	return append(next, m)
}
