package document

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/><Default Extension="xml" ContentType="application/xml"/><Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/></Types>`

const relsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/></Relationships>`

const documentHead = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`

// A4 portrait with 2 cm margins.
const documentTail = `<w:sectPr><w:pgSz w:w="11906" w:h="16838"/><w:pgMar w:top="1134" w:right="1134" w:bottom="1134" w:left="1134" w:header="709" w:footer="709" w:gutter="0"/></w:sectPr></w:body></w:document>`

// defaultTemplates hold the body of each built-in template.
var defaultTemplates = map[string]string{
	TemplateLoan: heading("CAUTELA DE MATERIAL Nº {nrcautela}") +
		para("Recebedor: {rank} {warName} ({receiver})") +
		para("Organização militar: {militaryOrganization}") +
		para("Data: {date}    Devolução prevista: {devolutionDate}") +
		para("Missão: {mission}") +
		table(
			[]string{"Material", "Nº de série", "Tipo", "Condição", "Qtd", "Preço"},
			"equipments",
			[]string{"material", "numero_de", "tipo", "condicao", "quantidade", "preco"},
		) +
		para("Valor total: {totalPrice}") +
		para("Observação: {observation}") +
		para("") +
		para("Responsável: {lenderRank} {lender} - {function}"),

	TemplateAlteration: heading("TERMO DE ALTERAÇÃO DE MATERIAL") +
		para("Eu, {rank} {name} ({warName}), CPF {document}, da {militaryOrganization}, declaro a seguinte alteração:") +
		para("Material: {equipmentName}") +
		para("Quantidade: {amount}") +
		para("Números de série: {serialNumber}") +
		para("Missão: {mission}") +
		para("Local: {location}") +
		para("Data: {date}") +
		para("Descrição: {desc}"),

	TemplateReady: heading("PRONTO DE MATERIAL - {date}") +
		para("Conferido por: {rank} {warName}") +
		heading("Material cautelado") +
		table(
			[]string{"Material", "Nº de série", "Cliente", "Destino", "Qtd", "Data"},
			"Requipments",
			[]string{"material", "numero_de", "cliente", "destino", "quantidade", "data"},
		) +
		heading("Material em carga") +
		table(
			[]string{"Material", "Nº de série", "Categoria", "Condição", "Qtd", "Preço"},
			"Equipments",
			[]string{"material", "numero_de", "categoria", "condicao", "quantidade", "preco"},
		) +
		para("Valor total: {dataProco}"),

	TemplateDaily: heading("RELATÓRIO DIÁRIO - {date}") +
		heading("Material cautelado") +
		table(
			[]string{"Material", "Nº de série", "Cliente", "Destino", "Qtd", "Data"},
			"Requipments",
			[]string{"material", "numero_de", "cliente", "destino", "quantidade", "data"},
		) +
		heading("Material em carga") +
		table(
			[]string{"Material", "Nº de série", "Categoria", "Condição", "Qtd", "Preço"},
			"Equipments",
			[]string{"material", "numero_de", "categoria", "condicao", "quantidade", "preco"},
		) +
		para("Valor total: {dataProco}"),
}

// EnsureTemplates writes the built-in templates into dir, leaving existing
// files alone. It returns the names of the templates it wrote.
func EnsureTemplates(dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating template directory: %w", err)
	}

	var written []string
	for _, name := range []string{TemplateLoan, TemplateAlteration, TemplateReady, TemplateDaily} {
		path := filepath.Join(dir, name+".docx")
		if _, err := os.Stat(path); err == nil {
			continue
		} else if !errors.Is(err, fs.ErrNotExist) {
			return written, fmt.Errorf("checking template %s: %w", name, err)
		}

		data, err := buildDocx(defaultTemplates[name])
		if err != nil {
			return written, fmt.Errorf("building template %s: %w", name, err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return written, fmt.Errorf("writing template %s: %w", name, err)
		}
		written = append(written, name)
	}
	return written, nil
}

// buildDocx packages a document body as a minimal DOCX file.
func buildDocx(body string) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	parts := []struct{ name, content string }{
		{"[Content_Types].xml", contentTypesXML},
		{"_rels/.rels", relsXML},
		{"word/document.xml", documentHead + body + documentTail},
	}
	for _, p := range parts {
		w, err := zw.Create(p.name)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write([]byte(p.content)); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func para(text string) string {
	return `<w:p><w:r><w:t xml:space="preserve">` + text + `</w:t></w:r></w:p>`
}

func heading(text string) string {
	return `<w:p><w:pPr><w:jc w:val="center"/></w:pPr><w:r><w:rPr><w:b/></w:rPr><w:t xml:space="preserve">` +
		text + `</w:t></w:r></w:p>`
}

func cell(text string) string {
	return `<w:tc><w:tcPr><w:tcW w:w="0" w:type="auto"/></w:tcPr>` + para(text) + `</w:tc>`
}

// table builds a bordered table with a header row and one row repeated for
// every item of section.
func table(headers []string, section string, fields []string) string {
	var b strings.Builder
	b.WriteString(`<w:tbl><w:tblPr><w:tblW w:w="5000" w:type="pct"/><w:tblBorders>`)
	for _, side := range []string{"top", "left", "bottom", "right", "insideH", "insideV"} {
		b.WriteString(`<w:` + side + ` w:val="single" w:sz="4" w:space="0" w:color="000000"/>`)
	}
	b.WriteString(`</w:tblBorders></w:tblPr><w:tblGrid>`)
	for range headers {
		b.WriteString(`<w:gridCol/>`)
	}
	b.WriteString(`</w:tblGrid><w:tr>`)
	for _, h := range headers {
		b.WriteString(cell(h))
	}
	b.WriteString(`</w:tr><w:tr>`)
	for i, f := range fields {
		text := "{" + f + "}"
		if i == 0 {
			text = "{#" + section + "}" + text
		}
		if i == len(fields)-1 {
			text += "{/" + section + "}"
		}
		b.WriteString(cell(text))
	}
	b.WriteString(`</w:tr></w:tbl>`)
	return b.String()
}
