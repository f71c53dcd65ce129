// internal/organizer/sidecar.go
package organizer

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"

	"shelforg/internal/metadata"
)

// OPF document model, EPUB 3 package schema with the series and duration
// extensions understood by audiobook library servers.
type opfPackage struct {
	XMLName     xml.Name    `xml:"package"`
	Xmlns       string      `xml:"xmlns,attr"`
	XmlnsDC     string      `xml:"xmlns:dc,attr"`
	XmlnsOPF    string      `xml:"xmlns:opf,attr"`
	XmlnsSchema string      `xml:"xmlns:schema,attr"`
	UniqueID    string      `xml:"unique-identifier,attr"`
	Version     string      `xml:"version,attr"`
	Metadata    opfMetadata `xml:"metadata"`
	Manifest    opfManifest `xml:"manifest"`
	Spine       opfSpine    `xml:"spine"`
}

type opfMetadata struct {
	Identifiers  []opfIdentifier `xml:"dc:identifier"`
	Title        string          `xml:"dc:title"`
	Language     string          `xml:"dc:language"`
	Creators     []opfPerson     `xml:"dc:creator"`
	Contributors []opfPerson     `xml:"dc:contributor,omitempty"`
	Publisher    string          `xml:"dc:publisher,omitempty"`
	Date         string          `xml:"dc:date,omitempty"`
	Description  string          `xml:"dc:description,omitempty"`
	Subjects     []string        `xml:"dc:subject,omitempty"`
	Meta         []opfMeta       `xml:"meta"`
}

type opfIdentifier struct {
	ID     string `xml:"id,attr,omitempty"`
	Scheme string `xml:"opf:scheme,attr,omitempty"`
	Value  string `xml:",chardata"`
}

type opfPerson struct {
	Role string `xml:"opf:role,attr"`
	Name string `xml:",chardata"`
}

type opfMeta struct {
	Name     string `xml:"name,attr,omitempty"`
	Content  string `xml:"content,attr,omitempty"`
	Property string `xml:"property,attr,omitempty"`
	Value    string `xml:",chardata"`
}

type opfManifest struct {
	Items []opfItem `xml:"item"`
}

type opfItem struct {
	ID         string `xml:"id,attr"`
	Href       string `xml:"href,attr"`
	MediaType  string `xml:"media-type,attr"`
	Properties string `xml:"properties,attr,omitempty"`
}

type opfSpine struct {
	TOC string `xml:"toc,attr"`
}

// WriteSidecars writes the per-book metadata artifacts into folder. With
// createOPF a single book.opf carries everything; otherwise desc.txt and
// reader.txt are written when their content exists. The raw catalog payload
// always lands in metadata.json for reference.
func (o *Organizer) WriteSidecars(folder string, f metadata.Formatted, createOPF bool) error {
	if o.dryRun {
		o.log.Info("dry run: would write sidecar files", "folder", folder, "opf", createOPF)
		return nil
	}

	if err := os.MkdirAll(folder, 0o755); err != nil {
		return fmt.Errorf("creating sidecar folder %s: %w", folder, err)
	}

	p := f.Product

	if createOPF {
		if err := o.writeOPF(folder, f); err != nil {
			return err
		}
	} else {
		if p.Description != "" {
			if err := writeText(filepath.Join(folder, "desc.txt"), p.Description); err != nil {
				o.log.Error("could not write description", "folder", folder, "error", err)
			}
		}
		if f.Narrator != "" {
			if err := writeText(filepath.Join(folder, "reader.txt"), f.Narrator); err != nil {
				o.log.Error("could not write narrator list", "folder", folder, "error", err)
			}
		}
	}

	if len(p.Raw) > 0 {
		var pretty any
		if err := json.Unmarshal(p.Raw, &pretty); err == nil {
			if data, err := json.MarshalIndent(pretty, "", "  "); err == nil {
				if err := writeText(filepath.Join(folder, "metadata.json"), string(data)); err != nil {
					o.log.Error("could not write raw metadata dump", "folder", folder, "error", err)
				}
			}
		}
	}
	return nil
}

func (o *Organizer) writeOPF(folder string, f metadata.Formatted) error {
	p := f.Product

	language := p.Language
	if language == "" {
		language = "en"
	}

	md := opfMetadata{
		Title:    p.Title,
		Language: language,
	}

	bookID := "urn:uuid:" + filepath.Base(folder)
	if p.ASIN != "" {
		bookID = "urn:asin:" + p.ASIN
	}
	md.Identifiers = append(md.Identifiers, opfIdentifier{ID: "BookId", Value: bookID})
	if p.ASIN != "" {
		md.Identifiers = append(md.Identifiers, opfIdentifier{Scheme: "ASIN", Value: p.ASIN})
	}

	if len(p.Authors) == 0 {
		md.Creators = append(md.Creators, opfPerson{Role: "aut", Name: "Unknown Author"})
	}
	for _, name := range p.Authors {
		md.Creators = append(md.Creators, opfPerson{Role: "aut", Name: name})
	}
	for _, name := range p.Narrators {
		md.Contributors = append(md.Contributors, opfPerson{Role: "nrt", Name: name})
	}

	md.Publisher = p.Publisher
	if p.ReleaseDate != "" {
		md.Date = p.ReleaseDate
	} else {
		md.Date = f.Year
	}
	md.Description = p.Description
	md.Subjects = p.Genres

	md.Meta = append(md.Meta, opfMeta{Name: "cover", Content: "cover-image"})
	if p.Series != "" {
		md.Meta = append(md.Meta, opfMeta{Property: "schema:series", Value: p.Series})
		if p.SeriesPart != "" {
			md.Meta = append(md.Meta, opfMeta{Property: "schema:seriesPosition", Value: p.SeriesPart})
		}
	}
	if p.RuntimeMin > 0 {
		md.Meta = append(md.Meta, opfMeta{
			Property: "media:duration",
			Value:    fmt.Sprintf("%d", p.RuntimeMin*60),
		})
	}

	doc := opfPackage{
		Xmlns:       "http://www.idpf.org/2007/opf",
		XmlnsDC:     "http://purl.org/dc/elements/1.1/",
		XmlnsOPF:    "http://www.idpf.org/2007/opf",
		XmlnsSchema: "http://schema.org/",
		UniqueID:    "BookId",
		Version:     "3.0",
		Metadata:    md,
		Manifest: opfManifest{
			Items: []opfItem{{
				ID:         "cover-image",
				Href:       "cover.jpg",
				MediaType:  "image/jpeg",
				Properties: "cover-image",
			}},
		},
		Spine: opfSpine{TOC: "ncx"},
	}

	data, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling OPF: %w", err)
	}
	content := "<?xml version='1.0' encoding='utf-8'?>\n" + string(data) + "\n"
	if err := writeText(filepath.Join(folder, "book.opf"), content); err != nil {
		return fmt.Errorf("writing book.opf: %w", err)
	}
	return nil
}

func writeText(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}
