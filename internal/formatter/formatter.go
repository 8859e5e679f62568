// package formatter exports clients and their linked contacts to various formats (CSV, Markdown, plain text, JSON)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/desertthunder/ccm/internal/models"
)

// ClientExport pairs a client with its resolved contacts.
type ClientExport struct {
	Client   *models.Client
	Contacts []*models.Contact
}

// DefaultBaseName is the file name stem used when no path is given.
const DefaultBaseName = "clients"

// ExportToCSV converts exports to CSV with one row per client/contact pair.
//
// Columns: ClientID, ClientCode, ClientName, Saved, ContactID, ContactName, ContactSurname, ContactEmail.
// A client without contacts still gets a row, with the contact columns left empty.
func ExportToCSV(exports []ClientExport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ClientID", "ClientCode", "ClientName", "Saved", "ContactID", "ContactName", "ContactSurname", "ContactEmail"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, export := range exports {
		client := export.Client
		base := []string{client.ID(), client.Code(), client.Name(), strconv.FormatBool(client.IsSaved())}

		if len(export.Contacts) == 0 {
			if err := writer.Write(append(base, "", "", "", "")); err != nil {
				return nil, fmt.Errorf("failed to write CSV record: %w", err)
			}
			continue
		}

		for _, contact := range export.Contacts {
			record := append(append([]string{}, base...), contact.ID(), contact.Name(), contact.Surname(), contact.Email())
			if err := writer.Write(record); err != nil {
				return nil, fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown renders a single client with a numbered contact list.
func ExportToMarkdown(export ClientExport) ([]byte, error) {
	var buf bytes.Buffer
	client := export.Client

	fmt.Fprintf(&buf, "# %s\n\n", client.Name())
	fmt.Fprintf(&buf, "**Code**: %s\n", client.Code())
	fmt.Fprintf(&buf, "**Saved**: %s\n", yesNo(client.IsSaved()))
	fmt.Fprintf(&buf, "**Contacts**: %d\n\n", len(export.Contacts))

	buf.WriteString("## Contacts\n\n")
	if len(export.Contacts) == 0 {
		buf.WriteString("_No contacts linked._\n")
	}
	for i, contact := range export.Contacts {
		fmt.Fprintf(&buf, "%d. %s <%s>\n", i+1, contact.FullName(), contact.Email())
	}

	return buf.Bytes(), nil
}

// ExportIndexMarkdown renders a table of clients linking to their per-client files.
func ExportIndexMarkdown(exports []ClientExport) []byte {
	var buf bytes.Buffer

	buf.WriteString("# Clients\n\n")
	fmt.Fprintf(&buf, "**Total**: %d\n\n", len(exports))
	buf.WriteString("| Code | Name | Saved | Contacts |\n")
	buf.WriteString("| ---- | ---- | ----- | -------- |\n")
	for _, export := range exports {
		client := export.Client
		fmt.Fprintf(&buf, "| [%s](%s) | %s | %s | %d |\n",
			client.Code(), markdownFilename(client), escapePipes(client.Name()), yesNo(client.IsSaved()), len(export.Contacts))
	}

	return buf.Bytes()
}

// ExportToText converts exports to plain text, one block per client.
func ExportToText(exports []ClientExport) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Clients: %d\n", len(exports))
	for _, export := range exports {
		client := export.Client
		fmt.Fprintf(&buf, "\n%s - %s", client.Code(), client.Name())
		if client.IsSaved() {
			buf.WriteString(" (saved)")
		}
		buf.WriteString("\n")

		for i, contact := range export.Contacts {
			fmt.Fprintf(&buf, "  %d. %s <%s>\n", i+1, contact.FullName(), contact.Email())
		}
	}

	return buf.Bytes(), nil
}

type exportJSON struct {
	Client   *models.Client    `json:"client"`
	Contacts []*models.Contact `json:"contacts"`
}

// ExportToJSON renders exports as an indented JSON array of {client, contacts} objects.
func ExportToJSON(exports []ClientExport) ([]byte, error) {
	out := make([]exportJSON, 0, len(exports))
	for _, export := range exports {
		contacts := export.Contacts
		if contacts == nil {
			contacts = []*models.Contact{}
		}
		out = append(out, exportJSON{Client: export.Client, Contacts: contacts})
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return data, nil
}

// WriteCSVExport writes exports to {base}.csv, defaulting base to [DefaultBaseName].
func WriteCSVExport(exports []ClientExport, base string) (string, error) {
	data, err := ExportToCSV(exports)
	if err != nil {
		return "", fmt.Errorf("failed to generate CSV: %w", err)
	}
	return writeFile(withExt(base, ".csv"), data)
}

// WriteTextExport writes exports to {base}.txt, defaulting base to [DefaultBaseName].
func WriteTextExport(exports []ClientExport, base string) (string, error) {
	data, err := ExportToText(exports)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}
	return writeFile(withExt(base, ".txt"), data)
}

// WriteJSONExport writes exports to {base}.json, defaulting base to [DefaultBaseName].
func WriteJSONExport(exports []ClientExport, base string) (string, error) {
	data, err := ExportToJSON(exports)
	if err != nil {
		return "", err
	}
	return writeFile(withExt(base, ".json"), data)
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory string
	Index     string
	Files     []string
}

// WriteMarkdownExport exports clients to Markdown in a dedicated directory.
//
// Directory name defaults to [DefaultBaseName].
// Creates a directory structure: {dir}/README.md and one {dir}/{code}.md per client.
func WriteMarkdownExport(exports []ClientExport, outputDir string) (*MarkdownExportResult, error) {
	if outputDir == "" {
		outputDir = DefaultBaseName
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &MarkdownExportResult{Directory: outputDir, Files: []string{}}

	for _, export := range exports {
		data, err := ExportToMarkdown(export)
		if err != nil {
			return nil, fmt.Errorf("failed to generate Markdown for %s: %w", export.Client.Code(), err)
		}

		path, err := writeFile(filepath.Join(outputDir, markdownFilename(export.Client)), data)
		if err != nil {
			return nil, err
		}
		result.Files = append(result.Files, path)
	}

	index, err := writeFile(filepath.Join(outputDir, "README.md"), ExportIndexMarkdown(exports))
	if err != nil {
		return nil, err
	}
	result.Index = index
	result.Files = append(result.Files, index)

	return result, nil
}

// Write exports in the named format ("csv", "md", "txt" or "json") and returns the created path.
func Write(format string, exports []ClientExport, path string) (string, error) {
	switch strings.ToLower(format) {
	case "csv":
		return WriteCSVExport(exports, path)
	case "txt", "text":
		return WriteTextExport(exports, path)
	case "json":
		return WriteJSONExport(exports, path)
	case "md", "markdown":
		result, err := WriteMarkdownExport(exports, path)
		if err != nil {
			return "", err
		}
		return result.Directory, nil
	default:
		return "", fmt.Errorf("unsupported export format %q (use csv, md, txt or json)", format)
	}
}

func writeFile(path string, data []byte) (string, error) {
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

func withExt(base, ext string) string {
	if base == "" {
		base = DefaultBaseName
	}
	if filepath.Ext(base) == ext {
		return base
	}
	return base + ext
}

func markdownFilename(c *models.Client) string {
	return c.Code() + ".md"
}

func escapePipes(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
