package formatter

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/ccm/internal/models"
	th "github.com/desertthunder/ccm/internal/testing"
)

func fixtures() []ClientExport {
	now := time.Now().UTC()
	acme := models.RestoreClient("c1", "Acme Corp", "ACO001", true, []string{"k1", "k2"}, now, now)
	solo := models.RestoreClient("c2", "Solo | Ltd", "SLX002", false, nil, now, now)

	ada := models.RestoreContact("k1", "Ada", "Lovelace", "ada@example.com", []string{"c1"}, now, now)
	alan := models.RestoreContact("k2", "Alan", "Turing", "alan@example.com", []string{"c1"}, now, now)

	return []ClientExport{
		{Client: acme, Contacts: []*models.Contact{ada, alan}},
		{Client: solo},
	}
}

func TestExporters(t *testing.T) {
	exports := fixtures()

	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(exports)
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		if len(lines) != 4 {
			t.Fatalf("expected header plus 3 rows, got %d: %q", len(lines), lines)
		}

		if lines[0] != "ClientID,ClientCode,ClientName,Saved,ContactID,ContactName,ContactSurname,ContactEmail" {
			t.Errorf("CSV missing headers, got: %s", lines[0])
		}
		if lines[1] != "c1,ACO001,Acme Corp,true,k1,Ada,Lovelace,ada@example.com" {
			t.Errorf("unexpected first row: %s", lines[1])
		}
		if lines[2] != "c1,ACO001,Acme Corp,true,k2,Alan,Turing,alan@example.com" {
			t.Errorf("unexpected second row: %s", lines[2])
		}
		if lines[3] != "c2,SLX002,Solo | Ltd,false,,,," {
			t.Errorf("client without contacts should have empty contact columns, got: %s", lines[3])
		}
	})

	t.Run("ExportToCSV empty", func(t *testing.T) {
		data, err := ExportToCSV(nil)
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}
		if strings.Count(string(data), "\n") != 1 {
			t.Errorf("expected only the header row, got %q", data)
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		data, err := ExportToMarkdown(exports[0])
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}

		output := string(data)
		for _, want := range []string{
			"# Acme Corp",
			"**Code**: ACO001",
			"**Saved**: yes",
			"**Contacts**: 2",
			"1. Ada Lovelace <ada@example.com>",
			"2. Alan Turing <alan@example.com>",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("Markdown missing %q, got:\n%s", want, output)
			}
		}

		t.Run("without contacts", func(t *testing.T) {
			data, _ := ExportToMarkdown(exports[1])
			if !strings.Contains(string(data), "_No contacts linked._") {
				t.Errorf("expected placeholder for empty contacts, got:\n%s", data)
			}
		})
	})

	t.Run("ExportIndexMarkdown", func(t *testing.T) {
		output := string(ExportIndexMarkdown(exports))

		if !strings.Contains(output, "**Total**: 2") {
			t.Errorf("index missing total, got:\n%s", output)
		}
		if !strings.Contains(output, "| [ACO001](ACO001.md) | Acme Corp | yes | 2 |") {
			t.Errorf("index missing Acme row, got:\n%s", output)
		}
		if !strings.Contains(output, `Solo \| Ltd`) {
			t.Errorf("pipes in names should be escaped, got:\n%s", output)
		}
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(exports)
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		output := string(data)
		for _, want := range []string{
			"Clients: 2",
			"ACO001 - Acme Corp (saved)",
			"  1. Ada Lovelace <ada@example.com>",
			"SLX002 - Solo | Ltd\n",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("text missing %q, got:\n%s", want, output)
			}
		}
	})

	t.Run("ExportToJSON", func(t *testing.T) {
		data, err := ExportToJSON(exports)
		if err != nil {
			t.Fatalf("ExportToJSON failed: %v", err)
		}

		var decoded []struct {
			Client struct {
				ID         string   `json:"id"`
				ClientCode string   `json:"clientCode"`
				Contacts   []string `json:"contacts"`
			} `json:"client"`
			Contacts []struct {
				Email string `json:"email"`
			} `json:"contacts"`
		}
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("ExportToJSON produced invalid JSON: %v", err)
		}

		if len(decoded) != 2 {
			t.Fatalf("expected 2 entries, got %d", len(decoded))
		}
		if decoded[0].Client.ClientCode != "ACO001" || len(decoded[0].Contacts) != 2 {
			t.Errorf("unexpected first entry: %+v", decoded[0])
		}
		if decoded[1].Contacts == nil {
			t.Error("client without contacts should export an empty array, not null")
		}
		if !strings.Contains(string(data), `"contacts": []`) {
			t.Errorf("expected empty contacts array in output, got:\n%s", data)
		}
	})
}

func TestWriters(t *testing.T) {
	exports := fixtures()

	t.Run("WriteCSVExport", func(t *testing.T) {
		t.Run("WithDefaultPath", func(t *testing.T) {
			tempDir := t.TempDir()
			originalDir := th.MustGetwd(t)
			th.MustChdir(t, tempDir)
			defer th.MustChdir(t, originalDir)

			path, err := WriteCSVExport(exports, "")
			if err != nil {
				t.Fatalf("WriteCSVExport failed: %v", err)
			}
			if path != "clients.csv" {
				t.Errorf("Expected 'clients.csv', got '%s'", path)
			}

			th.AssertFileExists(t, path)
			if !strings.Contains(th.MustReadFile(t, path), "ACO001") {
				t.Error("CSV missing client data")
			}
		})

		t.Run("WithCustomPath", func(t *testing.T) {
			base := filepath.Join(t.TempDir(), "custom_export")

			path, err := WriteCSVExport(exports, base)
			if err != nil {
				t.Fatalf("WriteCSVExport failed: %v", err)
			}
			if path != base+".csv" {
				t.Errorf("Expected '%s.csv', got '%s'", base, path)
			}
			th.AssertFileExists(t, path)
		})

		t.Run("KeepsExistingExtension", func(t *testing.T) {
			base := filepath.Join(t.TempDir(), "out.csv")

			path, err := WriteCSVExport(exports, base)
			if err != nil {
				t.Fatalf("WriteCSVExport failed: %v", err)
			}
			if path != base {
				t.Errorf("Expected '%s', got '%s'", base, path)
			}
		})
	})

	t.Run("WriteMarkdownExport", func(t *testing.T) {
		t.Run("WithDefaultDirectory", func(t *testing.T) {
			tempDir := t.TempDir()
			originalDir := th.MustGetwd(t)
			th.MustChdir(t, tempDir)
			defer th.MustChdir(t, originalDir)

			result, err := WriteMarkdownExport(exports, "")
			if err != nil {
				t.Fatalf("WriteMarkdownExport failed: %v", err)
			}

			if result.Directory != "clients" {
				t.Errorf("Expected directory 'clients', got '%s'", result.Directory)
			}
			th.AssertDirExists(t, result.Directory)
			th.AssertFileExists(t, filepath.Join("clients", "README.md"))
			th.AssertFileExists(t, filepath.Join("clients", "ACO001.md"))
			th.AssertFileExists(t, filepath.Join("clients", "SLX002.md"))

			if len(result.Files) != 3 {
				t.Errorf("Expected 3 files, got %d", len(result.Files))
			}
		})

		t.Run("WithCustomDirectory", func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "nested", "export")

			result, err := WriteMarkdownExport(exports, dir)
			if err != nil {
				t.Fatalf("WriteMarkdownExport failed: %v", err)
			}

			th.AssertDirExists(t, dir)
			index := th.MustReadFile(t, result.Index)
			if !strings.Contains(index, "# Clients") {
				t.Errorf("index missing title, got:\n%s", index)
			}
		})
	})

	t.Run("WriteTextExport", func(t *testing.T) {
		base := filepath.Join(t.TempDir(), "clients")

		path, err := WriteTextExport(exports, base)
		if err != nil {
			t.Fatalf("WriteTextExport failed: %v", err)
		}
		if path != base+".txt" {
			t.Errorf("Expected '%s.txt', got '%s'", base, path)
		}
		if !strings.Contains(th.MustReadFile(t, path), "Clients: 2") {
			t.Error("text export missing header")
		}
	})

	t.Run("WriteJSONExport", func(t *testing.T) {
		base := filepath.Join(t.TempDir(), "clients")

		path, err := WriteJSONExport(exports, base)
		if err != nil {
			t.Fatalf("WriteJSONExport failed: %v", err)
		}
		th.AssertFileExists(t, path)
	})

	t.Run("Write", func(t *testing.T) {
		tests := []struct {
			format string
			want   string
		}{
			{"csv", "out.csv"},
			{"CSV", "out.csv"},
			{"txt", "out.txt"},
			{"text", "out.txt"},
			{"json", "out.json"},
			{"md", "out"},
			{"markdown", "out"},
		}

		for _, tt := range tests {
			t.Run(tt.format, func(t *testing.T) {
				dir := t.TempDir()

				path, err := Write(tt.format, exports, filepath.Join(dir, "out"))
				if err != nil {
					t.Fatalf("Write(%q) failed: %v", tt.format, err)
				}
				if path != filepath.Join(dir, tt.want) {
					t.Errorf("Write(%q) = %s, want %s", tt.format, path, filepath.Join(dir, tt.want))
				}
			})
		}

		t.Run("unsupported format", func(t *testing.T) {
			if _, err := Write("xml", exports, filepath.Join(t.TempDir(), "out")); err == nil {
				t.Error("expected error for unsupported format")
			}
		})
	})

	t.Run("WriteToMissingDirectory", func(t *testing.T) {
		base := filepath.Join(t.TempDir(), "missing", "clients")
		if _, err := WriteCSVExport(exports, base); err == nil {
			t.Error("expected error writing into a missing directory")
		}
	})
}
