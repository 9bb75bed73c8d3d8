// Package dependencies provides centralized checking and messaging
// for optional dependencies: currently Ollama, the sole transport
// the collaborator implementations (E1-E4) reach for.
package dependencies

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/mattsonlyattack/cons/pkg/config"
)

// Status represents the status of an optional dependency.
type Status string

const (
	StatusAvailable   Status = "available"
	StatusUnavailable Status = "unavailable"
	StatusDisabled    Status = "disabled"
	StatusMissing     Status = "missing"
)

// DependencyInfo contains information about a dependency.
type DependencyInfo struct {
	Name         string
	Status       Status
	Version      string
	URL          string
	Message      string
	Models       []string // available models, for Ollama
	MissingItems []string // configured collaborator models that are missing
}

// CheckResult contains the results of checking all dependencies.
type CheckResult struct {
	Ollama DependencyInfo
}

// Check checks all optional dependencies and returns their status.
func Check(cfg *config.Config) *CheckResult {
	return &CheckResult{Ollama: checkOllama(cfg)}
}

// configuredModels returns every non-empty collaborator model name,
// deduplicated, in the stable order tagger/enhancer/hierarchy/answerer.
func configuredModels(cfg *config.Config) []string {
	var models []string
	for _, m := range []string{cfg.Ollama.TaggerModel, cfg.Ollama.EnhancerModel, cfg.Ollama.HierarchyModel, cfg.Ollama.AnswererModel} {
		if m == "" {
			continue
		}
		found := false
		for _, existing := range models {
			if existing == m {
				found = true
				break
			}
		}
		if !found {
			models = append(models, m)
		}
	}
	return models
}

func checkOllama(cfg *config.Config) DependencyInfo {
	info := DependencyInfo{
		Name: "Ollama",
		URL:  cfg.Ollama.BaseURL,
	}

	if !cfg.Ollama.Enabled {
		info.Status = StatusDisabled
		info.Message = "Ollama is disabled in configuration; enrichment and question answering are unavailable"
		return info
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client := &http.Client{Timeout: 5 * time.Second}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.Ollama.BaseURL+"/api/tags", nil)
	if err != nil {
		info.Status = StatusUnavailable
		info.Message = "Failed to create request"
		return info
	}

	resp, err := client.Do(req)
	if err != nil {
		info.Status = StatusMissing
		info.Message = "Ollama is not running or not installed"
		return info
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		info.Status = StatusUnavailable
		info.Message = fmt.Sprintf("Ollama returned status %d", resp.StatusCode)
		return info
	}

	var modelsResp struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&modelsResp); err != nil {
		info.Status = StatusAvailable
		info.Message = "Ollama is running but could not list models"
		return info
	}

	modelSet := make(map[string]bool)
	for _, m := range modelsResp.Models {
		info.Models = append(info.Models, m.Name)
		baseName := strings.Split(m.Name, ":")[0]
		modelSet[m.Name] = true
		modelSet[baseName] = true
	}

	for _, model := range configuredModels(cfg) {
		baseName := strings.Split(model, ":")[0]
		if !modelSet[model] && !modelSet[baseName] {
			info.MissingItems = append(info.MissingItems, model)
		}
	}

	if len(info.MissingItems) > 0 {
		info.Status = StatusAvailable
		info.Message = fmt.Sprintf("Ollama is running but missing configured models: %s", strings.Join(info.MissingItems, ", "))
	} else {
		info.Status = StatusAvailable
		info.Message = "Ollama is running with all configured models"
	}

	info.Version = getOllamaVersion(cfg.Ollama.BaseURL, client)

	return info
}

func getOllamaVersion(baseURL string, client *http.Client) string {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/version", nil)
	if err != nil {
		return ""
	}

	resp, err := client.Do(req)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()

	var versionResp struct {
		Version string `json:"version"`
	}
	if json.NewDecoder(resp.Body).Decode(&versionResp) == nil {
		return versionResp.Version
	}
	return ""
}

// EnrichmentAvailable reports whether Ollama is reachable with no
// missing configured models, i.e. whether Capture's enhance/tag steps
// and PopulateHierarchy/Ask have a chance of succeeding.
func (r *CheckResult) EnrichmentAvailable() bool {
	return r.Ollama.Status == StatusAvailable && len(r.Ollama.MissingItems) == 0
}

// FormatShortWarning formats a brief inline warning for non-doctor commands.
func FormatShortWarning(result *CheckResult) string {
	if result.Ollama.Status == StatusMissing || result.Ollama.Status == StatusUnavailable {
		return "[ollama unavailable: enrichment and ask disabled]"
	}
	if len(result.Ollama.MissingItems) > 0 {
		return fmt.Sprintf("[missing ollama models: %s]", strings.Join(result.Ollama.MissingItems, ", "))
	}
	return ""
}

// OllamaInstallInstructions contains Ollama-specific install steps.
type OllamaInstallInstructions struct {
	InstallSteps []string
	ModelSteps   []string
}

// GetInstallInstructions returns installation instructions when Ollama is
// missing or configured models aren't pulled yet.
func GetInstallInstructions(result *CheckResult, cfg *config.Config) *OllamaInstallInstructions {
	if result.Ollama.Status != StatusMissing && result.Ollama.Status != StatusUnavailable && len(result.Ollama.MissingItems) == 0 {
		return nil
	}

	instr := &OllamaInstallInstructions{}

	if result.Ollama.Status == StatusMissing || result.Ollama.Status == StatusUnavailable {
		switch runtime.GOOS {
		case "darwin":
			instr.InstallSteps = []string{
				"1. Install Ollama:",
				"   brew install ollama",
				"   OR download from: https://ollama.ai/download",
				"",
				"2. Start Ollama:",
				"   ollama serve",
			}
		case "linux":
			instr.InstallSteps = []string{
				"1. Install Ollama:",
				"   curl -fsSL https://ollama.ai/install.sh | sh",
				"",
				"2. Start Ollama:",
				"   ollama serve",
				"   OR: systemctl start ollama",
			}
		case "windows":
			instr.InstallSteps = []string{
				"1. Install Ollama:",
				"   Download from: https://ollama.ai/download/windows",
				"   OR: winget install Ollama.Ollama",
				"",
				"2. Start Ollama:",
				"   Ollama runs automatically after installation",
			}
		default:
			instr.InstallSteps = []string{
				"1. Install Ollama from: https://ollama.ai",
				"2. Start Ollama: ollama serve",
			}
		}
	}

	models := configuredModels(cfg)
	if len(result.Ollama.MissingItems) > 0 || len(models) > 0 {
		instr.ModelSteps = []string{"3. Pull configured models:"}
		for _, model := range models {
			instr.ModelSteps = append(instr.ModelSteps, fmt.Sprintf("   ollama pull %s", model))
		}
	}

	return instr
}

// FormatDoctorReport formats a detailed doctor report covering Ollama
// reachability and the configured collaborator models.
func FormatDoctorReport(result *CheckResult, cfg *config.Config) string {
	var buf bytes.Buffer

	buf.WriteString("Ollama... ")
	switch result.Ollama.Status {
	case StatusAvailable:
		if len(result.Ollama.MissingItems) > 0 {
			buf.WriteString("PARTIAL\n")
		} else {
			buf.WriteString("OK\n")
		}
		buf.WriteString(fmt.Sprintf("  URL: %s\n", result.Ollama.URL))
		if result.Ollama.Version != "" {
			buf.WriteString(fmt.Sprintf("  Version: %s\n", result.Ollama.Version))
		}
		buf.WriteString(fmt.Sprintf("  Tagger Model: %s\n", orNone(cfg.Ollama.TaggerModel)))
		buf.WriteString(fmt.Sprintf("  Enhancer Model: %s\n", orNone(cfg.Ollama.EnhancerModel)))
		buf.WriteString(fmt.Sprintf("  Hierarchy Model: %s\n", orNone(cfg.Ollama.HierarchyModel)))
		buf.WriteString(fmt.Sprintf("  Answerer Model: %s\n", orNone(cfg.Ollama.AnswererModel)))
		if len(result.Ollama.MissingItems) > 0 {
			buf.WriteString(fmt.Sprintf("  Missing Models: %s\n", strings.Join(result.Ollama.MissingItems, ", ")))
		}
		if len(result.Ollama.Models) > 0 {
			buf.WriteString(fmt.Sprintf("  Available Models: %s\n", strings.Join(result.Ollama.Models, ", ")))
		}
	case StatusDisabled:
		buf.WriteString("DISABLED\n")
		buf.WriteString("  Enrichment and question answering are disabled in configuration.\n")
	case StatusMissing, StatusUnavailable:
		buf.WriteString("NOT AVAILABLE\n")
		buf.WriteString(fmt.Sprintf("  %s\n", result.Ollama.Message))
		buf.WriteString("  Notes will still be captured; enhancement, auto-tagging, hierarchy, and ask will be skipped.\n")
	}

	instructions := GetInstallInstructions(result, cfg)
	if instructions != nil && (len(instructions.InstallSteps) > 0 || len(instructions.ModelSteps) > 0) {
		buf.WriteString("\n")
		buf.WriteString("--------------------------------------------------------------\n")
		buf.WriteString("INSTALLATION INSTRUCTIONS\n")
		buf.WriteString("--------------------------------------------------------------\n")
		for _, step := range instructions.InstallSteps {
			buf.WriteString(step + "\n")
		}
		for _, step := range instructions.ModelSteps {
			buf.WriteString(step + "\n")
		}
	}

	return buf.String()
}

func orNone(s string) string {
	if s == "" {
		return "(none configured)"
	}
	return s
}
