package output

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/dshills/warndiff/internal/analyze"
)

// SARIFWriter outputs added diagnostics in SARIF v2.1.0 format.
type SARIFWriter struct{}

func (s *SARIFWriter) Write(w io.Writer, report *analyze.Report) error {
	sarif := buildSARIF(report)
	data, err := json.MarshalIndent(sarif, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling SARIF: %w", err)
	}
	_, err = w.Write(data)
	if err != nil {
		return fmt.Errorf("writing SARIF: %w", err)
	}
	_, err = fmt.Fprintln(w)
	return err
}

// SARIF schema types (v2.1.0)

type sarifLog struct {
	Version string     `json:"version"`
	Schema  string     `json:"$schema"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name           string      `json:"name"`
	Version        string      `json:"version"`
	InformationURI string      `json:"informationUri"`
	Rules          []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string             `json:"id"`
	Name             string             `json:"name"`
	ShortDescription sarifMessage       `json:"shortDescription"`
	DefaultConfig    sarifDefaultConfig `json:"defaultConfiguration"`
}

type sarifDefaultConfig struct {
	Level string `json:"level"`
}

type sarifResult struct {
	RuleID              string            `json:"ruleId"`
	Level               string            `json:"level"`
	Message             sarifMessage      `json:"message"`
	Locations           []sarifLocation   `json:"locations,omitempty"`
	PartialFingerprints map[string]string `json:"partialFingerprints"`
	Properties          sarifProperties   `json:"properties"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifProperties struct {
	Stage          string `json:"stage"`
	NormalizedText string `json:"normalizedText"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           *sarifRegion          `json:"region,omitempty"`
}

type sarifArtifactLocation struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine int `json:"startLine"`
}

func buildSARIF(report *analyze.Report) sarifLog {
	kinds := reportKinds(report)
	rules := make([]sarifRule, 0, len(kinds))
	for _, kind := range kinds {
		rules = append(rules, sarifRule{
			ID:               ruleID(kind),
			Name:             kind,
			ShortDescription: sarifMessage{Text: fmt.Sprintf("New compiler %s", strings.ToLower(kind))},
			DefaultConfig:    sarifDefaultConfig{Level: kindToLevel(kind)},
		})
	}

	results := []sarifResult{}
	for _, r := range report.Summary.ByStage {
		for _, d := range r.Added {
			result := sarifResult{
				RuleID:  ruleID(d.Kind),
				Level:   kindToLevel(d.Kind),
				Message: sarifMessage{Text: d.Original},
				PartialFingerprints: map[string]string{
					"normalizedText/v1": fingerprint(d.Stage, d.Text),
				},
				Properties: sarifProperties{Stage: d.Stage, NormalizedText: d.Text},
			}
			if d.FilePath != "" {
				loc := sarifLocation{
					PhysicalLocation: sarifPhysicalLocation{
						ArtifactLocation: sarifArtifactLocation{URI: strings.ReplaceAll(d.FilePath, `\`, "/")},
					},
				}
				if d.LineNumber > 0 {
					loc.PhysicalLocation.Region = &sarifRegion{StartLine: d.LineNumber}
				}
				result.Locations = append(result.Locations, loc)
			}
			results = append(results, result)
		}
	}

	return sarifLog{
		Version: "2.1.0",
		Schema:  "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/main/sarif-2.1/schema/sarif-schema-2.1.0.json",
		Runs: []sarifRun{
			{
				Tool: sarifTool{
					Driver: sarifDriver{
						Name:           report.Tool,
						Version:        report.Version,
						InformationURI: "https://github.com/dshills/warndiff",
						Rules:          rules,
					},
				},
				Results: results,
			},
		},
	}
}

// kindToLevel maps a diagnostic kind to a SARIF level.
func kindToLevel(kind string) string {
	switch strings.ToLower(kind) {
	case "error", "fatal":
		return "error"
	case "hint", "note", "info":
		return "note"
	default:
		return "warning"
	}
}

func ruleID(kind string) string {
	return "warndiff/" + strings.ToLower(kind)
}

// fingerprint is a stable hash of a diagnostic's stage and normalized text.
func fingerprint(stage, text string) string {
	h := sha256.Sum256([]byte(stage + "\x00" + text))
	return fmt.Sprintf("%x", h[:8])
}
