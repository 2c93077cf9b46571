package format

import (
	"encoding/xml"
	"strings"
	"testing"

	wasmcoverage "github.com/wippyai/wasm-coverage"
	"github.com/wippyai/wasm-coverage/cover"
)

func TestCobertura(t *testing.T) {
	out, err := Cobertura(testReport(t), Metadata{})
	if err != nil {
		t.Fatalf("Cobertura failed: %v", err)
	}

	if !strings.HasPrefix(out, xml.Header) {
		t.Error("output should start with the XML header")
	}

	var doc coberturaCoverage
	if err := xml.Unmarshal([]byte(strings.TrimPrefix(out, xml.Header)), &doc); err != nil {
		t.Fatalf("output is not valid XML: %v", err)
	}

	if doc.LinesValid != 4 {
		t.Errorf("lines-valid = %d, want 4", doc.LinesValid)
	}
	if doc.LinesCovered != 2 {
		t.Errorf("lines-covered = %d, want 2", doc.LinesCovered)
	}
	if doc.LineRate != 0.5 {
		t.Errorf("line-rate = %v, want 0.5", doc.LineRate)
	}
	if len(doc.Packages) != 1 || len(doc.Packages[0].Classes) != 1 {
		t.Fatalf("expected one package with one synthetic class, got %+v", doc.Packages)
	}

	lines := doc.Packages[0].Classes[0].Lines
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d", len(lines))
	}
	if lines[2].Hits != 0 {
		t.Errorf("tainted block line hits = %d, want 0", lines[2].Hits)
	}
}

func TestCobertura_WithSourceMap(t *testing.T) {
	meta := Metadata{Sources: SourceMap{
		0: {File: "a.rs", StartLine: 10},
		1: {File: "b.rs", StartLine: 20},
		2: {File: "b.rs", StartLine: 21},
		3: {File: "b.rs", StartLine: 30},
	}}

	out, err := Cobertura(testReport(t), meta)
	if err != nil {
		t.Fatalf("Cobertura failed: %v", err)
	}

	var doc coberturaCoverage
	if err := xml.Unmarshal([]byte(strings.TrimPrefix(out, xml.Header)), &doc); err != nil {
		t.Fatalf("output is not valid XML: %v", err)
	}
	classes := doc.Packages[0].Classes
	if len(classes) != 2 {
		t.Fatalf("expected 2 classes, got %d", len(classes))
	}
	if classes[0].Filename != "a.rs" || classes[1].Filename != "b.rs" {
		t.Errorf("classes should be sorted by file: %+v", classes)
	}
	if classes[0].LineRate != 1.0 {
		t.Errorf("a.rs line-rate = %v, want 1.0", classes[0].LineRate)
	}
}

func TestHTML(t *testing.T) {
	out, err := HTML(testReport(t), Metadata{Sources: SourceMap{
		0: {File: "a.rs", StartLine: 10},
	}})
	if err != nil {
		t.Fatalf("HTML failed: %v", err)
	}

	for _, want := range []string{
		"<!DOCTYPE html>",
		"a.rs:10",
		`class="tainted"`,
		`class="covered"`,
		`class="uncovered"`,
		"50.0%",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("HTML output missing %q", want)
		}
	}
	if strings.Contains(out, "incomplete run") {
		t.Error("complete report should not carry the incomplete marker")
	}
}

func TestHTML_IncompleteMarker(t *testing.T) {
	r := cover.NewReport(2, []uint64{1, 0}, nil, false, wasmcoverage.GranularityBlock)

	out, err := HTML(r, Metadata{})
	if err != nil {
		t.Fatalf("HTML failed: %v", err)
	}
	if !strings.Contains(out, "incomplete run") {
		t.Error("incomplete report should carry the incomplete marker")
	}
}

func TestTerminalSummary(t *testing.T) {
	out := TerminalSummary(testReport(t))

	for _, want := range []string{"coverage", "50.0%", "2/4 blocks", "1 tainted"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}
