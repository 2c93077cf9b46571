package format

import (
	"encoding/xml"

	wasmcoverage "github.com/wippyai/wasm-coverage"
	"github.com/wippyai/wasm-coverage/cover"
	"github.com/wippyai/wasm-coverage/errors"
)

type coberturaCoverage struct {
	XMLName      xml.Name           `xml:"coverage"`
	LineRate     float64            `xml:"line-rate,attr"`
	BranchRate   float64            `xml:"branch-rate,attr"`
	LinesValid   uint32             `xml:"lines-valid,attr"`
	LinesCovered uint32             `xml:"lines-covered,attr"`
	Version      string             `xml:"version,attr"`
	Timestamp    int64              `xml:"timestamp,attr"`
	Packages     []coberturaPackage `xml:"packages>package"`
}

type coberturaPackage struct {
	Name     string           `xml:"name,attr"`
	LineRate float64          `xml:"line-rate,attr"`
	Classes  []coberturaClass `xml:"classes>class"`
}

type coberturaClass struct {
	Name     string          `xml:"name,attr"`
	Filename string          `xml:"filename,attr"`
	LineRate float64         `xml:"line-rate,attr"`
	Lines    []coberturaLine `xml:"lines>line"`
}

type coberturaLine struct {
	Number uint32 `xml:"number,attr"`
	Hits   uint64 `xml:"hits,attr"`
}

// Cobertura renders the report as Cobertura XML. One class per source
// file, or a single synthetic class when no source map is present.
// Tainted blocks render as zero hits, same as LCOV.
func Cobertura(r *cover.Report, meta Metadata) (string, error) {
	s := r.Summary()
	doc := coberturaCoverage{
		LineRate:     s.Percent / 100.0,
		LinesValid:   s.TotalBlocks,
		LinesCovered: s.CoveredBlocks,
		Version:      "wasm-coverage",
		Timestamp:    r.CreatedAt.Unix(),
	}

	pkg := coberturaPackage{Name: "wasm", LineRate: s.Percent / 100.0}
	if len(meta.Sources) == 0 {
		ids := make([]wasmcoverage.BlockID, r.TotalBlocks)
		for i := range ids {
			ids[i] = wasmcoverage.BlockID(i)
		}
		pkg.Classes = append(pkg.Classes, coberturaClassFor(r, meta, syntheticFile, ids))
	} else {
		for _, file := range meta.Sources.Files() {
			pkg.Classes = append(pkg.Classes, coberturaClassFor(r, meta, file, meta.Sources.BlocksInFile(file)))
		}
	}
	doc.Packages = append(doc.Packages, pkg)

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", errors.New(errors.PhaseFormat, errors.KindIO).
			Detail("marshal cobertura xml").
			Cause(err).
			Build()
	}
	return xml.Header + string(out) + "\n", nil
}

func coberturaClassFor(r *cover.Report, meta Metadata, file string, blocks []wasmcoverage.BlockID) coberturaClass {
	cls := coberturaClass{Name: file, Filename: file}
	var covered int
	for _, id := range blocks {
		line := uint32(id) + 1
		if loc, ok := meta.Sources[id]; ok {
			line = loc.StartLine
		}
		hits := trustedHits(r, id)
		if hits > 0 {
			covered++
		}
		cls.Lines = append(cls.Lines, coberturaLine{Number: line, Hits: hits})
	}
	if len(blocks) > 0 {
		cls.LineRate = float64(covered) / float64(len(blocks))
	} else {
		cls.LineRate = 1.0
	}
	return cls
}
