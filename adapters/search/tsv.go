package search

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ParseProfileTSV reads search output in the phyloprofile table format the
// fdog-style ortholog search emits:
//
//	geneID	ncbiID	orthoID	FAS_F	FAS_B
//
// where orthoID is "group|species|protein|flag" and a flag of "1" marks
// the reciprocal-best hit. refSpecies is the reference species the search
// ran against; the table itself does not carry it. Rows for reference
// proteins (species differing from the orthoID's query species column)
// are returned as-is; filtering against the core set happens in Normalize.
func ParseProfileTSV(r io.Reader, refSpecies string) ([]RawHit, error) {
	var raws []RawHit
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\n")
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if lineNo == 1 && strings.EqualFold(fields[0], "geneID") {
			continue // header
		}
		if len(fields) < 5 {
			return nil, fmt.Errorf("line %d: want at least 5 tab-separated fields, got %d", lineNo, len(fields))
		}

		group := fields[0]
		orthoID := fields[2]
		idParts := strings.Split(orthoID, "|")
		if len(idParts) < 3 {
			return nil, fmt.Errorf("line %d: malformed orthoID %q", lineNo, orthoID)
		}
		querySpecies := idParts[1]
		proteinID := idParts[2]
		reciprocal := len(idParts) > 3 && idParts[3] == "1"

		fwd, err := strconv.ParseFloat(fields[3], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: parse FAS_F %q: %w", lineNo, fields[3], err)
		}
		rev, err := strconv.ParseFloat(fields[4], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: parse FAS_B %q: %w", lineNo, fields[4], err)
		}

		raw := RawHit{
			Group:          group,
			QuerySpecies:   querySpecies,
			ProteinID:      proteinID,
			RefSpecies:     refSpecies,
			FASForward:     &fwd,
			FASReverse:     &rev,
			ReciprocalBest: reciprocal,
		}
		// Optional sixth column: sequence similarity.
		if len(fields) > 5 && fields[5] != "" && fields[5] != "NA" {
			sim, err := strconv.ParseFloat(fields[5], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: parse similarity %q: %w", lineNo, fields[5], err)
			}
			raw.SeqSim = &sim
		}
		raws = append(raws, raw)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read profile table: %w", err)
	}
	return raws, nil
}
