// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package schema

// DefaultCaseType is applied when a record carries no case type.
const DefaultCaseType = "Personal Injury"

// CaseTypeOptions is the canonical case-type list in display order.
var CaseTypeOptions = []string{
	"Personal Injury",
	"MVA",
	"Wrongful Death",
	"Catastrophic Injury",
	"Medical Malpractice",
	"Divorce",
	"Environmental",
	"Other",
}

// CaseTypeColors maps each canonical case type to its dashboard accent
// color. Types outside the map fall back to the "Other" color.
var CaseTypeColors = map[string]string{
	"Personal Injury":     "#8fd4ff",
	"MVA":                 "#b49cff",
	"Wrongful Death":      "#ff6666",
	"Catastrophic Injury": "#ff9c4d",
	"Medical Malpractice": "#ff3030",
	"Divorce":             "#ffe066",
	"Environmental":       "#66f7b2",
	"Other":               "#a0a8b8",
}

// caseTypeAliases folds retired practice-area labels into their canonical
// replacements. Unknown labels pass through unchanged so historical data
// never fails validation.
var caseTypeAliases = map[string]string{
	"Family Law":       "Divorce",
	"Probate":          "Other",
	"Estate Planning":  "Other",
	"Business Law":     "Other",
	"Real Estate":      "Other",
	"Intentional Tort": "Other",
	"Criminal":         "Other",
	"Workers Comp":     "Personal Injury",
}

// NormalizeCaseType maps a stored case-type label to its canonical form.
func NormalizeCaseType(value string) string {
	if canonical, ok := caseTypeAliases[value]; ok {
		return canonical
	}
	return value
}

// CaseTypeColor returns the accent color for a case type, falling back to
// the "Other" color for unregistered types.
func CaseTypeColor(caseType string) string {
	if color, ok := CaseTypeColors[caseType]; ok {
		return color
	}
	return CaseTypeColors["Other"]
}

// CaseTypeChoices returns the canonical options extended with any extra
// types already in use by the given records, preserving first-seen order
// for the extras. Pickers use this so legacy types stay selectable.
func CaseTypeChoices(records []CaseRecord) []string {
	choices := make([]string, len(CaseTypeOptions))
	copy(choices, CaseTypeOptions)
	seen := make(map[string]bool, len(choices))
	for _, c := range choices {
		seen[c] = true
	}
	for _, r := range records {
		if r.CaseType != "" && !seen[r.CaseType] {
			seen[r.CaseType] = true
			choices = append(choices, r.CaseType)
		}
	}
	return choices
}
