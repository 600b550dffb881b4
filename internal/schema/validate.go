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

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var recordValidate *validator.Validate

func init() {
	recordValidate = validator.New()
	recordValidate.RegisterTagNameFunc(jsonFieldName)
	_ = recordValidate.RegisterValidation("duedate", validateDueDate)
}

// jsonFieldName reports validation failures under the wire name rather than
// the Go field name.
func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	return name
}

func validateDueDate(fl validator.FieldLevel) bool {
	_, err := time.Parse(dueDateLayout, fl.Field().String())
	return err == nil
}

// CleanText collapses internal whitespace runs to single spaces and trims
// the result.
func CleanText(value string) string {
	return strings.Join(strings.Fields(value), " ")
}

// CleanTextMax cleans value and caps it at max runes.
func CleanTextMax(value string, max int) string {
	cleaned := CleanText(value)
	if runes := []rune(cleaned); len(runes) > max {
		return string(runes[:max])
	}
	return cleaned
}

// ValidateRecord cleans and validates a single record, returning the
// normalized copy. The input is never mutated. Failures are reported as a
// *ValidationError naming the offending field.
//
// Cleaning applies the same pipeline to every free-text field: whitespace
// runs collapse to single spaces, the result is trimmed, and the focus text
// is capped at MaxFocusLength runes. Empty case types, attention flags and
// statuses receive their defaults; anything else must belong to the closed
// sets.
func ValidateRecord(rec CaseRecord) (CaseRecord, error) {
	r := rec.Clone()

	r.CaseNumber = CleanText(r.CaseNumber)
	if r.CaseNumber == "" {
		return CaseRecord{}, newValidationError("case_number", "case number is required")
	}
	if strings.TrimSpace(r.ID) == "" {
		r.ID = uuid.NewString()
	} else {
		r.ID = strings.TrimSpace(r.ID)
	}

	r.CaseName = CleanText(r.CaseName)
	r.Stage = CleanText(r.Stage)
	r.Paralegal = CleanText(r.Paralegal)
	r.County = CleanText(r.County)
	r.Division = CleanText(r.Division)
	r.Judge = CleanText(r.Judge)
	r.OpposingCounsel = CleanText(r.OpposingCounsel)
	r.OpposingFirm = CleanText(r.OpposingFirm)
	r.CurrentTask = CleanTextMax(r.CurrentTask, MaxFocusLength)

	if caseType := CleanText(r.CaseType); caseType == "" {
		r.CaseType = DefaultCaseType
	} else {
		r.CaseType = NormalizeCaseType(caseType)
	}

	if strings.TrimSpace(r.Attention) == "" {
		r.Attention = AttentionWaiting
	}

	status := strings.ToLower(CleanText(r.Status))
	if status == "" {
		status = StatusOpen
	}
	if !validStatus(status) {
		return CaseRecord{}, newValidationError("status", "invalid status %q", status)
	}
	r.Status = status

	if r.NextDue != nil {
		nextDue := CleanText(*r.NextDue)
		if nextDue == "" {
			r.NextDue = nil
		} else {
			if _, err := time.Parse(dueDateLayout, nextDue); err != nil {
				return CaseRecord{}, newValidationError("next_due", "next_due must be YYYY-MM-DD")
			}
			r.NextDue = &nextDue
		}
	}

	if r.Deadlines == nil {
		r.Deadlines = []Deadline{}
	}
	for i := range r.Deadlines {
		r.Deadlines[i].Description = CleanText(r.Deadlines[i].Description)
		if time.Time(r.Deadlines[i].DueDate).IsZero() {
			return CaseRecord{}, newValidationError("due_date", "deadline due date is required")
		}
	}

	if err := recordValidate.Struct(r); err != nil {
		return CaseRecord{}, translateValidatorError(err)
	}
	return r, nil
}

func validStatus(status string) bool {
	for _, s := range StatusValues {
		if s == status {
			return true
		}
	}
	return false
}

func translateValidatorError(err error) error {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return newValidationError(fe.Field(), "failed %q constraint", fe.Tag())
	}
	return &ValidationError{Message: err.Error()}
}

// ValidateDocument cleans and validates a whole document: metadata defaults
// are applied and every record passes through ValidateRecord. Returns the
// normalized copy.
func ValidateDocument(doc CaseDocument) (CaseDocument, error) {
	d := doc.Clone()
	if d.SchemaVersion == 0 {
		d.SchemaVersion = CurrentSchemaVersion
	}
	if d.Version == 0 {
		d.Version = 1
	}
	if d.SavedAt.IsZero() {
		d.SavedAt = Now()
	}
	if d.Cases == nil {
		d.Cases = []CaseRecord{}
	}
	for i, rec := range d.Cases {
		validated, err := ValidateRecord(rec)
		if err != nil {
			return CaseDocument{}, fmt.Errorf("case %d: %w", i, err)
		}
		d.Cases[i] = validated
	}
	return d, nil
}

// RecordFromRaw decodes a raw JSON object into a validated record. Used by
// the migration engine to normalize individual legacy payloads.
func RecordFromRaw(raw map[string]any) (CaseRecord, error) {
	encoded, err := json.Marshal(raw)
	if err != nil {
		return CaseRecord{}, newValidationError("", "re-encode case payload: %v", err)
	}
	var rec CaseRecord
	if err := json.Unmarshal(encoded, &rec); err != nil {
		return CaseRecord{}, newValidationError("", "decode case payload: %v", err)
	}
	return ValidateRecord(rec)
}

// DocumentFromRaw decodes a raw JSON document into a validated
// CaseDocument.
func DocumentFromRaw(raw map[string]any) (CaseDocument, error) {
	encoded, err := json.Marshal(raw)
	if err != nil {
		return CaseDocument{}, newValidationError("", "re-encode document: %v", err)
	}
	var doc CaseDocument
	if err := json.Unmarshal(encoded, &doc); err != nil {
		return CaseDocument{}, newValidationError("", "decode document: %v", err)
	}
	return ValidateDocument(doc)
}
