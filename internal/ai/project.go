package ai

import (
	"github.com/google/uuid"
)

// Identifiers are attached to every projected record so the caller can
// persist them against the right user and workbook location.
type Identifiers struct {
	UserID    uuid.UUID
	ChapterID *int
	SectionID *string
}

// ProjectedRecord is a persistence-ready map: the validated payload element's
// semantic fields plus identifying fields. Projection performs no persistence.
type ProjectedRecord map[string]any

// Project maps a validated structured result into caller-shaped records. It
// is pure and idempotent: no timestamps, ids or randomness are introduced, so
// projecting the same result twice yields identical records.
func Project(result *CompletionResult, ids Identifiers) []ProjectedRecord {
	if result == nil {
		return nil
	}
	out := make([]ProjectedRecord, 0, len(result.Items))
	for _, item := range result.Items {
		rec := ProjectedRecord{}
		if obj, ok := item.(map[string]any); ok {
			for k, v := range obj {
				rec[k] = v
			}
		} else {
			// Non-object elements (the template asks for objects, but the
			// contract only guarantees an array) are kept under "content".
			rec["content"] = item
		}
		// Identifying fields are attached without clobbering semantic fields
		// of the same name (recommendations items carry their own chapter_id).
		rec["user_id"] = ids.UserID.String()
		if ids.ChapterID != nil {
			if _, exists := rec["chapter_id"]; !exists {
				rec["chapter_id"] = *ids.ChapterID
			}
		}
		if ids.SectionID != nil {
			if _, exists := rec["section_id"]; !exists {
				rec["section_id"] = *ids.SectionID
			}
		}
		out = append(out, rec)
	}
	return out
}
