package model

import "strings"

// HistoricalTagPrefix marks pre-1.0 tags that never enter the tag history
const HistoricalTagPrefix = "v0"

// TagRef is one line of the tag listing
type TagRef struct {
	Commit string // Commit hash the tag points to
	Name   string // Tag name, e.g. v1.50.114
}

// IsHistorical reports whether the tag is a pre-1.0 tag
func (t TagRef) IsHistorical() bool {
	return strings.HasPrefix(t.Name, HistoricalTagPrefix)
}

// TagRecord holds the metadata read from the repository at a tag
type TagRecord struct {
	Commit          string `json:"commit"`
	ChromeVersion   string `json:"chrome_version"`
	WidevineVersion string `json:"widevine_version"`
}

// TagStatus is the outcome of resolving metadata for one tag
type TagStatus string

const (
	TagResolved        TagStatus = "resolved"
	TagMissingMetadata TagStatus = "missing_metadata"
	TagInvalidMetadata TagStatus = "invalid_metadata"
)

// TagResolution is the result of reading metadata at one tag.
// Record is set only when Status is TagResolved, Err only when it is not.
type TagResolution struct {
	Tag    TagRef
	Status TagStatus
	Record *TagRecord
	Err    error
}

// TagRecords maps tag name to its record
type TagRecords = Index[*TagRecord]

// TagHistory is the output of the tag history reader
type TagHistory struct {
	Records *TagRecords
	Dropped []*TagResolution
}

// NewTagHistory creates an empty TagHistory
func NewTagHistory() *TagHistory {
	return &TagHistory{Records: NewIndex[*TagRecord]()}
}

// Add stores a resolution, keeping resolved tags and remembering dropped ones
func (h *TagHistory) Add(res *TagResolution) {
	if res.Status == TagResolved && res.Record != nil {
		h.Records.Set(res.Tag.Name, res.Record)
		return
	}
	h.Dropped = append(h.Dropped, res)
}
