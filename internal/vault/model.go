// Package vault holds the in-memory vault model and the codec that turns it
// into an encrypted, self-authenticating file.
package vault

import (
	"context"
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

// FormatVersionV1 is the canonical payload encoding version.
const FormatVersionV1 = "1"

// Vault is the decrypted collection of records and tags. It is a plain
// value: mutation operations return a new Vault and never touch the
// receiver, so callers decide when and how updates become visible.
type Vault struct {
	FormatVersion string    `json:"formatVersion"`
	CreatedAt     time.Time `json:"createdAt"`
	ModifiedAt    time.Time `json:"modifiedAt"`
	Records       []Record  `json:"records"`
	Tags          []Tag     `json:"tags"`
}

// Record is one stored credential entry. Records reference tags by name, not
// id: tag objects carry presentation metadata centrally, but membership
// survives even when the tag registry is absent (vaults created before
// tagging existed).
type Record struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Login      string    `json:"login"`
	Secret     string    `json:"secret"`
	URL        string    `json:"url,omitempty"`
	Notes      string    `json:"notes,omitempty"`
	TagNames   []string  `json:"tagNames"`
	CreatedAt  time.Time `json:"createdAt"`
	ModifiedAt time.Time `json:"modifiedAt"`
}

// Tag names are unique within a vault, ignoring case and surrounding
// whitespace.
type Tag struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

var colorPattern = regexp.MustCompile(`^(#[0-9a-fA-F]{3}|#[0-9a-fA-F]{6}|[a-zA-Z]+)$`)

// New creates an empty vault.
func New() Vault {
	now := time.Now().UTC()

	return Vault{
		FormatVersion: FormatVersionV1,
		CreatedAt:     now,
		ModifiedAt:    now,
		Records:       []Record{},
		Tags:          []Tag{},
	}
}

func (r Record) Validate(ctx context.Context) error {
	return validation.ValidateStructWithContext(ctx, &r,
		validation.Field(&r.Title, validation.Required.Error(ErrTitleRequired.Error())),
		validation.Field(&r.Secret, validation.Required.Error(ErrSecretRequired.Error())),
	)
}

func (t Tag) Validate(ctx context.Context) error {
	return validation.ValidateStructWithContext(ctx, &t,
		validation.Field(&t.Name, validation.Required),
		validation.Field(&t.Color, validation.Required, validation.Match(colorPattern).Error("must be a hex or named color")),
	)
}

// canonicalName is the form under which tag names are compared: surrounding
// whitespace stripped, case folded.
func canonicalName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func clone(v Vault) Vault {
	out := v
	out.Records = make([]Record, len(v.Records))
	for i, r := range v.Records {
		out.Records[i] = r
		out.Records[i].TagNames = append([]string(nil), r.TagNames...)
	}
	out.Tags = append([]Tag(nil), v.Tags...)

	return out
}

// touch refreshes the vault-level modification timestamp. modifiedAt never
// moves backwards, even against a skewed clock.
func (v *Vault) touch() {
	now := time.Now().UTC()
	if now.Before(v.ModifiedAt) {
		now = v.ModifiedAt
	}
	v.ModifiedAt = now
}

func newID() string {
	return uuid.NewString()
}

// normalizeTagNames trims each name and drops duplicates, preserving the
// order of first appearance.
func normalizeTagNames(names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))

	for _, name := range names {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			continue
		}

		key := canonicalName(trimmed)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		out = append(out, trimmed)
	}

	return out
}

// mergeDuplicateTags resolves tags whose names collide case-insensitively,
// which can only occur in vaults written before names were normalized. The
// first occurrence wins and later entries are dropped; record memberships
// are by name, so they resolve to the surviving tag unchanged.
func mergeDuplicateTags(tags []Tag) []Tag {
	out := make([]Tag, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))

	for _, tag := range tags {
		key := canonicalName(tag.Name)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		out = append(out, tag)
	}

	return out
}

// normalize repairs a freshly decoded vault: nil slices become empty and
// duplicate tag names are merged.
func (v *Vault) normalize() {
	if v.Records == nil {
		v.Records = []Record{}
	}
	if v.Tags == nil {
		v.Tags = []Tag{}
	}

	for i := range v.Records {
		v.Records[i].TagNames = normalizeTagNames(v.Records[i].TagNames)
	}

	v.Tags = mergeDuplicateTags(v.Tags)
}
