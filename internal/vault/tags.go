package vault

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// AddTag registers a new tag. The name is stored trimmed; uniqueness is
// checked ignoring case and surrounding whitespace.
func (v Vault) AddTag(ctx context.Context, name string, color string) (Vault, Tag, error) {
	tag := Tag{
		ID:    newID(),
		Name:  strings.TrimSpace(name),
		Color: color,
	}

	if err := tag.Validate(ctx); err != nil {
		return v, Tag{}, fmt.Errorf("invalid tag: %w", err)
	}

	if v.tagIndex(tag.Name) >= 0 {
		return v, Tag{}, fmt.Errorf("%w: %s", ErrDuplicateTagName, tag.Name)
	}

	out := clone(v)
	out.Tags = append(out.Tags, tag)
	out.touch()

	return out, tag, nil
}

// RenameTag changes a tag's name and rewrites every record's membership as
// one logical update. A collision with another tag (case-insensitive) is
// rejected and leaves the vault untouched; renaming a tag to a cased variant
// of itself is allowed.
func (v Vault) RenameTag(ctx context.Context, oldName string, newName string) (Vault, error) {
	idx := v.tagIndex(oldName)
	if idx < 0 {
		return v, fmt.Errorf("%w: %s", ErrTagNotFound, oldName)
	}

	newName = strings.TrimSpace(newName)

	renamed := v.Tags[idx]
	renamed.Name = newName
	if err := renamed.Validate(ctx); err != nil {
		return v, fmt.Errorf("invalid tag: %w", err)
	}

	if other := v.tagIndex(newName); other >= 0 && other != idx {
		return v, fmt.Errorf("%w: %s", ErrDuplicateTagName, newName)
	}

	out := clone(v)
	out.Tags[idx] = renamed

	oldKey := canonicalName(oldName)
	now := time.Now().UTC()
	for i := range out.Records {
		record := &out.Records[i]
		changed := false

		for j, name := range record.TagNames {
			if canonicalName(name) == oldKey {
				record.TagNames[j] = newName
				changed = true
			}
		}

		if changed {
			record.ModifiedAt = now
		}
	}

	out.touch()

	return out, nil
}

// DeleteTag removes a tag and strips its name from every record's tag set.
// Records themselves are never deleted.
func (v Vault) DeleteTag(ctx context.Context, name string) (Vault, error) {
	idx := v.tagIndex(name)
	if idx < 0 {
		return v, fmt.Errorf("%w: %s", ErrTagNotFound, name)
	}

	out := clone(v)
	out.Tags = append(out.Tags[:idx], out.Tags[idx+1:]...)

	key := canonicalName(name)
	now := time.Now().UTC()
	for i := range out.Records {
		record := &out.Records[i]

		kept := record.TagNames[:0]
		changed := false
		for _, tagName := range record.TagNames {
			if canonicalName(tagName) == key {
				changed = true
				continue
			}
			kept = append(kept, tagName)
		}

		record.TagNames = kept
		if changed {
			record.ModifiedAt = now
		}
	}

	out.touch()

	return out, nil
}

// ReorderTags replaces the tag ordering. Order is persisted state, so the
// caller's arrangement (for example a drag-reorder) survives a round trip.
// The names must be a permutation of the current tag set.
func (v Vault) ReorderTags(ctx context.Context, names []string) (Vault, error) {
	if len(names) != len(v.Tags) {
		return v, fmt.Errorf("expected %d tag names, got %d", len(v.Tags), len(names))
	}

	out := clone(v)
	reordered := make([]Tag, 0, len(v.Tags))
	seen := make(map[string]struct{}, len(names))

	for _, name := range names {
		key := canonicalName(name)
		if _, ok := seen[key]; ok {
			return v, fmt.Errorf("%w: %s", ErrDuplicateTagName, name)
		}
		seen[key] = struct{}{}

		idx := v.tagIndex(name)
		if idx < 0 {
			return v, fmt.Errorf("%w: %s", ErrTagNotFound, name)
		}

		reordered = append(reordered, v.Tags[idx])
	}

	out.Tags = reordered
	out.touch()

	return out, nil
}

// FindTag returns the tag with the given name, compared case-insensitively.
func (v Vault) FindTag(name string) (Tag, error) {
	idx := v.tagIndex(name)
	if idx < 0 {
		return Tag{}, fmt.Errorf("%w: %s", ErrTagNotFound, name)
	}

	return v.Tags[idx], nil
}

func (v Vault) tagIndex(name string) int {
	key := canonicalName(name)
	for i, tag := range v.Tags {
		if canonicalName(tag.Name) == key {
			return i
		}
	}

	return -1
}
