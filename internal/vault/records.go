package vault

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// RecordUpdate carries a partial record change. Nil fields are left as they
// are; TagNames, when set, replaces the whole membership set.
type RecordUpdate struct {
	Title    *string
	Login    *string
	Secret   *string
	URL      *string
	Notes    *string
	TagNames *[]string
}

// AddRecord appends a record to the vault, assigning a fresh id and
// timestamps. The caller-supplied id, if any, is ignored: ids are generated
// here and immutable afterwards.
func (v Vault) AddRecord(ctx context.Context, record Record) (Vault, Record, error) {
	record.TagNames = normalizeTagNames(record.TagNames)

	if err := record.Validate(ctx); err != nil {
		return v, Record{}, fmt.Errorf("invalid record: %w", err)
	}

	now := time.Now().UTC()
	record.ID = newID()
	record.CreatedAt = now
	record.ModifiedAt = now

	out := clone(v)
	out.Records = append(out.Records, record)
	out.touch()

	return out, record, nil
}

// UpdateRecord applies a partial update to the record with the given id.
func (v Vault) UpdateRecord(ctx context.Context, id string, update RecordUpdate) (Vault, error) {
	idx := v.recordIndex(id)
	if idx < 0 {
		return v, fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}

	out := clone(v)
	record := &out.Records[idx]

	if update.Title != nil {
		record.Title = *update.Title
	}
	if update.Login != nil {
		record.Login = *update.Login
	}
	if update.Secret != nil {
		record.Secret = *update.Secret
	}
	if update.URL != nil {
		record.URL = *update.URL
	}
	if update.Notes != nil {
		record.Notes = *update.Notes
	}
	if update.TagNames != nil {
		record.TagNames = normalizeTagNames(*update.TagNames)
	}

	if err := record.Validate(ctx); err != nil {
		return v, fmt.Errorf("invalid record: %w", err)
	}

	record.ModifiedAt = time.Now().UTC()
	out.touch()

	return out, nil
}

// DeleteRecord removes the record with the given id.
func (v Vault) DeleteRecord(ctx context.Context, id string) (Vault, error) {
	idx := v.recordIndex(id)
	if idx < 0 {
		return v, fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}

	out := clone(v)
	out.Records = append(out.Records[:idx], out.Records[idx+1:]...)
	out.touch()

	return out, nil
}

// FindRecord returns the record with the given id.
func (v Vault) FindRecord(id string) (Record, error) {
	idx := v.recordIndex(id)
	if idx < 0 {
		return Record{}, fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}

	return v.Records[idx], nil
}

// SearchRecords returns the records whose title, login, url or any tag name
// contains the query, compared case-insensitively. Results preserve the
// vault's insertion order, they are not relevance-ranked. An empty query
// matches everything.
func (v Vault) SearchRecords(query string) []Record {
	needle := strings.ToLower(strings.TrimSpace(query))

	out := make([]Record, 0, len(v.Records))
	for _, record := range v.Records {
		if needle == "" || recordMatches(record, needle) {
			out = append(out, record)
		}
	}

	return out
}

func recordMatches(record Record, needle string) bool {
	if strings.Contains(strings.ToLower(record.Title), needle) ||
		strings.Contains(strings.ToLower(record.Login), needle) ||
		strings.Contains(strings.ToLower(record.URL), needle) {
		return true
	}

	for _, name := range record.TagNames {
		if strings.Contains(strings.ToLower(name), needle) {
			return true
		}
	}

	return false
}

func (v Vault) recordIndex(id string) int {
	for i, record := range v.Records {
		if record.ID == id {
			return i
		}
	}

	return -1
}
