package provider

import (
	"sync"

	"indexstoredb/internal/model"
	"indexstoredb/internal/rawreader"
)

// StoreSymbolRecord is the lazy concrete provider over one record file from
// the raw index store (spec 4.4). It is identified by the raw record name
// and is flagged isSystem based on the owning unit. The record file is read
// through the external rawreader.Reader only on first iteration; the
// resulting records are cached for the lifetime of this value so repeated
// Foreach* calls during one import don't re-read the file.
type StoreSymbolRecord struct {
	reader     rawreader.Reader
	recordName string
	isSystem   bool

	once    sync.Once
	loadErr error
	records []rawreader.Record
}

// NewStoreSymbolRecord creates a lazy provider over recordName, to be read
// through reader when first iterated. isSystem reflects the owning unit's
// system-ness (spec 4.4).
func NewStoreSymbolRecord(reader rawreader.Reader, recordName string, isSystem bool) *StoreSymbolRecord {
	return &StoreSymbolRecord{reader: reader, recordName: recordName, isSystem: isSystem}
}

var _ Provider = (*StoreSymbolRecord)(nil)

func (p *StoreSymbolRecord) Identifier() string { return p.recordName }
func (p *StoreSymbolRecord) IsSystem() bool     { return p.isSystem }

func (p *StoreSymbolRecord) load() error {
	p.once.Do(func() {
		p.loadErr = p.reader.ReadRecord(p.recordName, func(rec rawreader.Record) bool {
			p.records = append(p.records, rec)
			return true
		})
	})
	return p.loadErr
}

func (p *StoreSymbolRecord) ForeachCoreSymbolData(visit func(rawreader.CoreSymbolDatum) VisitResult) error {
	if err := p.load(); err != nil {
		return err
	}
	for _, rec := range p.records {
		if visit(rec.CoreSymbolDatum) == Stop {
			break
		}
	}
	return nil
}

func (p *StoreSymbolRecord) ForeachSymbolOccurrence(visit func(model.Occurrence) VisitResult) error {
	if err := p.load(); err != nil {
		return err
	}
	for _, rec := range p.records {
		for _, occ := range rec.Occurrences {
			if visit(occ) == Stop {
				return nil
			}
		}
	}
	return nil
}

func (p *StoreSymbolRecord) ForeachSymbolOccurrenceByUSR(usrs map[string]struct{}, roleSet model.RoleSet, visit func(model.Occurrence) VisitResult) error {
	if err := p.load(); err != nil {
		return err
	}
	for _, rec := range p.records {
		for _, occ := range rec.Occurrences {
			if _, ok := usrs[occ.Symbol.USR]; !ok {
				continue
			}
			if !occ.Roles.HasAny(roleSet) {
				continue
			}
			if visit(occ) == Stop {
				return nil
			}
		}
	}
	return nil
}

func (p *StoreSymbolRecord) ForeachRelatedSymbolOccurrenceByUSR(usrs map[string]struct{}, roleSet model.RoleSet, visit func(model.Occurrence) VisitResult) error {
	if err := p.load(); err != nil {
		return err
	}
	for _, rec := range p.records {
		for _, occ := range rec.Occurrences {
			for _, rel := range occ.Relations {
				if _, ok := usrs[rel.Symbol.USR]; !ok {
					continue
				}
				if !rel.Roles.HasAny(roleSet) {
					continue
				}
				if visit(occ) == Stop {
					return nil
				}
				break
			}
		}
	}
	return nil
}

func (p *StoreSymbolRecord) ForeachUnitTestSymbolOccurrence(visit func(model.Occurrence) VisitResult) error {
	if err := p.load(); err != nil {
		return err
	}
	for _, rec := range p.records {
		if !rec.Info.Properties.Has(model.PropertySet(model.PropertyUnitTest)) {
			continue
		}
		for _, occ := range rec.Occurrences {
			if visit(occ) == Stop {
				return nil
			}
		}
	}
	return nil
}
