// Package knowledge holds the evaluation catalog: domains of criteria, each
// with the keywords that evidence it in a document.
package knowledge

import (
	"fmt"
	"strings"

	"evaluation-workers/internal/common/errors"
)

// CriterionID identifies a criterion by its position in the knowledge base.
// It is assigned by New and stays stable for the life of the knowledge base.
type CriterionID struct {
	Domain int
	Index  int
}

// String renders the 1-based "domain.criterion" form used in reports.
func (id CriterionID) String() string {
	return fmt.Sprintf("%d.%d", id.Domain+1, id.Index+1)
}

func (id CriterionID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

type Criterion struct {
	ID             CriterionID
	Key            string
	Name           string
	Keywords       []string
	Recommendation string
	Example        string
}

type Domain struct {
	Name     string
	Criteria []Criterion
}

// KnowledgeBase is immutable once built and safe for concurrent readers.
type KnowledgeBase struct {
	version string
	domains []Domain
	count   int
}

// New validates domains and returns a knowledge base holding its own copy of
// them. Criterion IDs in the input are ignored and reassigned.
func New(version string, domains []Domain) (*KnowledgeBase, error) {
	kb := &KnowledgeBase{
		version: version,
		domains: make([]Domain, len(domains)),
	}

	for di, d := range domains {
		if strings.TrimSpace(d.Name) == "" {
			return nil, errors.NewKnowledgeBaseInvalidError(fmt.Sprintf("domain %d has no name", di+1)).
				WithMetadata("domain", di+1)
		}

		criteria := make([]Criterion, len(d.Criteria))
		for ci, c := range d.Criteria {
			if err := validateCriterion(c); err != nil {
				return nil, errors.NewKnowledgeBaseInvalidError(
					fmt.Sprintf("domain %q criterion %d: %s", d.Name, ci+1, err),
				).WithMetadata("domain", di+1).WithMetadata("criterion", ci+1)
			}

			criteria[ci] = Criterion{
				ID:             CriterionID{Domain: di, Index: ci},
				Key:            c.Key,
				Name:           c.Name,
				Keywords:       append([]string(nil), c.Keywords...),
				Recommendation: c.Recommendation,
				Example:        c.Example,
			}
		}

		kb.domains[di] = Domain{Name: d.Name, Criteria: criteria}
		kb.count += len(criteria)
	}

	return kb, nil
}

func validateCriterion(c Criterion) error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("name is empty")
	}
	if len(c.Keywords) == 0 {
		return fmt.Errorf("no keywords")
	}
	for i, kw := range c.Keywords {
		if strings.TrimSpace(kw) == "" {
			return fmt.Errorf("keyword %d is blank", i+1)
		}
	}
	return nil
}

func (kb *KnowledgeBase) Version() string {
	return kb.version
}

// CriteriaCount is the number of records an evaluation will produce.
func (kb *KnowledgeBase) CriteriaCount() int {
	return kb.count
}

// DomainCount returns the number of domains, including empty ones.
func (kb *KnowledgeBase) DomainCount() int {
	return len(kb.domains)
}

// DomainNames lists domain names in presentation order.
func (kb *KnowledgeBase) DomainNames() []string {
	names := make([]string, len(kb.domains))
	for i, d := range kb.domains {
		names[i] = d.Name
	}
	return names
}

// Domains returns a deep copy in presentation order.
func (kb *KnowledgeBase) Domains() []Domain {
	out := make([]Domain, len(kb.domains))
	for i, d := range kb.domains {
		criteria := make([]Criterion, len(d.Criteria))
		for j, c := range d.Criteria {
			c.Keywords = append([]string(nil), c.Keywords...)
			criteria[j] = c
		}
		out[i] = Domain{Name: d.Name, Criteria: criteria}
	}
	return out
}

// Lookup returns the criterion with the given ID.
func (kb *KnowledgeBase) Lookup(id CriterionID) (Criterion, bool) {
	if id.Domain < 0 || id.Domain >= len(kb.domains) {
		return Criterion{}, false
	}
	criteria := kb.domains[id.Domain].Criteria
	if id.Index < 0 || id.Index >= len(criteria) {
		return Criterion{}, false
	}
	c := criteria[id.Index]
	c.Keywords = append([]string(nil), c.Keywords...)
	return c, true
}

// Walk visits every criterion in traversal order: domains in order, criteria
// in order within each domain. fn must not modify c.Keywords.
func (kb *KnowledgeBase) Walk(fn func(domain string, c Criterion)) {
	for _, d := range kb.domains {
		for _, c := range d.Criteria {
			fn(d.Name, c)
		}
	}
}
