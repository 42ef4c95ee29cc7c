package knowledge

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"evaluation-workers/internal/common/errors"
	"evaluation-workers/internal/common/validation"
)

//go:embed catalog.schema.json
var catalogSchemaJSON string

//go:embed default.json
var defaultCatalog []byte

var catalogSchema = validation.MustCompile(catalogSchemaJSON)

// Catalog is the on-disk JSON form of a knowledge base.
type Catalog struct {
	Version string          `json:"version"`
	Domains []CatalogDomain `json:"domains"`
}

type CatalogDomain struct {
	Name     string             `json:"name"`
	Criteria []CatalogCriterion `json:"criteria"`
}

type CatalogCriterion struct {
	Key            string   `json:"key,omitempty"`
	Name           string   `json:"name"`
	Keywords       []string `json:"keywords"`
	Recommendation string   `json:"recommendation"`
	Example        string   `json:"example,omitempty"`
}

// Parse validates a JSON catalog against the catalog schema and builds a
// knowledge base from it.
func Parse(data []byte) (*KnowledgeBase, error) {
	result, err := catalogSchema.ValidateBytes(data)
	if err != nil {
		return nil, errors.NewKnowledgeBaseInvalidError(err.Error())
	}
	if !result.Valid {
		return nil, errors.NewKnowledgeBaseInvalidError(result.Error())
	}

	var cat Catalog
	if err := json.Unmarshal(data, &cat); err != nil {
		return nil, errors.NewKnowledgeBaseInvalidError(fmt.Sprintf("decode catalog: %v", err))
	}

	return New(cat.Version, cat.toDomains())
}

// LoadFile reads and parses a catalog file.
func LoadFile(path string) (*KnowledgeBase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewKnowledgeBaseLoadFailedError(path, err)
	}
	return Parse(data)
}

var (
	defaultOnce sync.Once
	defaultKB   *KnowledgeBase
)

// Default returns the built-in training-material catalog. It panics if the
// embedded catalog is invalid, which the package tests rule out.
func Default() *KnowledgeBase {
	defaultOnce.Do(func() {
		kb, err := Parse(defaultCatalog)
		if err != nil {
			panic(fmt.Sprintf("knowledge: embedded catalog: %v", err))
		}
		defaultKB = kb
	})
	return defaultKB
}

// ToCatalog converts a knowledge base back to its JSON form.
func ToCatalog(kb *KnowledgeBase) Catalog {
	cat := Catalog{Version: kb.Version()}
	for _, d := range kb.Domains() {
		cd := CatalogDomain{Name: d.Name, Criteria: make([]CatalogCriterion, 0, len(d.Criteria))}
		for _, c := range d.Criteria {
			cd.Criteria = append(cd.Criteria, CatalogCriterion{
				Key:            c.Key,
				Name:           c.Name,
				Keywords:       c.Keywords,
				Recommendation: c.Recommendation,
				Example:        c.Example,
			})
		}
		cat.Domains = append(cat.Domains, cd)
	}
	return cat
}

func (c Catalog) toDomains() []Domain {
	domains := make([]Domain, 0, len(c.Domains))
	for _, d := range c.Domains {
		criteria := make([]Criterion, 0, len(d.Criteria))
		for _, cc := range d.Criteria {
			criteria = append(criteria, Criterion{
				Key:            cc.Key,
				Name:           cc.Name,
				Keywords:       cc.Keywords,
				Recommendation: cc.Recommendation,
				Example:        cc.Example,
			})
		}
		domains = append(domains, Domain{Name: d.Name, Criteria: criteria})
	}
	return domains
}
