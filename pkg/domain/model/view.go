package model

import (
	"net/url"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/portalos/pkg/domain/types"
)

var ErrInvalidViewSpec = goerr.New("invalid view spec")

// ViewSpec describes how one embedded sub-application is shown
type ViewSpec struct {
	ID          types.ViewID
	Label       string
	URL         string
	LoadingText string
	ErrorText   string
}

func (s ViewSpec) Validate() error {
	if !s.ID.IsValid() {
		return goerr.Wrap(ErrInvalidViewSpec, "unknown view", goerr.V(ViewKey, s.ID))
	}
	if s.Label == "" {
		return goerr.Wrap(ErrInvalidViewSpec, "label is empty", goerr.V(ViewKey, s.ID))
	}
	u, err := url.Parse(s.URL)
	if err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return goerr.Wrap(ErrInvalidViewSpec, "url must be absolute http(s)",
			goerr.V(ViewKey, s.ID), goerr.V("url", s.URL))
	}
	return nil
}

// ViewCatalog holds the definition of every view
type ViewCatalog struct {
	specs map[types.ViewID]ViewSpec
}

// NewViewCatalog builds a catalog. Every view in types.AllViews must be described exactly once.
func NewViewCatalog(specs ...ViewSpec) (*ViewCatalog, error) {
	c := &ViewCatalog{specs: make(map[types.ViewID]ViewSpec, len(specs))}
	for _, s := range specs {
		if err := s.Validate(); err != nil {
			return nil, err
		}
		if _, dup := c.specs[s.ID]; dup {
			return nil, goerr.Wrap(ErrInvalidViewSpec, "duplicated view", goerr.V(ViewKey, s.ID))
		}
		c.specs[s.ID] = s
	}
	for _, id := range types.AllViews() {
		if _, ok := c.specs[id]; !ok {
			return nil, goerr.Wrap(ErrInvalidViewSpec, "view is not described", goerr.V(ViewKey, id))
		}
	}
	return c, nil
}

// Get returns the definition of id. id must be valid.
func (c *ViewCatalog) Get(id types.ViewID) ViewSpec {
	return c.specs[id]
}

// List returns specs in tab order
func (c *ViewCatalog) List() []ViewSpec {
	result := make([]ViewSpec, 0, len(c.specs))
	for _, id := range types.AllViews() {
		result = append(result, c.specs[id])
	}
	return result
}
