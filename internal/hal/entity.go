package hal

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Well-known link relations.
const (
	RelSelf      = "self"
	RelCustomer  = "customer"
	RelTrainings = "trainings"
)

// Link is a single hypermedia link object.
type Link struct {
	Href      string `json:"href"`
	Templated bool   `json:"templated,omitempty"`
}

// URL returns the dereferenceable form of the link. Template variables of a
// templated link (for example "{?projection}") are dropped.
func (l Link) URL() string {
	if !l.Templated {
		return l.Href
	}
	if i := strings.IndexByte(l.Href, '{'); i >= 0 {
		return l.Href[:i]
	}
	return l.Href
}

// Links maps a relation name to its link.
type Links map[string]Link

// Entity is one resource document: its plain fields plus its _links.
type Entity struct {
	Fields map[string]json.RawMessage
	Links  Links
}

func (e *Entity) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if links, ok := raw["_links"]; ok {
		if err := json.Unmarshal(links, &e.Links); err != nil {
			return fmt.Errorf("decode _links: %w", err)
		}
		delete(raw, "_links")
	}
	// Nested embeds are not part of the entity's own fields.
	delete(raw, "_embedded")
	e.Fields = raw
	return nil
}

func (e Entity) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(e.Fields)+1)
	for k, v := range e.Fields {
		out[k] = v
	}
	if len(e.Links) > 0 {
		out["_links"] = e.Links
	}
	return json.Marshal(out)
}

// Link returns the URL of the named relation, or "" when absent.
func (e Entity) Link(rel string) string {
	l, ok := e.Links[rel]
	if !ok {
		return ""
	}
	return l.URL()
}

// Self returns the entity's canonical self-link.
func (e Entity) Self() string {
	return e.Link(RelSelf)
}

// Decode unmarshals the entity's fields into v.
func (e Entity) Decode(v any) error {
	data, err := json.Marshal(e.Fields)
	if err != nil {
		return fmt.Errorf("encode fields: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode fields: %w", err)
	}
	return nil
}

// Page is the paging block some collection resources carry.
type Page struct {
	Size          int `json:"size"`
	TotalElements int `json:"totalElements"`
	TotalPages    int `json:"totalPages"`
	Number        int `json:"number"`
}

// Collection is a hypermedia collection envelope. Items live under
// _embedded keyed by relation name.
type Collection struct {
	Embedded map[string][]Entity `json:"_embedded"`
	Links    Links               `json:"_links,omitempty"`
	Page     *Page               `json:"page,omitempty"`
}

// Items returns the embedded entities of the given relation. A collection
// without that relation yields nil.
func (c Collection) Items(rel string) []Entity {
	return c.Embedded[rel]
}
