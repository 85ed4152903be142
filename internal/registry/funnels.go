// Package registry holds the funnel definitions and conversion event names
// the engine evaluates: built-in defaults plus YAML or JSON registry files.
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/funnel-cli/internal/model"
)

// DefaultFunnels returns the built-in funnel definitions.
func DefaultFunnels() []model.FunnelDefinition {
	return []model.FunnelDefinition{
		{Name: "user_registration", Steps: []string{"page_view", "sign_up", "login"}},
		{Name: "purchase_funnel", Steps: []string{"page_view", "view_item", "add_to_cart", "begin_checkout", "purchase"}},
		{Name: "engagement_funnel", Steps: []string{"page_view", "view_item", "search", "view_item_list"}},
		{Name: "checkout_funnel", Steps: []string{"add_to_cart", "begin_checkout", "add_payment_info", "purchase"}},
	}
}

// DefaultConversionEvents returns the event names counted as conversions.
func DefaultConversionEvents() []string {
	return []string{"sign_up", "login", "purchase", "begin_checkout", "add_to_cart", "add_payment_info", "subscribe"}
}

// File is the on-disk registry format.
type File struct {
	Funnels          []model.FunnelDefinition `json:"funnels" yaml:"funnels"`
	ConversionEvents []string                 `json:"conversion_events,omitempty" yaml:"conversion_events,omitempty"`
}

// LoadFile reads a registry file. The format follows the extension:
// .json is JSON, anything else is parsed as YAML.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "registry: read funnels file")
	}

	var f File
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &f)
	default:
		err = yaml.Unmarshal(data, &f)
	}
	if err != nil {
		return nil, eris.Wrap(err, "registry: unmarshal funnels file")
	}

	if err := Validate(f.Funnels); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks every definition and rejects duplicate or empty names.
func Validate(defs []model.FunnelDefinition) error {
	if len(defs) == 0 {
		return model.NewConfigError("funnels", "no funnel definitions")
	}
	seen := make(map[string]struct{}, len(defs))
	for i, d := range defs {
		if d.Name == "" {
			return model.NewConfigError("funnels", fmt.Sprintf("funnel %d has no name", i))
		}
		if _, dup := seen[d.Name]; dup {
			return model.NewConfigError("funnels", fmt.Sprintf("funnel %q defined more than once", d.Name))
		}
		seen[d.Name] = struct{}{}
		if err := d.Validate(); err != nil {
			return model.NewConfigError("funnels", fmt.Sprintf("%s: %v", d.Name, err))
		}
	}
	return nil
}

// Resolve returns the funnels and conversion events to run with: the file's
// when path is set, the built-ins otherwise. fallback replaces the built-in
// conversion events, and is used when the file lists none.
func Resolve(path string, fallback []string) ([]model.FunnelDefinition, []string, error) {
	events := fallback
	if len(events) == 0 {
		events = DefaultConversionEvents()
	}
	if path == "" {
		return DefaultFunnels(), events, nil
	}
	f, err := LoadFile(path)
	if err != nil {
		return nil, nil, err
	}
	if len(f.ConversionEvents) > 0 {
		events = f.ConversionEvents
	}
	return f.Funnels, events, nil
}
