package catalog

import (
	"fmt"
	"log/slog"
)

// Builder collects field definitions and compiles them into a Catalog.
//
// Registering a name twice replaces the earlier definition: the last
// registration wins and keeps the position of the first one. The collision is
// logged as a warning rather than rejected, since report styles routinely
// label the same analyte in more than one way.
type Builder struct {
	logger  *slog.Logger
	specs   []FieldSpec
	index   map[string]int
	aliases []AliasRule
}

// NewBuilder returns an empty Builder. A nil logger uses slog.Default().
func NewBuilder(logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{logger: logger, index: make(map[string]int)}
}

// Add registers a field definition.
func (b *Builder) Add(spec FieldSpec) *Builder {
	if i, ok := b.index[spec.Name]; ok {
		b.logger.Warn("duplicate catalogue field, last registration wins",
			"field", spec.Name,
			"previous_labels", b.specs[i].Labels,
			"labels", spec.Labels,
		)
		b.specs[i] = spec
		return b
	}
	b.index[spec.Name] = len(b.specs)
	b.specs = append(b.specs, spec)
	return b
}

// Alias registers extra output keys for a canonical field. Rules added here
// are applied after the aliases declared on the field specs themselves.
func (b *Builder) Alias(field string, keys ...string) *Builder {
	b.aliases = append(b.aliases, AliasRule{Field: field, Keys: keys})
	return b
}

// Build compiles every registered field and validates alias rules.
func (b *Builder) Build() (*Catalog, error) {
	c := &Catalog{fields: make([]*Field, 0, len(b.specs))}
	names := make(map[string]bool, len(b.specs))

	for _, spec := range b.specs {
		f, err := compile(spec)
		if err != nil {
			return nil, err
		}
		c.fields = append(c.fields, f)
		names[spec.Name] = true
	}

	var rules []AliasRule
	for _, spec := range b.specs {
		if len(spec.Aliases) > 0 {
			rules = append(rules, AliasRule{Field: spec.Name, Keys: append([]string(nil), spec.Aliases...)})
		}
	}
	rules = append(rules, b.aliases...)

	seen := make(map[string]string)
	for _, r := range rules {
		if !names[r.Field] {
			return nil, fmt.Errorf("%w: alias for unknown field %q", ErrInvalidCatalog, r.Field)
		}
		if len(r.Keys) == 0 {
			return nil, fmt.Errorf("%w: alias for %q has no keys", ErrInvalidCatalog, r.Field)
		}
		for _, k := range r.Keys {
			switch {
			case k == "":
				return nil, fmt.Errorf("%w: empty alias key for %q", ErrInvalidCatalog, r.Field)
			case names[k]:
				return nil, fmt.Errorf("%w: alias key %q shadows a canonical field", ErrInvalidCatalog, k)
			case seen[k] != "":
				return nil, fmt.Errorf("%w: alias key %q used by both %q and %q", ErrInvalidCatalog, k, seen[k], r.Field)
			}
			seen[k] = r.Field
		}
		c.aliases = append(c.aliases, AliasRule{Field: r.Field, Keys: append([]string(nil), r.Keys...)})
	}

	b.logger.Debug("catalogue built", "fields", len(c.fields), "alias_rules", len(c.aliases))
	return c, nil
}
