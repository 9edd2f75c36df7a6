package filter

import (
	"fmt"
	"strings"
)

// Spec is one entry of a filter chain description.
type Spec struct {
	Name     string
	Options  string
	Instance string
}

func (s Spec) String() string {
	out := s.Name
	if s.Instance != "" {
		out += "@" + s.Instance
	}
	if s.Options != "" {
		out += "=" + s.Options
	}
	return out
}

// ParseChain parses a comma separated chain such as
// "amix=inputs=2,volume@gain=0.5,aresample=16000". Each entry is
// name[@instance][=options].
func ParseChain(desc string) ([]Spec, error) {
	desc = strings.TrimSpace(desc)
	if desc == "" {
		return nil, nil
	}
	var specs []Spec
	for i, entry := range strings.Split(desc, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			return nil, fmt.Errorf("empty filter at position %d in %q", i, desc)
		}
		head, options, _ := strings.Cut(entry, "=")
		name, instance, _ := strings.Cut(head, "@")
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("missing filter name in %q", entry)
		}
		specs = append(specs, Spec{
			Name:     name,
			Options:  strings.TrimSpace(options),
			Instance: strings.TrimSpace(instance),
		})
	}
	return specs, nil
}
