package filter

import (
	"fmt"
	"strings"
)

// Parse builds a filter from team specs as given on the command line.
//
// Supported formats:
//   - "Boston" - either side
//   - "away:Boston" - away side only
//   - "home:Boston" - home side only
//   - "Boston, Denver" - several names in one value
//
// Returns an error for an unknown side prefix or an empty name.
func Parse(specs []string) (*Filter, error) {
	f := NewFilter()

	for _, spec := range specs {
		for _, part := range strings.Split(spec, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}

			side, name := "", part
			if i := strings.Index(part, ":"); i >= 0 {
				side = strings.ToLower(strings.TrimSpace(part[:i]))
				name = strings.TrimSpace(part[i+1:])
			}
			if name == "" {
				return nil, fmt.Errorf("empty team name in %q", part)
			}

			switch side {
			case "":
				f.Teams = append(f.Teams, name)
			case "away":
				f.Away = append(f.Away, name)
			case "home":
				f.Home = append(f.Home, name)
			default:
				return nil, fmt.Errorf("unknown side %q in %q (use away: or home:)", side, part)
			}
		}
	}

	return f, nil
}
