package app

import (
	"regexp"
	"strings"

	"github.com/yourusername/mediaget-go/internal/domain"
)

const (
	selectBest    = "best"
	selectDefault = "default"
	selectCroak   = "croak"
)

// SelectStream picks a stream of media.
//
// The selection is a comma separated list tried in order: "best" picks the
// highest bitrate, "default" the first stream, anything else is a regular
// expression matched against stream ids. When nothing matches the default
// stream is used, unless the list ends with "croak".
func SelectStream(media *domain.Media, selection string) (domain.StreamDescriptor, error) {
	def, ok := media.DefaultStream()
	if !ok {
		return domain.StreamDescriptor{}, domain.NewTransferError(domain.ReasonStreamSelect, nil,
			"no streams available")
	}

	selection = strings.TrimSpace(selection)
	if selection == "" {
		return def, nil
	}

	patterns := splitSelection(selection)
	croak := len(patterns) > 0 && patterns[len(patterns)-1] == selectCroak
	if croak {
		patterns = patterns[:len(patterns)-1]
	}

	for _, p := range patterns {
		switch p {
		case selectBest:
			return bestStream(media.Streams), nil
		case selectDefault:
			return def, nil
		}

		re, err := regexp.Compile(p)
		if err != nil {
			return domain.StreamDescriptor{}, domain.NewTransferError(domain.ReasonStreamSelect, err,
				"invalid stream pattern `%s': %v", p, err)
		}
		ids := media.StreamIDs()
		for i, s := range media.Streams {
			if re.MatchString(ids[i]) {
				return s, nil
			}
		}
	}

	if croak {
		return domain.StreamDescriptor{}, domain.NewTransferError(domain.ReasonStreamSelect, nil,
			"no stream matched `%s' (available: %s)", selection, strings.Join(media.StreamIDs(), ", "))
	}
	return def, nil
}

func splitSelection(selection string) []string {
	var patterns []string
	for _, p := range strings.Split(selection, ",") {
		if p = strings.TrimSpace(p); p != "" {
			patterns = append(patterns, p)
		}
	}
	return patterns
}

// bestStream returns the first stream with the highest bitrate
func bestStream(streams []domain.StreamDescriptor) domain.StreamDescriptor {
	best := streams[0]
	for _, s := range streams[1:] {
		if s.Bitrate > best.Bitrate {
			best = s
		}
	}
	return best
}
