package repair

import "github.com/leapstack-labs/siteaudit/pkg/region"

// Strategy rewrites one concern of a document. Apply returns the input
// slice itself and no details when it has nothing to change.
type Strategy interface {
	Name() string
	Apply(content []byte, r region.Region) ([]byte, []string, error)
}
