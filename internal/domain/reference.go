package domain

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// ValidateReference checks that a reference looks like an absolute http(s) URL
// and returns it with surrounding whitespace removed.
func ValidateReference(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("empty reference")
	}
	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("malformed reference %q: %w", ref, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("reference %q is not an http(s) URL", ref)
	}
	if u.Host == "" {
		return "", fmt.Errorf("reference %q has no host", ref)
	}
	return ref, nil
}

// ValidateReferences splits references into the valid ones (in order) and the
// rejected ones. The returned error aggregates every rejection and is nil when
// nothing was rejected.
func ValidateReferences(refs []string) (valid []string, rejected []string, err error) {
	var result error
	for _, ref := range refs {
		clean, verr := ValidateReference(ref)
		if verr != nil {
			rejected = append(rejected, ref)
			result = multierror.Append(result, verr)
			continue
		}
		valid = append(valid, clean)
	}
	return valid, rejected, result
}
