package sanitize

import "strings"

// Relation is the structural relation between an incoming FQDN and a brand's
// canonical root domain.
type Relation string

const (
	RelationSame      Relation = "same"
	RelationSubdomain Relation = "subdomain"
	RelationUnrelated Relation = "unrelated"
)

// ClassifyRelation compares the incoming FQDN against the canonical root.
// The subdomain check is label-boundary aware: "santanderes.es" is not a
// subdomain of "santander.es".
func ClassifyRelation(root, incoming string) Relation {
	r := normalizeDomain(root)
	in := normalizeDomain(incoming)

	switch {
	case r == "" || in == "":
		return RelationUnrelated
	case in == r:
		return RelationSame
	case strings.HasSuffix(in, "."+r):
		return RelationSubdomain
	default:
		return RelationUnrelated
	}
}

func normalizeDomain(d string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(d)), ".")
}
