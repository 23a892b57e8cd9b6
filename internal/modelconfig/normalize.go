package modelconfig

import "strings"

// Normalizer rewrites relative asset references into URLs under Origin.
type Normalizer struct {
	// Origin is the public base URL of the API, without a trailing slash.
	Origin string
}

// URL normalizes a single asset reference.
//
//	https://cdn/x.glb -> unchanged
//	/models/x.glb     -> Origin + "/models/x.glb"
//	models/x.glb      -> Origin + "/models/x.glb"
//	anything else     -> unchanged
func (n Normalizer) URL(v string) string {
	switch {
	case strings.HasPrefix(v, "http://"), strings.HasPrefix(v, "https://"):
		return v
	case strings.HasPrefix(v, "/models/"):
		return n.origin() + v
	case strings.HasPrefix(v, "models/"):
		return n.origin() + "/" + v
	default:
		return v
	}
}

// Normalize returns a copy of doc with path and every string under assets
// normalized. Other fields are shared with doc.
func (n Normalizer) Normalize(doc Document) Document {
	if doc == nil {
		return nil
	}

	out := make(Document, len(doc))
	for k, v := range doc {
		out[k] = v
	}

	if p := out.String("path"); p != "" {
		out["path"] = n.URL(p)
	}

	if assets := out.Map("assets"); assets != nil {
		fixed := make(map[string]any, len(assets))

		for k, v := range assets {
			if s, ok := v.(string); ok && s != "" {
				fixed[k] = n.URL(s)
				continue
			}

			fixed[k] = v
		}

		out["assets"] = fixed
	}

	return out
}

func (n Normalizer) origin() string {
	return strings.TrimSuffix(n.Origin, "/")
}
