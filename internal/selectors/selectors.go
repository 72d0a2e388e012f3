package selectors

import (
	"context"
	"fmt"
	"strings"

	"github.com/lherron/tosum/internal/domain"
	"github.com/lherron/tosum/internal/id"
)

// Type selects which lookups an identifier is tried against.
type Type string

const (
	TypeAuto Type = "auto" // Surrogate id first, then natural key
	TypeID   Type = "id"   // Surrogate id only
	TypeKey  Type = "key"  // Project name or task index only
)

// ParseType validates a lookup type name. Empty selects TypeAuto.
func ParseType(s string) (Type, error) {
	switch t := Type(strings.ToLower(s)); t {
	case "":
		return TypeAuto, nil
	case TypeAuto, TypeID, TypeKey:
		return t, nil
	default:
		return "", fmt.Errorf("unknown lookup type %q (want auto, id or key)", s)
	}
}

// ProjectFinder looks up rows of the merged view. Both methods return a
// NotFoundError when nothing matches.
type ProjectFinder interface {
	FindByID(ctx context.Context, id int64) (*domain.MergedProjectView, error)
	FindByNaturalKey(ctx context.Context, key string) (*domain.MergedProjectView, error)
}

// ResolveProject resolves an identifier to one merged-view row. A purely
// numeric identifier is tried as a surrogate id first; when that finds
// nothing, or the identifier is not numeric, it is matched exactly against
// project name and task index. The identifier is used as given, so names
// such as "id:alpha" resolve like any other. There is no partial matching.
func ResolveProject(ctx context.Context, finder ProjectFinder, identifier string) (*domain.MergedProjectView, error) {
	return Resolve(ctx, finder, TypeAuto, identifier)
}

// Resolve is ResolveProject restricted to the lookups allowed by typ.
func Resolve(ctx context.Context, finder ProjectFinder, typ Type, identifier string) (*domain.MergedProjectView, error) {
	token := domain.NormalizeKey(identifier).String()
	if token == "" {
		return nil, &domain.NotFoundError{Identifier: identifier}
	}

	if typ != TypeKey {
		if n, ok := id.ParseSurrogateID(token); ok {
			view, err := finder.FindByID(ctx, n)
			if err == nil {
				return view, nil
			}
			if !domain.IsNotFound(err) {
				return nil, err
			}
		}
		if typ == TypeID {
			return nil, &domain.NotFoundError{Identifier: identifier}
		}
	}

	view, err := finder.FindByNaturalKey(ctx, token)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, &domain.NotFoundError{Identifier: identifier}
		}
		return nil, err
	}
	return view, nil
}
