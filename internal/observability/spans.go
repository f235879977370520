package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/litescript/ls-orrery/internal/body"
	"github.com/litescript/ls-orrery/internal/dataset"
	"github.com/litescript/ls-orrery/internal/scene"
)

// LoadDataset loads the JSON dataset at path, or the embedded solar
// system when path is empty, inside a "dataset.load" span.
func LoadDataset(ctx context.Context, path string, reporter body.Reporter) (*body.Catalog, error) {
	_, span := Tracer().Start(ctx, "dataset.load")
	defer span.End()

	source := path
	if source == "" {
		source = "embedded"
	}
	span.SetAttributes(attribute.String("dataset.source", source))

	var issues body.IssueList
	reporter = body.Tee(reporter, &issues)

	var (
		cat *body.Catalog
		err error
	)
	if path == "" {
		cat, err = dataset.Default(reporter)
	} else {
		cat, err = dataset.LoadFile(path, reporter)
	}
	span.SetAttributes(attribute.Int("dataset.issues", len(issues.Issues)))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("catalog.bodies", cat.Len()),
		attribute.Int("catalog.excluded", len(cat.Excluded())),
	)
	return cat, nil
}

// SwapCatalog replaces the scene's catalog inside a "scene.swap_catalog" span.
func SwapCatalog(ctx context.Context, s *scene.Scene, c *body.Catalog) {
	_, span := Tracer().Start(ctx, "scene.swap_catalog")
	defer span.End()
	span.SetAttributes(attribute.Int("catalog.bodies", c.Len()))
	s.SwapCatalog(c)
}

// SetRealism changes the realism level inside a "scene.realism_refresh"
// span and returns the level actually applied.
func SetRealism(ctx context.Context, s *scene.Scene, r float64) float64 {
	_, span := Tracer().Start(ctx, "scene.realism_refresh")
	defer span.End()
	span.SetAttributes(attribute.Float64("realism.requested", r))
	applied := s.SetRealismLevel(r)
	span.SetAttributes(attribute.Float64("realism.applied", applied))
	return applied
}
