package report

import (
	"context"
)

// UsableDimensions returns the API names of every dimension the property exposes
func UsableDimensions(ctx context.Context, fetcher MetadataFetcher, property string) ([]string, error) {
	md, err := fetcher.GetMetadata(ctx, property)
	if err != nil {
		return nil, err
	}
	if md == nil {
		return []string{}, nil
	}
	names := make([]string, 0, len(md.Dimensions))
	for _, d := range md.Dimensions {
		names = append(names, d.ApiName)
	}
	return names, nil
}

// UsableMetrics returns the API names of every metric the property exposes
func UsableMetrics(ctx context.Context, fetcher MetadataFetcher, property string) ([]string, error) {
	md, err := fetcher.GetMetadata(ctx, property)
	if err != nil {
		return nil, err
	}
	if md == nil {
		return []string{}, nil
	}
	names := make([]string, 0, len(md.Metrics))
	for _, m := range md.Metrics {
		names = append(names, m.ApiName)
	}
	return names, nil
}
